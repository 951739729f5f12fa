package transport

import (
	"time"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"krypt.co/locus/common/config"
	. "krypt.co/locus/common/protocol"
)

var (
	callAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_transport_attempts_total",
		Help: "Transport calls by peer-facing operation and outcome",
	}, []string{"operation", "outcome"})
)

// CallWithRetry delivers request to peer, retrying transport failures up
// to policy.Attempts calls in total with policy.Delay between them. Errors
// that are not transport failures end the loop at once. When attempts run
// out err is the last transport failure; the caller decides how to
// surface exhaustion.
func CallWithRetry(t Transport, peer Peer, request Request, policy config.RetryPolicy, log *logging.Logger) (response Response, attempts int, err error) {
	maxAttempts := policy.Attempts
	if maxAttempts < 1 {
		maxAttempts = config.DEFAULT_RETRY_ATTEMPTS
	}
	operation := request.Operation()
	for attempts = 1; attempts <= maxAttempts; attempts++ {
		if attempts > 1 && policy.Delay > 0 {
			<-time.After(policy.Delay)
		}
		response, err = t.Call(peer, request)
		if err == nil {
			callAttempts.WithLabelValues(operation, "delivered").Inc()
			return
		}
		if !IsRetryable(err) {
			callAttempts.WithLabelValues(operation, "rejected").Inc()
			return
		}
		callAttempts.WithLabelValues(operation, "failed").Inc()
		if log != nil {
			log.Warning("attempt", attempts, "of", maxAttempts, operation, "to", peer.String(), "failed:", err)
		}
	}
	attempts = maxAttempts
	return
}
