package center

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/util"

	. "krypt.co/locus/common/protocol"
)

// broadcast tells every peer that ids are now hosted here. Each peer is
// tried on its own goroutine; a peer that cannot be reached is logged and
// skipped without holding up the others or undoing the registration.
// Must be called without the lock held.
func (c *Center) broadcast(ids []ObjectID, stamp int64, peers []Peer) {
	if len(peers) == 0 {
		return
	}
	start := time.Now()
	var group errgroup.Group
	for _, peer := range peers {
		peer := peer
		group.Go(func() error {
			util.RecoverToLog(func() {
				c.notifyPeer(ids, stamp, peer)
			}, c.log)
			return nil
		})
	}
	group.Wait()
	broadcastSeconds.Observe(time.Since(start).Seconds())
}

func (c *Center) notifyPeer(ids []ObjectID, stamp int64, peer Peer) {
	if c.limiter != nil {
		c.limiter.Wait(context.Background())
	}
	request, err := c.newRequest()
	if err != nil {
		return
	}
	request.UpdateLocationsRequest = &UpdateLocationsRequest{
		ObjectIDs: ids,
		NewHost:   c.self,
		Stamp:     stamp,
	}
	response, _, err := transport.CallWithRetry(c.transport, peer, request, c.config.Dispatch, c.log)
	if err == nil && response.Error != nil {
		err = response.Error.Err()
	}
	if err != nil {
		c.log.Error("announcing", ids, "to", peer.String(), "failed:", err)
		broadcasts.WithLabelValues("failed").Inc()
		return
	}
	broadcasts.WithLabelValues("delivered").Inc()
}
