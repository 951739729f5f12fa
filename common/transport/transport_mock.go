package transport

import (
	"fmt"
	"sync"

	. "krypt.co/locus/common/protocol"
)

// FailingTransport fails every call and counts the attempts.
type FailingTransport struct {
	sync.Mutex
	attempts int
}

func (t *FailingTransport) Call(peer Peer, request Request) (response Response, err error) {
	t.Lock()
	defer t.Unlock()
	t.attempts++
	err = NewTransportError(peer, fmt.Errorf("connection refused"))
	return
}

func (t *FailingTransport) Attempts() int {
	t.Lock()
	defer t.Unlock()
	return t.attempts
}

// CountingTransport records every call by operation before delegating.
// FailFirst fails that many calls with a transport error before letting
// calls through.
type CountingTransport struct {
	Transport
	sync.Mutex
	FailFirst   int
	calls       int
	byOperation map[string]int
}

func (t *CountingTransport) Call(peer Peer, request Request) (response Response, err error) {
	t.Lock()
	t.calls++
	if t.byOperation == nil {
		t.byOperation = map[string]int{}
	}
	t.byOperation[request.Operation()]++
	fail := t.FailFirst > 0
	if fail {
		t.FailFirst--
	}
	t.Unlock()
	if fail {
		err = NewTransportError(peer, fmt.Errorf("injected failure"))
		return
	}
	return t.Transport.Call(peer, request)
}

func (t *CountingTransport) Calls() int {
	t.Lock()
	defer t.Unlock()
	return t.calls
}

func (t *CountingTransport) CallsFor(operation string) int {
	t.Lock()
	defer t.Unlock()
	return t.byOperation[operation]
}
