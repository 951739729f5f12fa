package transport

import (
	. "krypt.co/locus/common/protocol"
)

// Transport delivers one request to a named peer and waits for its
// response. Any error it returns is a transport failure and may be
// retried; faults raised by the remote center travel inside the
// Response instead.
type Transport interface {
	Call(peer Peer, request Request) (response Response, err error)
}

// Handler serves the peer-facing surface of a center.
type Handler interface {
	Handle(request Request) Response
}

type HandlerFunc func(request Request) Response

func (f HandlerFunc) Handle(request Request) Response {
	return f(request)
}
