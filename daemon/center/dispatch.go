package center

import (
	"krypt.co/locus/common/transport"
	"krypt.co/locus/daemon/proxy"

	. "krypt.co/locus/common/protocol"
)

// ExecuteMethodIn runs name on the object hosted here under id. It never
// forwards: an id this center does not host is an UnknownLocalObjectError.
func (c *Center) ExecuteMethodIn(name string, args []interface{}, id ObjectID) (result interface{}, err error) {
	ref, ok := c.Reference(id)
	if !ok {
		err = &UnknownLocalObjectError{ObjectID: id}
		c.log.Warning("executeMethodIn", name, "failed:", err)
		dispatches.WithLabelValues("local", "unknown").Inc()
		return
	}
	result, err = ref.ExecuteMethod(name, args)
	if err != nil {
		c.log.Error("executing", name, "on", id, "failed:", err)
		dispatches.WithLabelValues("local", "fault").Inc()
		return
	}
	dispatches.WithLabelValues("local", "ok").Inc()
	return
}

// ExecuteMethodOut runs name on id wherever this center believes id
// lives: directly when hosted here, through the cached host's
// executeMethodIn otherwise. An id with no entry fails with
// UnknownObjectError before any transport call. Remote calls are retried
// on transport failure up to the configured dispatch attempts and block
// until they complete; there is no way to abandon one in flight.
func (c *Center) ExecuteMethodOut(name string, args []interface{}, id ObjectID) (result interface{}, err error) {
	c.Lock()
	_, isLocal := c.local[id]
	hint, isRemote := c.hint(id)
	c.Unlock()

	switch {
	case isLocal:
		return c.ExecuteMethodIn(name, args, id)
	case !isRemote:
		err = &UnknownObjectError{ObjectID: id}
		c.log.Warning("executeMethodOut", name, "failed:", err)
		dispatches.WithLabelValues("remote", "unknown").Inc()
		return
	}

	if IsLocalOnlyOperation(name) {
		err = &ForbiddenError{Operation: name}
		c.log.Error("executeMethodOut", name, "on", id, "failed:", err)
		dispatches.WithLabelValues("remote", "forbidden").Inc()
		return
	}

	request, err := c.newRequest()
	if err != nil {
		return
	}
	request.ExecuteRequest = &ExecuteRequest{
		Operation: name,
		Args:      args,
		ObjectID:  id,
	}
	response, attempts, err := transport.CallWithRetry(c.transport, hint.host, request, c.config.Dispatch, c.log)
	if err != nil {
		if IsRetryable(err) {
			err = &RemoteDispatchError{ObjectID: id, Peer: hint.host, Attempts: attempts, Cause: err}
		}
		c.log.Error("executeMethodOut", name, "on", id, "failed:", err)
		dispatches.WithLabelValues("remote", "undelivered").Inc()
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
		//	the hint stays: only a location update corrects it
		c.log.Error("executeMethodOut", name, "on", id, "at", hint.host.String(), "failed:", err)
		dispatches.WithLabelValues("remote", "fault").Inc()
		return
	}
	if response.ExecuteResponse != nil {
		result = response.ExecuteResponse.Result
	}
	dispatches.WithLabelValues("remote", "ok").Inc()
	return
}

// Object hands out the best handle this center has for id: the Reference
// itself when hosted here, a Proxy bound to the cached host otherwise.
func (c *Center) Object(id ObjectID) (object proxy.Object, err error) {
	c.Lock()
	entry, isLocal := c.local[id]
	hint, isRemote := c.hint(id)
	c.Unlock()

	switch {
	case isLocal:
		object = entry.ref
	case isRemote:
		object = proxy.NewProxy(proxy.Handle{ID: id, Host: hint.host}, c.transport, c.config.Proxy, c.log).From(c.self)
	default:
		err = &UnknownObjectError{ObjectID: id}
	}
	return
}

func (c *Center) newRequest() (request Request, err error) {
	request, err = NewRequest()
	if err != nil {
		c.log.Error("error creating request:", err)
		return
	}
	self := c.self
	request.From = &self
	return
}
