package proxy

import (
	"fmt"
	"sync"

	"github.com/op/go-logging"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/daemon/methods"

	. "krypt.co/locus/common/protocol"
)

// Handle is the address-like part of a Reference: which object, and the
// center hosting it.
type Handle struct {
	ID   ObjectID `json:"id"`
	Host Peer     `json:"host"`
}

func (h Handle) String() string {
	return fmt.Sprintf("%s@%s", h.ID, h.Host.String())
}

// Proxy stands in for an object living on another center. It never holds
// the object itself, only its Handle, and forwards every operation to the
// host's executeMethodIn.
type Proxy struct {
	sync.Mutex
	handle    Handle
	transport transport.Transport
	policy    config.RetryPolicy
	from      *Peer
	log       *logging.Logger
}

func NewProxy(handle Handle, t transport.Transport, policy config.RetryPolicy, log *logging.Logger) *Proxy {
	return &Proxy{
		handle:    handle,
		transport: t,
		policy:    policy,
		log:       log,
	}
}

// From marks outgoing requests as sent by self.
func (p *Proxy) From(self Peer) *Proxy {
	p.Lock()
	defer p.Unlock()
	p.from = &self
	return p
}

func (p *Proxy) Handle() Handle {
	p.Lock()
	defer p.Unlock()
	return p.handle
}

func (p *Proxy) ObjectID() ObjectID {
	return p.Handle().ID
}

// Rebind points the proxy at a new host. Nothing else changes the handle.
func (p *Proxy) Rebind(host Peer) {
	p.Lock()
	defer p.Unlock()
	p.handle.Host = host
}

func (p *Proxy) ExecuteMethod(name string, args []interface{}) (result interface{}, err error) {
	if IsLocalOnlyOperation(name) {
		err = &ForbiddenError{Operation: name}
		p.logFailure(name, err)
		return
	}
	p.Lock()
	handle := p.handle
	from := p.from
	p.Unlock()

	request, err := NewRequest()
	if err != nil {
		return
	}
	request.From = from
	request.ExecuteRequest = &ExecuteRequest{
		Operation: name,
		Args:      args,
		ObjectID:  handle.ID,
	}
	response, attempts, err := transport.CallWithRetry(p.transport, handle.Host, request, p.policy, p.log)
	if err != nil {
		if IsRetryable(err) {
			err = &RemoteExecutionError{Attempts: attempts, Cause: err}
		}
		p.logFailure(name, err)
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
		p.logFailure(name, err)
		return
	}
	if response.ExecuteResponse != nil {
		result = response.ExecuteResponse.Result
	}
	return
}

func (p *Proxy) logFailure(name string, err error) {
	if p.log != nil {
		p.log.Error("proxy", p.Handle().String(), name, "failed:", err)
	}
}

func (p *Proxy) DisplayName() (name string, err error) {
	result, err := p.ExecuteMethod(OP_DISPLAY_NAME, nil)
	if err != nil {
		return
	}
	name, ok := result.(string)
	if !ok {
		err = NewProtoError("display name of %s is %T, not a string", p.ObjectID(), result)
	}
	return
}

func (p *Proxy) RegisterObserver(observer ObjectID) (err error) {
	_, err = p.ExecuteMethod(OP_REGISTER_OBSERVER, []interface{}{string(observer)})
	return
}

func (p *Proxy) UnregisterObserver(observer ObjectID) (err error) {
	_, err = p.ExecuteMethod(OP_UNREGISTER_OBSERVER, []interface{}{string(observer)})
	return
}

// SetMediator is refused on the caller's side without touching the
// transport.
func (p *Proxy) SetMediator(mediator methods.Mediator) (err error) {
	err = &ForbiddenError{Operation: OP_SET_MEDIATOR}
	p.logFailure(OP_SET_MEDIATOR, err)
	return
}
