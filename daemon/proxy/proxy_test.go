package proxy

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/util"
	"krypt.co/locus/daemon/methods"

	. "krypt.co/locus/common/protocol"
)

type greeter struct {
	sync.Mutex
	name     string
	mediator methods.Mediator
}

func (g *greeter) TypeName() string { return "test.greeter" }

func (g *greeter) DisplayName() string {
	g.Lock()
	defer g.Unlock()
	return g.name
}

func (g *greeter) SetMediator(mediator methods.Mediator) {
	g.Lock()
	defer g.Unlock()
	g.mediator = mediator
}

func (g *greeter) Operations() []methods.Spec {
	return []methods.Spec{
		{Name: "greet", Signature: methods.Sig(methods.KindString), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			who, _ := methods.String(args, 0)
			return "hello " + who + " from " + target.(*greeter).DisplayName(), nil
		}},
		{Name: "rename", Signature: methods.Sig(methods.KindString), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			g := target.(*greeter)
			name, _ := methods.String(args, 0)
			g.Lock()
			g.name = name
			mediator := g.mediator
			g.Unlock()
			if mediator != nil {
				mediator.Notify("renamed")
			}
			return nil, nil
		}},
		{Name: "fail", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return nil, errors.New("greeter is tired")
		}},
	}
}

type recordingDispatcher struct {
	sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	name string
	args []interface{}
	id   ObjectID
}

func (d *recordingDispatcher) ExecuteMethodOut(name string, args []interface{}, id ObjectID) (result interface{}, err error) {
	d.Lock()
	defer d.Unlock()
	d.calls = append(d.calls, recordedCall{name, args, id})
	return
}

func (d *recordingDispatcher) Calls() []recordedCall {
	d.Lock()
	defer d.Unlock()
	return append([]recordedCall{}, d.calls...)
}

var testLog = logging.MustGetLogger("proxy-test")

func newReference(t *testing.T, id ObjectID, name string, dispatcher Dispatcher) *Reference {
	table, err := methods.NewTable(0, testLog)
	require.NoError(t, err)
	return NewReference(id, &greeter{name: name}, table, dispatcher, testLog)
}

// hosts a single reference the way a center answers executeMethodIn
func hostFor(ref *Reference) transport.Handler {
	return transport.HandlerFunc(func(request Request) Response {
		response := NewResponse(request)
		execute := request.ExecuteRequest
		if execute == nil {
			response.Error = ToWire(NewProtoError("unexpected %s", request.Operation()))
			return response
		}
		if execute.ObjectID != ref.ObjectID() {
			response.Error = ToWire(&UnknownLocalObjectError{ObjectID: execute.ObjectID})
			return response
		}
		result, err := ref.ExecuteMethod(execute.Operation, execute.Args)
		if err != nil {
			response.Error = ToWire(err)
			return response
		}
		response.ExecuteResponse = &ExecuteResponse{Result: result}
		return response
	})
}

func hostedProxy(t *testing.T, board *transport.Switchboard, t2 transport.Transport, name string) (*Reference, *Proxy) {
	host := Peer{UID: NewCenterID(), Address: "board"}
	ref := newReference(t, NewObjectID(), name, nil)
	board.Attach(host.UID, hostFor(ref))
	return ref, NewProxy(Handle{ID: ref.ObjectID(), Host: host}, t2, config.RetryPolicy{}, testLog)
}

func TestProxyForwardsToReference(t *testing.T) {
	board := transport.NewSwitchboard()
	_, proxy := hostedProxy(t, board, board, "alice")

	result, err := proxy.ExecuteMethod("greet", []interface{}{"bob"})
	require.NoError(t, err)
	assert.Equal(t, "hello bob from alice", result)

	name, err := proxy.DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestProxyRetryBound(t *testing.T) {
	for _, attempts := range []int{1, 3, 5} {
		failing := &transport.FailingTransport{}
		proxy := NewProxy(Handle{ID: "7", Host: Peer{UID: NewCenterID()}}, failing, config.RetryPolicy{Attempts: attempts}, testLog)

		_, err := proxy.ExecuteMethod("greet", []interface{}{"bob"})
		var execErr *RemoteExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, attempts, execErr.Attempts)
		assert.True(t, IsRetryable(execErr.Cause))
		assert.Equal(t, attempts, failing.Attempts())
	}
}

func TestProxyForbiddenOperationsMakeNoCalls(t *testing.T) {
	failing := &transport.FailingTransport{}
	proxy := NewProxy(Handle{ID: "7", Host: Peer{UID: NewCenterID()}}, failing, config.RetryPolicy{Attempts: 3}, testLog)

	var forbidden *ForbiddenError
	err := proxy.SetMediator(nil)
	assert.True(t, errors.As(err, &forbidden))
	_, err = proxy.ExecuteMethod(OP_SET_MEDIATOR, nil)
	assert.True(t, errors.As(err, &forbidden))
	assert.Equal(t, 0, failing.Attempts())
}

func TestProxyDoesNotRetryRemoteErrors(t *testing.T) {
	board := transport.NewSwitchboard()
	counting := &transport.CountingTransport{Transport: board}
	_, proxy := hostedProxy(t, board, counting, "alice")

	_, err := proxy.ExecuteMethod("sing", nil)
	var noSuchOp *NoSuchOperationError
	require.True(t, errors.As(err, &noSuchOp))
	assert.Equal(t, "test.greeter", noSuchOp.TypeName)
	assert.Equal(t, 1, counting.Calls())

	_, err = proxy.ExecuteMethod("fail", nil)
	var invocation *InvocationError
	require.True(t, errors.As(err, &invocation))
	assert.Contains(t, invocation.Cause.Error(), "greeter is tired")
	assert.Equal(t, 2, counting.Calls())
}

func TestProxyRecoversFromTransientFailures(t *testing.T) {
	board := transport.NewSwitchboard()
	counting := &transport.CountingTransport{Transport: board, FailFirst: 2}
	_, proxy := hostedProxy(t, board, counting, "alice")

	result, err := proxy.ExecuteMethod("greet", []interface{}{"carol"})
	require.NoError(t, err)
	assert.Equal(t, "hello carol from alice", result)
	assert.Equal(t, 3, counting.CallsFor("executeMethodIn"))
}

func TestProxyRebind(t *testing.T) {
	board := transport.NewSwitchboard()
	ref, proxy := hostedProxy(t, board, board, "alice")

	newHost := Peer{UID: NewCenterID(), Address: "board"}
	board.Attach(newHost.UID, hostFor(ref))
	board.Partition(proxy.Handle().Host.UID)

	proxy.Rebind(newHost)
	assert.Equal(t, newHost, proxy.Handle().Host)
	_, err := proxy.ExecuteMethod("greet", []interface{}{"dave"})
	require.NoError(t, err)
	assert.Equal(t, 1, board.Calls(newHost.UID))
}

func TestSameAndEqualUseRemoteIdentity(t *testing.T) {
	board := transport.NewSwitchboard()
	ref, proxy := hostedProxy(t, board, board, "alice")
	assert.True(t, Same(ref, proxy))

	other := NewProxy(proxy.Handle(), board, config.RetryPolicy{}, testLog)
	assert.True(t, Same(proxy, other))
	assert.False(t, proxy == other)

	namesake := newReference(t, NewObjectID(), "alice", nil)
	assert.False(t, Same(proxy, namesake))
	equal, err := Equal(proxy, namesake)
	require.NoError(t, err)
	assert.True(t, equal)

	stranger := newReference(t, NewObjectID(), "mallory", nil)
	equal, err = Equal(proxy, stranger)
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestReferenceReservedOperations(t *testing.T) {
	ref := newReference(t, "42", "alice", nil)

	id, err := ref.ExecuteMethod(OP_OBJECT_ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	name, err := ref.ExecuteMethod(OP_DISPLAY_NAME, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = ref.ExecuteMethod(OP_REGISTER_OBSERVER, []interface{}{"9"})
	require.NoError(t, err)
	assert.Equal(t, []ObjectID{"9"}, ref.Observers())
	_, err = ref.ExecuteMethod(OP_UNREGISTER_OBSERVER, []interface{}{"9"})
	require.NoError(t, err)
	assert.Empty(t, ref.Observers())

	var forbidden *ForbiddenError
	_, err = ref.ExecuteMethod(OP_SET_MEDIATOR, nil)
	assert.True(t, errors.As(err, &forbidden))
}

func TestReferenceNotifiesObservers(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	ref := newReference(t, "42", "alice", dispatcher)
	require.NoError(t, ref.RegisterObserver("1"))
	require.NoError(t, ref.RegisterObserver("2"))

	_, err := ref.ExecuteMethod("rename", []interface{}{"alicia"})
	require.NoError(t, err)

	util.TrueBefore(t, func() bool {
		return len(dispatcher.Calls()) == 2
	}, time.Now().Add(time.Second))
	for _, call := range dispatcher.Calls() {
		assert.Equal(t, OP_OBSERVE_EVENT, call.name)
		assert.Equal(t, []interface{}{"renamed", "42"}, call.args)
	}
	name, _ := ref.DisplayName()
	assert.Equal(t, "alicia", name)
}
