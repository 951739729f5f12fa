package protocol

import (
	"errors"
	"fmt"
)

// Network-related failure delivering a request or its response. The only
// retryable kind of error.
type TransportError struct {
	Peer Peer
	error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("TransportError(%s): %s", err.Peer.String(), err.error.Error())
}

func (err *TransportError) Unwrap() error {
	return err.error
}

func NewTransportError(peer Peer, err error) *TransportError {
	return &TransportError{Peer: peer, error: err}
}

// The object is not hosted by the center asked to run it.
type UnknownLocalObjectError struct {
	ObjectID ObjectID
}

func (err *UnknownLocalObjectError) Error() string {
	return fmt.Sprintf("UnknownLocalObject: %s is not hosted here", err.ObjectID)
}

// No directory entry at all, local or cached.
type UnknownObjectError struct {
	ObjectID ObjectID
}

func (err *UnknownObjectError) Error() string {
	return fmt.Sprintf("UnknownObject: no known location for %s", err.ObjectID)
}

// The target operation ran and faulted.
type InvocationError struct {
	ObjectID  ObjectID
	Operation string
	Cause     error
}

func (err *InvocationError) Error() string {
	return fmt.Sprintf("InvocationFailure: %s on %s: %s", err.Operation, err.ObjectID, err.Cause.Error())
}

func (err *InvocationError) Unwrap() error {
	return err.Cause
}

// Cause of an InvocationError reconstructed from the wire.
type RemoteFault struct {
	Message string
}

func (err *RemoteFault) Error() string {
	return err.Message
}

type ForbiddenError struct {
	Operation string
}

func (err *ForbiddenError) Error() string {
	return fmt.Sprintf("RemoteOperationForbidden: %s may not cross a process boundary", err.Operation)
}

type NoSuchOperationError struct {
	TypeName  string
	Operation string
	Signature string
}

func (err *NoSuchOperationError) Error() string {
	return fmt.Sprintf("NoSuchOperation: %s has no operation %s(%s)", err.TypeName, err.Operation, err.Signature)
}

// A Proxy ran out of attempts.
type RemoteExecutionError struct {
	Attempts int
	Cause    error
}

func (err *RemoteExecutionError) Error() string {
	return fmt.Sprintf("RemoteExecutionFailed after %d attempts: %s", err.Attempts, err.Cause.Error())
}

func (err *RemoteExecutionError) Unwrap() error {
	return err.Cause
}

// A center ran out of attempts forwarding to the cached host.
type RemoteDispatchError struct {
	ObjectID ObjectID
	Peer     Peer
	Attempts int
	Cause    error
}

func (err *RemoteDispatchError) Error() string {
	return fmt.Sprintf("RemoteDispatchFailure: %s at %s after %d attempts: %s", err.ObjectID, err.Peer.String(), err.Attempts, err.Cause.Error())
}

func (err *RemoteDispatchError) Unwrap() error {
	return err.Cause
}

// Unrecoverable error, this request will always fail
type ProtoError struct {
	error
}

func (err *ProtoError) Error() string {
	return "ProtoError: " + err.error.Error()
}

func (err *ProtoError) Unwrap() error {
	return err.error
}

func NewProtoError(format string, args ...interface{}) *ProtoError {
	return &ProtoError{fmt.Errorf(format, args...)}
}

func WrapProtoError(err error) *ProtoError {
	return &ProtoError{err}
}

func IsRetryable(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

const (
	CODE_TRANSPORT            = "transport"
	CODE_UNKNOWN_LOCAL_OBJECT = "unknown_local_object"
	CODE_UNKNOWN_OBJECT       = "unknown_object"
	CODE_INVOCATION           = "invocation"
	CODE_FORBIDDEN            = "forbidden"
	CODE_NO_SUCH_OPERATION    = "no_such_operation"
	CODE_REMOTE_EXECUTION     = "remote_execution"
	CODE_REMOTE_DISPATCH      = "remote_dispatch"
	CODE_PROTO                = "proto"
	CODE_INTERNAL             = "internal"
)

type WireError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	ObjectID  ObjectID `json:"object_id,omitempty"`
	Operation string   `json:"operation,omitempty"`
	TypeName  string   `json:"type_name,omitempty"`
	Attempts  int      `json:"attempts,omitempty"`
	Cause     string   `json:"cause,omitempty"`
}

func ToWire(err error) *WireError {
	if err == nil {
		return nil
	}
	var (
		transportErr    *TransportError
		unknownLocalErr *UnknownLocalObjectError
		unknownErr      *UnknownObjectError
		invocationErr   *InvocationError
		forbiddenErr    *ForbiddenError
		noSuchOpErr     *NoSuchOperationError
		remoteExecErr   *RemoteExecutionError
		remoteDispErr   *RemoteDispatchError
		protoErr        *ProtoError
	)
	wire := &WireError{Code: CODE_INTERNAL, Message: err.Error()}
	switch {
	case errors.As(err, &unknownLocalErr):
		wire.Code = CODE_UNKNOWN_LOCAL_OBJECT
		wire.ObjectID = unknownLocalErr.ObjectID
	case errors.As(err, &unknownErr):
		wire.Code = CODE_UNKNOWN_OBJECT
		wire.ObjectID = unknownErr.ObjectID
	case errors.As(err, &invocationErr):
		wire.Code = CODE_INVOCATION
		wire.ObjectID = invocationErr.ObjectID
		wire.Operation = invocationErr.Operation
		wire.Cause = invocationErr.Cause.Error()
	case errors.As(err, &forbiddenErr):
		wire.Code = CODE_FORBIDDEN
		wire.Operation = forbiddenErr.Operation
	case errors.As(err, &noSuchOpErr):
		wire.Code = CODE_NO_SUCH_OPERATION
		wire.TypeName = noSuchOpErr.TypeName
		wire.Operation = noSuchOpErr.Operation
		wire.Cause = noSuchOpErr.Signature
	case errors.As(err, &remoteDispErr):
		wire.Code = CODE_REMOTE_DISPATCH
		wire.ObjectID = remoteDispErr.ObjectID
		wire.Attempts = remoteDispErr.Attempts
		wire.Cause = remoteDispErr.Cause.Error()
	case errors.As(err, &remoteExecErr):
		wire.Code = CODE_REMOTE_EXECUTION
		wire.Attempts = remoteExecErr.Attempts
		wire.Cause = remoteExecErr.Cause.Error()
	case errors.As(err, &transportErr):
		wire.Code = CODE_TRANSPORT
	case errors.As(err, &protoErr):
		wire.Code = CODE_PROTO
	}
	return wire
}

// Err rebuilds the typed error a WireError was made from. A transport
// failure reported by a remote center happened on another hop and is not
// retryable here, so it comes back as a plain RemoteFault.
func (w *WireError) Err() error {
	if w == nil {
		return nil
	}
	switch w.Code {
	case CODE_UNKNOWN_LOCAL_OBJECT:
		return &UnknownLocalObjectError{ObjectID: w.ObjectID}
	case CODE_UNKNOWN_OBJECT:
		return &UnknownObjectError{ObjectID: w.ObjectID}
	case CODE_INVOCATION:
		return &InvocationError{ObjectID: w.ObjectID, Operation: w.Operation, Cause: &RemoteFault{w.Cause}}
	case CODE_FORBIDDEN:
		return &ForbiddenError{Operation: w.Operation}
	case CODE_NO_SUCH_OPERATION:
		return &NoSuchOperationError{TypeName: w.TypeName, Operation: w.Operation, Signature: w.Cause}
	case CODE_REMOTE_DISPATCH:
		return &RemoteDispatchError{ObjectID: w.ObjectID, Attempts: w.Attempts, Cause: &RemoteFault{w.Cause}}
	case CODE_REMOTE_EXECUTION:
		return &RemoteExecutionError{Attempts: w.Attempts, Cause: &RemoteFault{w.Cause}}
	case CODE_PROTO:
		return &ProtoError{&RemoteFault{w.Message}}
	}
	return &RemoteFault{w.Message}
}
