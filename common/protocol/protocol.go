package protocol

import (
	"time"

	"github.com/blang/semver"

	"krypt.co/locus/common/util"
	"krypt.co/locus/common/version"
)

// Reserved operation names understood by every Reference regardless of
// the wrapped object's type.
const (
	OP_DISPLAY_NAME        = "$name"
	OP_OBJECT_ID           = "$id"
	OP_REGISTER_OBSERVER   = "$observe"
	OP_UNREGISTER_OBSERVER = "$unobserve"
	//	Rebinding a mediator only makes sense next to the object; it never
	//	crosses a process boundary.
	OP_SET_MEDIATOR = "$mediator"
	//	Delivered to observers when an observed object changes.
	OP_OBSERVE_EVENT = "observe"
)

func IsLocalOnlyOperation(name string) bool {
	return name == OP_SET_MEDIATOR
}

type Request struct {
	RequestID   string         `json:"request_id"`
	UnixSeconds int64          `json:"unix_seconds"`
	Version     semver.Version `json:"v"`
	From        *Peer          `json:"from,omitempty"`

	ExecuteRequest         *ExecuteRequest         `json:"execute_request,omitempty"`
	IntroduceRequest       *IntroduceRequest       `json:"introduce_request,omitempty"`
	UpdateLocationsRequest *UpdateLocationsRequest `json:"update_locations_request,omitempty"`
	LocateRequest          *LocateRequest          `json:"locate_request,omitempty"`
	GetObjectRequest       *GetObjectRequest       `json:"get_object_request,omitempty"`
	UnregisterRequest      *UnregisterRequest      `json:"unregister_request,omitempty"`
	ListObjectsRequest     *ListObjectsRequest     `json:"list_objects_request,omitempty"`
	UIDRequest             *UIDRequest             `json:"uid_request,omitempty"`
	AcceptObjectRequest    *AcceptObjectRequest    `json:"accept_object_request,omitempty"`
}

func NewRequest() (request Request, err error) {
	id, err := util.Rand128Base62()
	if err != nil {
		return
	}
	request = Request{
		RequestID:   id,
		UnixSeconds: time.Now().Unix(),
		Version:     version.CURRENT_VERSION,
	}
	return
}

// Operation names the peer-facing operation a request carries, for logs
// and metrics.
func (r Request) Operation() string {
	switch {
	case r.ExecuteRequest != nil:
		return "executeMethodIn"
	case r.IntroduceRequest != nil:
		return "introduceNewCommunicationCenter"
	case r.UpdateLocationsRequest != nil:
		return "updateObjectLocations"
	case r.LocateRequest != nil:
		return "getLocationOfObject"
	case r.GetObjectRequest != nil:
		return "getObjectById"
	case r.UnregisterRequest != nil:
		return "unregisterObject"
	case r.ListObjectsRequest != nil:
		return "getAllLocalObjectIds"
	case r.UIDRequest != nil:
		return "getUID"
	case r.AcceptObjectRequest != nil:
		return "acceptObject"
	}
	return "noop"
}

type ExecuteRequest struct {
	Operation string        `json:"operation"`
	Args      []interface{} `json:"args"`
	ObjectID  ObjectID      `json:"object_id"`
}

type IntroduceRequest struct {
	Peer Peer `json:"peer"`
}

type UpdateLocationsRequest struct {
	ObjectIDs []ObjectID `json:"object_ids"`
	NewHost   Peer       `json:"new_host"`
	//	Wall-clock time of the registration being announced, unix nanos.
	//	Zero when the sender did not stamp the update.
	Stamp int64 `json:"stamp,omitempty"`
}

type LocateRequest struct {
	ObjectID ObjectID `json:"object_id"`
}

type GetObjectRequest struct {
	ObjectID ObjectID `json:"object_id"`
}

type UnregisterRequest struct {
	ObjectID ObjectID `json:"object_id"`
}

type ListObjectsRequest struct{}

type UIDRequest struct{}

type AcceptObjectRequest struct {
	ObjectID ObjectID `json:"object_id"`
	TypeName string   `json:"type_name"`
	State    []byte   `json:"state"`
	// Registration stamp on the sending center; the accepting center
	// stamps its registration later than this.
	Stamp     int64      `json:"stamp,omitempty"`
	Observers []ObjectID `json:"observers,omitempty"`
}

type Response struct {
	RequestID string         `json:"request_id"`
	Version   semver.Version `json:"v"`
	Error     *WireError     `json:"error,omitempty"`

	ExecuteResponse      *ExecuteResponse      `json:"execute_response,omitempty"`
	LocateResponse       *LocateResponse       `json:"locate_response,omitempty"`
	GetObjectResponse    *GetObjectResponse    `json:"get_object_response,omitempty"`
	ListObjectsResponse  *ListObjectsResponse  `json:"list_objects_response,omitempty"`
	UIDResponse          *UIDResponse          `json:"uid_response,omitempty"`
	AcceptObjectResponse *AcceptObjectResponse `json:"accept_object_response,omitempty"`
}

func NewResponse(request Request) Response {
	return Response{
		RequestID: request.RequestID,
		Version:   version.CURRENT_VERSION,
	}
}

type ExecuteResponse struct {
	Result interface{} `json:"result"`
}

type LocateResponse struct {
	Known bool `json:"known"`
	Host  Peer `json:"host"`
}

// Objects themselves never cross the wire; a present object is described
// by its type and display name.
type GetObjectResponse struct {
	Present     bool   `json:"present"`
	TypeName    string `json:"type_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type ListObjectsResponse struct {
	ObjectIDs []ObjectID `json:"object_ids"`
}

type UIDResponse struct {
	Self Peer `json:"self"`
}

// Stamp is the registration stamp the accepting center assigned.
type AcceptObjectResponse struct {
	Stamp int64 `json:"stamp"`
}
