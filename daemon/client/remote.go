package client

import (
	"github.com/op/go-logging"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/transport"

	. "krypt.co/locus/common/protocol"
	. "krypt.co/locus/common/socket"
)

// RemoteCenter speaks the peer-facing operations of one communication
// center over a Transport. It holds no state of its own; every call is a
// fresh request.
type RemoteCenter struct {
	Peer      Peer
	Transport transport.Transport
	Policy    config.RetryPolicy
	Log       *logging.Logger
}

// LocalCenter reaches the daemon on this host through its admin socket.
func LocalCenter(cfg config.Config, log *logging.Logger) (rc RemoteCenter, err error) {
	unixFile, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		return
	}
	rc = RemoteCenter{
		Peer:      Peer{Address: unixFile},
		Transport: transport.NewHTTPTransport(cfg.HTTPTimeout),
		Policy:    cfg.Dispatch,
		Log:       log,
	}
	return
}

// Equals compares by UID only, like Peer.
func (rc RemoteCenter) Equals(other RemoteCenter) bool {
	return rc.Peer.Equals(other.Peer)
}

func (rc RemoteCenter) call(fill func(*Request)) (response Response, err error) {
	request, err := NewRequest()
	if err != nil {
		return
	}
	fill(&request)
	response, _, err = transport.CallWithRetry(rc.Transport, rc.Peer, request, rc.Policy, rc.Log)
	if err != nil {
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
	}
	return
}

func (rc RemoteCenter) ExecuteMethodIn(name string, args []interface{}, id ObjectID) (result interface{}, err error) {
	response, err := rc.call(func(r *Request) {
		r.ExecuteRequest = &ExecuteRequest{Operation: name, Args: args, ObjectID: id}
	})
	if err != nil {
		return
	}
	if response.ExecuteResponse != nil {
		result = response.ExecuteResponse.Result
	}
	return
}

func (rc RemoteCenter) IntroduceNewCommunicationCenter(peer Peer) (err error) {
	_, err = rc.call(func(r *Request) {
		r.IntroduceRequest = &IntroduceRequest{Peer: peer}
	})
	return
}

// UpdateObjectLocations sends an unstamped update, which the receiver
// orders by its own arrival time.
func (rc RemoteCenter) UpdateObjectLocations(ids []ObjectID, newHost Peer) (err error) {
	_, err = rc.call(func(r *Request) {
		r.UpdateLocationsRequest = &UpdateLocationsRequest{ObjectIDs: ids, NewHost: newHost}
	})
	return
}

func (rc RemoteCenter) GetLocationOfObject(id ObjectID) (host Peer, known bool, err error) {
	response, err := rc.call(func(r *Request) {
		r.LocateRequest = &LocateRequest{ObjectID: id}
	})
	if err != nil {
		return
	}
	if response.LocateResponse == nil {
		err = NewProtoError("no locate response for %s", id)
		return
	}
	host, known = response.LocateResponse.Host, response.LocateResponse.Known
	return
}

func (rc RemoteCenter) GetObjectByID(id ObjectID) (object GetObjectResponse, err error) {
	response, err := rc.call(func(r *Request) {
		r.GetObjectRequest = &GetObjectRequest{ObjectID: id}
	})
	if err != nil {
		return
	}
	if response.GetObjectResponse == nil {
		err = NewProtoError("no object response for %s", id)
		return
	}
	object = *response.GetObjectResponse
	return
}

func (rc RemoteCenter) UnregisterObject(id ObjectID) (err error) {
	_, err = rc.call(func(r *Request) {
		r.UnregisterRequest = &UnregisterRequest{ObjectID: id}
	})
	return
}

func (rc RemoteCenter) GetAllLocalObjectIDs() (ids []ObjectID, err error) {
	response, err := rc.call(func(r *Request) {
		r.ListObjectsRequest = &ListObjectsRequest{}
	})
	if err != nil {
		return
	}
	if response.ListObjectsResponse == nil {
		err = NewProtoError("no object list in response")
		return
	}
	ids = response.ListObjectsResponse.ObjectIDs
	return
}

// GetUID also reports the address the center advertises to peers.
func (rc RemoteCenter) GetUID() (self Peer, err error) {
	response, err := rc.call(func(r *Request) {
		r.UIDRequest = &UIDRequest{}
	})
	if err != nil {
		return
	}
	if response.UIDResponse == nil {
		err = NewProtoError("no uid in response")
		return
	}
	self = response.UIDResponse.Self
	return
}
