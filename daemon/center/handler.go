package center

import (
	"krypt.co/locus/common/version"

	. "krypt.co/locus/common/protocol"
)

// Handle serves one peer-facing request. Registration is host-internal
// and has no request form; everything else a peer may ask is here.
func (c *Center) Handle(request Request) (response Response) {
	response = NewResponse(request)
	if !version.IsCompatible(request.Version) {
		response.Error = ToWire(NewProtoError("incompatible protocol version %s", request.Version.String()))
		c.log.Error("rejected request", request.RequestID, "from version", request.Version.String())
		return
	}
	if request.From != nil {
		c.log.Debug("handling", request.Operation(), "from", request.From.String())
	}

	switch {
	case request.ExecuteRequest != nil:
		execute := request.ExecuteRequest
		result, err := c.ExecuteMethodIn(execute.Operation, execute.Args, execute.ObjectID)
		if err != nil {
			response.Error = ToWire(err)
			return
		}
		response.ExecuteResponse = &ExecuteResponse{Result: result}
	case request.IntroduceRequest != nil:
		c.IntroduceNewCommunicationCenter(request.IntroduceRequest.Peer)
	case request.UpdateLocationsRequest != nil:
		update := request.UpdateLocationsRequest
		stamp := update.Stamp
		if !version.SupportsStampedUpdates(request.Version) {
			stamp = 0
		}
		c.updateObjectLocations(update.ObjectIDs, update.NewHost, stamp)
	case request.LocateRequest != nil:
		host, known := c.GetLocationOfObject(request.LocateRequest.ObjectID)
		response.LocateResponse = &LocateResponse{Known: known, Host: host}
	case request.GetObjectRequest != nil:
		getObject := &GetObjectResponse{}
		if ref, ok := c.Reference(request.GetObjectRequest.ObjectID); ok {
			getObject.Present = true
			getObject.TypeName = ref.TypeName()
			getObject.DisplayName, _ = ref.DisplayName()
		}
		response.GetObjectResponse = getObject
	case request.UnregisterRequest != nil:
		c.UnregisterObject(request.UnregisterRequest.ObjectID)
	case request.ListObjectsRequest != nil:
		response.ListObjectsResponse = &ListObjectsResponse{ObjectIDs: c.GetAllLocalObjectIDs()}
	case request.UIDRequest != nil:
		response.UIDResponse = &UIDResponse{Self: c.self}
	case request.AcceptObjectRequest != nil:
		stamp, err := c.AcceptObject(*request.AcceptObjectRequest)
		if err != nil {
			response.Error = ToWire(err)
			return
		}
		response.AcceptObjectResponse = &AcceptObjectResponse{Stamp: stamp}
	default:
		response.Error = ToWire(NewProtoError("request %s carries no operation", request.RequestID))
	}
	return
}
