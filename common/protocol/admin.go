package protocol

//	Requests below are only served on the daemon's admin socket. They are
//	host-internal: peers never see them.

type CreateObjectRequest struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	//	Generated when empty.
	ObjectID ObjectID `json:"object_id,omitempty"`
}

type CreateObjectResponse struct {
	ObjectID ObjectID `json:"object_id"`
	Host     Peer     `json:"host"`
}

// InvokeRequest runs an operation wherever the daemon believes the object
// lives (executeMethodOut), not only on objects it hosts.
type InvokeRequest struct {
	ObjectID  ObjectID      `json:"object_id"`
	Operation string        `json:"operation"`
	Args      []interface{} `json:"args"`
}

// Destination is either "uid@address" or a bare address.
type MigrateRequest struct {
	ObjectID    ObjectID `json:"object_id"`
	Destination string   `json:"destination"`
}

type JoinRequest struct {
	Address string `json:"address"`
}

type ObjectInfo struct {
	ObjectID    ObjectID `json:"object_id"`
	TypeName    string   `json:"type_name"`
	DisplayName string   `json:"display_name"`
}

// ParseDestination accepts what MigrateRequest.Destination does.
func ParseDestination(destination string) (peer Peer, err error) {
	peer, err = ParsePeer(destination)
	if err != nil {
		peer = Peer{Address: destination}
		err = nil
	}
	return
}
