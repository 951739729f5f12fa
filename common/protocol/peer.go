package protocol

import (
	"fmt"
	"strings"

	"github.com/satori/go.uuid"
)

// ObjectID names a logical object for its whole lifetime, across
// migrations.
type ObjectID string

func NewObjectID() ObjectID {
	return ObjectID(uuid.NewV4().String())
}

func (id ObjectID) String() string {
	return string(id)
}

// CenterID is a communication center's process-lifetime identifier.
type CenterID uuid.UUID

func NewCenterID() CenterID {
	return CenterID(uuid.NewV4())
}

func ParseCenterID(s string) (id CenterID, err error) {
	u, err := uuid.FromString(s)
	if err != nil {
		return
	}
	id = CenterID(u)
	return
}

func (id CenterID) String() string {
	return uuid.UUID(id).String()
}

func (id CenterID) IsZero() bool {
	return uuid.Equal(uuid.UUID(id), uuid.Nil)
}

func (id CenterID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *CenterID) UnmarshalText(text []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(text)
}

// Peer is an address-like handle to a communication center. Two handles
// denote the same center iff their UIDs agree, whatever the address.
type Peer struct {
	UID     CenterID `json:"uid" yaml:"uid"`
	Address string   `json:"address" yaml:"address"`
}

func (p Peer) Equals(other Peer) bool {
	return p.UID == other.UID
}

func (p Peer) IsZero() bool {
	return p.UID.IsZero()
}

func (p Peer) String() string {
	if p.Address == "" {
		return p.UID.String()
	}
	return fmt.Sprintf("%s@%s", p.UID.String(), p.Address)
}

// ParsePeer reads the "uid@address" form produced by String.
func ParsePeer(s string) (peer Peer, err error) {
	parts := strings.SplitN(s, "@", 2)
	peer.UID, err = ParseCenterID(parts[0])
	if err != nil {
		return
	}
	if len(parts) == 2 {
		peer.Address = parts[1]
	}
	return
}
