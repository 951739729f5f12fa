package transport

import (
	"encoding/json"
	"fmt"
	"sync"

	. "krypt.co/locus/common/protocol"
)

// Switchboard connects centers living in the same process. Requests and
// responses go through a JSON round trip so co-located peers see exactly
// what a network peer would.
type Switchboard struct {
	sync.Mutex
	handlers    map[CenterID]Handler
	addresses   map[string]CenterID
	partitioned map[CenterID]bool
	calls       map[CenterID]int
}

func NewSwitchboard() *Switchboard {
	return &Switchboard{
		handlers:    map[CenterID]Handler{},
		addresses:   map[string]CenterID{},
		partitioned: map[CenterID]bool{},
		calls:       map[CenterID]int{},
	}
}

func (s *Switchboard) Attach(uid CenterID, handler Handler) {
	s.Lock()
	defer s.Unlock()
	s.handlers[uid] = handler
}

// AttachPeer also makes handler reachable by peer.Address, so callers that
// only know an address (bootstrap, restarted peers) are routed the way a
// network would route them.
func (s *Switchboard) AttachPeer(peer Peer, handler Handler) {
	s.Lock()
	defer s.Unlock()
	s.handlers[peer.UID] = handler
	if peer.Address != "" {
		s.addresses[peer.Address] = peer.UID
	}
}

func (s *Switchboard) Detach(uid CenterID) {
	s.Lock()
	defer s.Unlock()
	delete(s.handlers, uid)
	for address, attached := range s.addresses {
		if attached == uid {
			delete(s.addresses, address)
		}
	}
}

// Partition makes every call to uid fail with a transport error until
// Heal is called.
func (s *Switchboard) Partition(uid CenterID) {
	s.Lock()
	defer s.Unlock()
	s.partitioned[uid] = true
}

func (s *Switchboard) Heal(uid CenterID) {
	s.Lock()
	defer s.Unlock()
	delete(s.partitioned, uid)
}

// Calls is the number of delivery attempts made to uid, failed or not.
func (s *Switchboard) Calls(uid CenterID) int {
	s.Lock()
	defer s.Unlock()
	return s.calls[uid]
}

func (s *Switchboard) Call(peer Peer, request Request) (response Response, err error) {
	s.Lock()
	uid := peer.UID
	if _, attached := s.handlers[uid]; !attached {
		if byAddress, known := s.addresses[peer.Address]; known {
			uid = byAddress
		}
	}
	s.calls[uid]++
	handler, ok := s.handlers[uid]
	partitioned := s.partitioned[uid]
	s.Unlock()

	if !ok {
		err = NewTransportError(peer, fmt.Errorf("no center attached"))
		return
	}
	if partitioned {
		err = NewTransportError(peer, fmt.Errorf("partitioned"))
		return
	}

	var delivered Request
	if err = roundTrip(request, &delivered); err != nil {
		err = WrapProtoError(err)
		return
	}
	reply := handler.Handle(delivered)
	if err = roundTrip(reply, &response); err != nil {
		err = NewTransportError(peer, err)
		return
	}
	return
}

func roundTrip(in interface{}, out interface{}) (err error) {
	encoded, err := json.Marshal(in)
	if err != nil {
		return
	}
	err = json.Unmarshal(encoded, out)
	return
}
