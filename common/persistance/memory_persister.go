package persistance

import (
	"fmt"
	"sync"

	. "krypt.co/locus/common/protocol"
)

type MemoryPersister struct {
	sync.Mutex
	peers []Peer
	saves int
}

func (mp *MemoryPersister) SavePeers(peers []Peer) (err error) {
	mp.Lock()
	defer mp.Unlock()
	mp.peers = append([]Peer{}, peers...)
	mp.saves++
	return
}

func (mp *MemoryPersister) LoadPeers() (peers []Peer, err error) {
	mp.Lock()
	defer mp.Unlock()
	if mp.peers == nil {
		err = fmt.Errorf("no peers saved")
		return
	}
	peers = append([]Peer{}, mp.peers...)
	return
}

func (mp *MemoryPersister) DeletePeers() (err error) {
	mp.Lock()
	defer mp.Unlock()
	mp.peers = nil
	return
}

func (mp *MemoryPersister) Saves() int {
	mp.Lock()
	defer mp.Unlock()
	return mp.saves
}
