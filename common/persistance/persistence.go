package persistance

import (
	. "krypt.co/locus/common/protocol"
)

const PEERS_FILENAME = "peers.json"

// Persister keeps the Peer Set across daemon restarts. Peer UIDs are only
// valid for a peer's process lifetime, so callers re-resolve them by
// address after loading.
type Persister interface {
	SavePeers(peers []Peer) (err error)
	LoadPeers() (peers []Peer, err error)
	DeletePeers() (err error)
}

type persistedPeers struct {
	Peers []persistedPeer `json:"peers"`
}

type persistedPeer struct {
	UID     string `json:"uid"`
	Address string `json:"address"`
}

func peersToPersisted(peers []Peer) (pp persistedPeers) {
	for _, peer := range peers {
		pp.Peers = append(pp.Peers, persistedPeer{
			UID:     peer.UID.String(),
			Address: peer.Address,
		})
	}
	return
}

func peersFromPersisted(pp *persistedPeers) (peers []Peer) {
	for _, p := range pp.Peers {
		peer := Peer{Address: p.Address}
		if uid, err := ParseCenterID(p.UID); err == nil {
			peer.UID = uid
		}
		peers = append(peers, peer)
	}
	return
}
