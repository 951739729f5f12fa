package persistance

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/youtube/vitess/go/ioutil2"

	. "krypt.co/locus/common/protocol"
)

type FilePersister struct {
	Dir string
}

func (fp FilePersister) SavePeers(peers []Peer) (err error) {
	path := filepath.Join(fp.Dir, PEERS_FILENAME)
	peersJson, err := json.Marshal(peersToPersisted(peers))
	if err != nil {
		return
	}
	err = ioutil2.WriteFileAtomic(path, peersJson, os.FileMode(0600))
	return
}

func (fp FilePersister) LoadPeers() (peers []Peer, err error) {
	path := filepath.Join(fp.Dir, PEERS_FILENAME)
	peersJson, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	var pp persistedPeers
	err = json.Unmarshal(peersJson, &pp)
	if err != nil {
		return
	}
	peers = peersFromPersisted(&pp)
	return
}

func (fp FilePersister) DeletePeers() (err error) {
	path := filepath.Join(fp.Dir, PEERS_FILENAME)
	err = os.Remove(path)
	if os.IsNotExist(err) {
		err = nil
	}
	return
}
