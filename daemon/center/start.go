package center

import (
	"fmt"

	"krypt.co/locus/common/transport"

	. "krypt.co/locus/common/protocol"
)

// Start rejoins the peers saved by a previous run and the configured
// bootstrap peers. Peers that cannot be reached are logged and left out;
// they can introduce themselves later.
func (c *Center) Start() (err error) {
	var addresses []string
	seen := map[string]bool{}
	if c.persister != nil {
		saved, loadErr := c.persister.LoadPeers()
		if loadErr != nil {
			c.log.Debug("no saved peers:", loadErr)
		}
		for _, peer := range saved {
			if !seen[peer.Address] {
				seen[peer.Address] = true
				addresses = append(addresses, peer.Address)
			}
		}
	}
	for _, address := range c.config.BootstrapPeers {
		if !seen[address] {
			seen[address] = true
			addresses = append(addresses, address)
		}
	}
	for _, address := range addresses {
		if address == c.self.Address {
			continue
		}
		if _, joinErr := c.Join(address); joinErr != nil {
			c.log.Warning("could not join", address+":", joinErr)
		}
	}
	return
}

// Join asks the center at address for its UID, adds it to the Peer Set
// and introduces this center to it, so registrations flow both ways.
func (c *Center) Join(address string) (peer Peer, err error) {
	peer, err = c.resolve(address)
	if err != nil {
		return
	}
	c.IntroduceNewCommunicationCenter(peer)

	request, err := c.newRequest()
	if err != nil {
		return
	}
	request.IntroduceRequest = &IntroduceRequest{Peer: c.self}
	response, _, err := transport.CallWithRetry(c.transport, peer, request, c.config.Dispatch, c.log)
	if err == nil && response.Error != nil {
		err = response.Error.Err()
	}
	return
}

func (c *Center) resolve(address string) (peer Peer, err error) {
	request, err := c.newRequest()
	if err != nil {
		return
	}
	request.UIDRequest = &UIDRequest{}
	response, _, err := transport.CallWithRetry(c.transport, Peer{Address: address}, request, c.config.Dispatch, c.log)
	if err != nil {
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
		return
	}
	if response.UIDResponse == nil || response.UIDResponse.Self.UID.IsZero() {
		err = NewProtoError("center at %s did not report a uid", address)
		return
	}
	peer = response.UIDResponse.Self
	if peer.Address == "" {
		peer.Address = address
	}
	return
}

func (c *Center) String() string {
	return fmt.Sprintf("center %s", c.self.String())
}
