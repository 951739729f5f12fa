package center

/*
*	A communication center hosts objects, remembers where other objects
*	live, and routes named operations to whichever center hosts the target.
 */

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/op/go-logging"
	"golang.org/x/time/rate"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/persistance"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/daemon/methods"
	"krypt.co/locus/daemon/proxy"

	. "krypt.co/locus/common/protocol"
)

// Entries carry the wall-clock stamp (unix nanos) of the registration
// they reflect so that concurrent registrations resolve the same way on
// every center.
type localEntry struct {
	ref   *proxy.Reference
	stamp int64
}

type remoteEntry struct {
	host  Peer
	stamp int64
}

type Center struct {
	sync.Mutex
	self      Peer
	local     map[ObjectID]localEntry
	remote    *lru.Cache
	peers     map[CenterID]Peer
	factories map[string]methods.Factory
	table     *methods.Table
	transport transport.Transport
	persister persistance.Persister
	limiter   *rate.Limiter
	config    config.Config
	log       *logging.Logger
	now       func() time.Time

	// set while a hint is dropped on purpose, so OnEvicted only counts
	// capacity evictions
	withdrawing bool
}

// NewCenter builds a center answering at cfg's advertised address. A nil
// persister keeps the Peer Set in memory only.
func NewCenter(cfg config.Config, t transport.Transport, persister persistance.Persister, log *logging.Logger) (c *Center, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}
	table, err := methods.NewTable(cfg.MethodTableSize, log)
	if err != nil {
		return
	}
	c = &Center{
		self:      Peer{UID: NewCenterID(), Address: cfg.Advertise()},
		local:     map[ObjectID]localEntry{},
		remote:    lru.New(cfg.LocationCacheSize),
		peers:     map[CenterID]Peer{},
		factories: map[string]methods.Factory{},
		table:     table,
		transport: t,
		persister: persister,
		config:    cfg,
		log:       log,
		now:       time.Now,
	}
	c.remote.OnEvicted = func(key lru.Key, value interface{}) {
		if c.withdrawing {
			return
		}
		c.log.Debug("location hint for", key, "evicted")
		locationUpdates.WithLabelValues("evicted").Inc()
	}
	c.observeTables()
	if cfg.BroadcastRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BroadcastRate), 1)
	}
	return
}

// Self is this center's handle. Its UID is fixed for the process lifetime.
func (c *Center) Self() Peer {
	return c.self
}

func (c *Center) GetUID() CenterID {
	return c.self.UID
}

func (c *Center) Table() *methods.Table {
	return c.table
}

// RegisterLocalObject makes this center the host of id, replacing any
// object already registered under it, and announces the new location to
// every known peer. It returns once every peer has been tried; peers that
// could not be reached keep a stale hint.
func (c *Center) RegisterLocalObject(id ObjectID, object methods.Exposed) (err error) {
	_, err = c.registerLocalObject(id, object, 0, nil)
	return
}

func (c *Center) registerLocalObject(id ObjectID, object methods.Exposed, minStamp int64, observers []ObjectID) (stamp int64, err error) {
	if object == nil {
		err = fmt.Errorf("cannot register nil object as %s", id)
		return
	}
	ref := proxy.NewReference(id, object, c.table, c, c.log)
	for _, observer := range observers {
		ref.RegisterObserver(observer)
	}

	c.Lock()
	stamp = c.nextStamp(id, minStamp)
	c.local[id] = localEntry{ref: ref, stamp: stamp}
	c.withdraw(id)
	c.observeTables()
	peers := c.peerList()
	c.Unlock()

	registrations.Inc()
	c.log.Info("registered", object.TypeName(), id, "at stamp", stamp)
	c.broadcast([]ObjectID{id}, stamp, peers)
	return
}

// nextStamp is later than the current time and than anything this center
// already knows about id, so a local registration always supersedes this
// center's own view even under clock skew.
// Must be called with the lock held.
func (c *Center) nextStamp(id ObjectID, minStamp int64) (stamp int64) {
	stamp = c.now().UnixNano()
	if minStamp >= stamp {
		stamp = minStamp + 1
	}
	if entry, ok := c.local[id]; ok && entry.stamp >= stamp {
		stamp = entry.stamp + 1
	}
	if hint, ok := c.hint(id); ok && hint.stamp >= stamp {
		stamp = hint.stamp + 1
	}
	return
}

// Must be called with the lock held.
func (c *Center) hint(id ObjectID) (entry remoteEntry, ok bool) {
	value, ok := c.remote.Get(id)
	if !ok {
		return
	}
	entry, ok = value.(remoteEntry)
	return
}

// UnregisterObject forgets id entirely. Peers are not told; they find out
// when a dispatch to this center fails.
func (c *Center) UnregisterObject(id ObjectID) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.local[id]; ok {
		c.log.Info("unregistered", id)
	}
	delete(c.local, id)
	c.withdraw(id)
	c.observeTables()
}

// withdraw drops the hint for id without counting it as an eviction.
// Must be called with the lock held.
func (c *Center) withdraw(id ObjectID) {
	c.withdrawing = true
	c.remote.Remove(id)
	c.withdrawing = false
}

// Must be called with the lock held.
func (c *Center) observeTables() {
	uid := c.self.UID.String()
	tableEntries.WithLabelValues(uid, "local").Set(float64(len(c.local)))
	tableEntries.WithLabelValues(uid, "remote").Set(float64(c.remote.Len()))
}

// GetLocationOfObject never touches the network. known is false when
// this center has no entry for id, which does not mean id is gone.
func (c *Center) GetLocationOfObject(id ObjectID) (host Peer, known bool) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.local[id]; ok {
		return c.self, true
	}
	if hint, ok := c.hint(id); ok {
		return hint.host, true
	}
	return
}

func (c *Center) GetObjectByID(id ObjectID) (object methods.Exposed, present bool) {
	ref, present := c.Reference(id)
	if present {
		object = ref.Object()
	}
	return
}

func (c *Center) Reference(id ObjectID) (ref *proxy.Reference, present bool) {
	c.Lock()
	defer c.Unlock()
	entry, present := c.local[id]
	if present {
		ref = entry.ref
	}
	return
}

func (c *Center) GetAllLocalObjectIDs() (ids []ObjectID) {
	c.Lock()
	defer c.Unlock()
	ids = make([]ObjectID, 0, len(c.local))
	for id := range c.local {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return
}

// LocationCacheLen is the number of remote hints currently held.
func (c *Center) LocationCacheLen() int {
	c.Lock()
	defer c.Unlock()
	return c.remote.Len()
}

// UpdateObjectLocations records that ids are now hosted by newHost, as
// of the moment the notification is received.
func (c *Center) UpdateObjectLocations(ids []ObjectID, newHost Peer) {
	c.updateObjectLocations(ids, newHost, 0)
}

// updateObjectLocations applies a location notification stamped with the
// registration it announces. A notification older than what this center
// holds for an id leaves that id untouched.
func (c *Center) updateObjectLocations(ids []ObjectID, newHost Peer, stamp int64) {
	if stamp == 0 {
		stamp = c.now().UnixNano()
	}
	c.Lock()
	defer c.Unlock()
	defer c.observeTables()

	if newHost.Equals(c.self) {
		for _, id := range ids {
			c.withdraw(id)
			locationUpdates.WithLabelValues("withdrawn").Inc()
		}
		return
	}

	for _, id := range ids {
		if entry, ok := c.local[id]; ok {
			if !supersedes(stamp, newHost.UID, entry.stamp, c.self.UID) {
				c.log.Notice("ignoring stale location", newHost.String(), "for local object", id)
				locationUpdates.WithLabelValues("stale").Inc()
				continue
			}
			delete(c.local, id)
			c.log.Info("object", id, "moved to", newHost.String())
		}
		if hint, ok := c.hint(id); ok && !supersedes(stamp, newHost.UID, hint.stamp, hint.host.UID) {
			locationUpdates.WithLabelValues("stale").Inc()
			continue
		}
		c.remote.Add(id, remoteEntry{host: newHost, stamp: stamp})
		locationUpdates.WithLabelValues("applied").Inc()
	}
}

// Equal stamps from different hosts are ordered by host UID so every
// center picks the same winner.
func supersedes(stamp int64, host CenterID, current int64, currentHost CenterID) bool {
	if stamp != current {
		return stamp > current
	}
	if host == currentHost {
		return true
	}
	return host.String() > currentHost.String()
}

// IntroduceNewCommunicationCenter adds peer to the Peer Set. Introducing
// a known peer again changes nothing; a new UID at a known address
// replaces the old one, since that center has restarted.
func (c *Center) IntroduceNewCommunicationCenter(peer Peer) {
	if peer.UID.IsZero() || peer.Equals(c.self) {
		return
	}
	c.Lock()
	if known, ok := c.peers[peer.UID]; ok && known.Address == peer.Address {
		c.Unlock()
		return
	}
	for uid, known := range c.peers {
		if known.Address == peer.Address && peer.Address != "" {
			delete(c.peers, uid)
		}
	}
	c.peers[peer.UID] = peer
	peers := c.peerList()
	c.Unlock()

	c.log.Info("introduced to", peer.String())
	c.savePeers(peers)
}

// Peers is a snapshot of the Peer Set ordered by address.
func (c *Center) Peers() []Peer {
	c.Lock()
	defer c.Unlock()
	return c.peerList()
}

// Must be called with the lock held.
func (c *Center) peerList() (peers []Peer) {
	peers = make([]Peer, 0, len(c.peers))
	for _, peer := range c.peers {
		peers = append(peers, peer)
	}
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].Address != peers[j].Address {
			return peers[i].Address < peers[j].Address
		}
		return peers[i].UID.String() < peers[j].UID.String()
	})
	return
}

func (c *Center) savePeers(peers []Peer) {
	if c.persister == nil {
		return
	}
	err := c.persister.SavePeers(peers)
	if err != nil {
		c.log.Error("error saving peers:", err.Error())
	}
}
