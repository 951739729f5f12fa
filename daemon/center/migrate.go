package center

import (
	"fmt"

	"krypt.co/locus/common/transport"
	"krypt.co/locus/daemon/methods"

	. "krypt.co/locus/common/protocol"
)

// RegisterFactory lets this center accept migrating objects of typeName.
func (c *Center) RegisterFactory(typeName string, factory methods.Factory) {
	c.Lock()
	defer c.Unlock()
	c.factories[typeName] = factory
}

// Migrate moves the object hosted here under id to dest. dest rebuilds
// it from a snapshot and registers it, which announces the move to its
// own peers; this center then records dest as the host. Nothing is
// locked across the handover, so calls that reach this center in between
// still run against the old instance.
func (c *Center) Migrate(id ObjectID, dest Peer) (err error) {
	defer func() {
		if err != nil {
			c.log.Error("migrating", id, "to", dest.String(), "failed:", err)
			migrations.WithLabelValues("failed").Inc()
		}
	}()
	c.Lock()
	entry, ok := c.local[id]
	c.Unlock()
	if !ok {
		err = &UnknownLocalObjectError{ObjectID: id}
		return
	}
	migratable, ok := entry.ref.Object().(methods.Migratable)
	if !ok {
		err = fmt.Errorf("%s objects cannot migrate", entry.ref.TypeName())
		return
	}

	if dest.UID.IsZero() {
		dest, err = c.resolve(dest.Address)
		if err != nil {
			return
		}
	}
	if dest.Equals(c.self) {
		return
	}

	state, err := migratable.Snapshot()
	if err != nil {
		return
	}
	request, err := c.newRequest()
	if err != nil {
		return
	}
	request.AcceptObjectRequest = &AcceptObjectRequest{
		ObjectID:  id,
		TypeName:  migratable.TypeName(),
		State:     state,
		Stamp:     entry.stamp,
		Observers: entry.ref.Observers(),
	}
	response, attempts, err := transport.CallWithRetry(c.transport, dest, request, c.config.Dispatch, c.log)
	if err != nil {
		if IsRetryable(err) {
			err = &RemoteDispatchError{ObjectID: id, Peer: dest, Attempts: attempts, Cause: err}
		}
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
		return
	}
	var stamp int64
	if response.AcceptObjectResponse != nil {
		stamp = response.AcceptObjectResponse.Stamp
	}
	c.updateObjectLocations([]ObjectID{id}, dest, stamp)
	c.log.Notice("migrated", id, "to", dest.String())
	migrations.WithLabelValues("ok").Inc()
	return
}

// AcceptObject rebuilds a migrating object with the factory registered
// for typeName and registers it here like any new local object.
func (c *Center) AcceptObject(accept AcceptObjectRequest) (stamp int64, err error) {
	c.Lock()
	factory, ok := c.factories[accept.TypeName]
	c.Unlock()
	if !ok {
		err = fmt.Errorf("no factory for %s objects", accept.TypeName)
		c.log.Error("accepting", accept.ObjectID, "failed:", err)
		return
	}
	object, err := factory(accept.State)
	if err != nil {
		c.log.Error("rebuilding", accept.TypeName, accept.ObjectID, "failed:", err)
		return
	}
	return c.registerLocalObject(accept.ObjectID, object, accept.Stamp, accept.Observers)
}
