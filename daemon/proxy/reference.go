package proxy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/op/go-logging"

	"krypt.co/locus/common/util"
	"krypt.co/locus/daemon/methods"

	. "krypt.co/locus/common/protocol"
)

// Reference binds exactly one local object and answers named operations on
// it. It does no retrying and knows nothing about locations; observers are
// reached through the dispatcher it was given.
type Reference struct {
	sync.Mutex
	id         ObjectID
	object     methods.Exposed
	table      *methods.Table
	dispatcher Dispatcher
	observers  map[ObjectID]bool
	log        *logging.Logger
}

func NewReference(id ObjectID, object methods.Exposed, table *methods.Table, dispatcher Dispatcher, log *logging.Logger) *Reference {
	ref := &Reference{
		id:         id,
		object:     object,
		table:      table,
		dispatcher: dispatcher,
		observers:  map[ObjectID]bool{},
		log:        log,
	}
	if mediated, ok := object.(methods.Mediated); ok {
		mediated.SetMediator(ref)
	}
	return ref
}

func (r *Reference) ObjectID() ObjectID {
	return r.id
}

// Object is the wrapped instance. Only the owning center hands it out.
func (r *Reference) Object() methods.Exposed {
	return r.object
}

func (r *Reference) TypeName() string {
	return r.object.TypeName()
}

func (r *Reference) ExecuteMethod(name string, args []interface{}) (result interface{}, err error) {
	switch name {
	case OP_DISPLAY_NAME:
		return r.DisplayName()
	case OP_OBJECT_ID:
		return string(r.id), nil
	case OP_REGISTER_OBSERVER, OP_UNREGISTER_OBSERVER:
		observer, argErr := methods.String(args, 0)
		if argErr != nil {
			err = &NoSuchOperationError{TypeName: r.TypeName(), Operation: name, Signature: methods.SignatureOf(args).String()}
			return
		}
		if name == OP_REGISTER_OBSERVER {
			err = r.RegisterObserver(ObjectID(observer))
		} else {
			err = r.UnregisterObserver(ObjectID(observer))
		}
		return
	case OP_SET_MEDIATOR:
		err = &ForbiddenError{Operation: name}
		return
	}
	return r.table.Invoke(r.id, r.object, name, args)
}

func (r *Reference) DisplayName() (name string, err error) {
	if named, ok := r.object.(methods.Named); ok {
		name = named.DisplayName()
		return
	}
	name = fmt.Sprintf("%s:%s", r.object.TypeName(), r.id)
	return
}

func (r *Reference) RegisterObserver(observer ObjectID) (err error) {
	r.Lock()
	defer r.Unlock()
	r.observers[observer] = true
	return
}

func (r *Reference) UnregisterObserver(observer ObjectID) (err error) {
	r.Lock()
	defer r.Unlock()
	delete(r.observers, observer)
	return
}

func (r *Reference) Observers() (observers []ObjectID) {
	r.Lock()
	defer r.Unlock()
	for observer := range r.observers {
		observers = append(observers, observer)
	}
	sort.Slice(observers, func(i, j int) bool { return observers[i] < observers[j] })
	return
}

// SetMediator rebinds the object's mediator. Done next to the object this
// is allowed; the Proxy refuses it.
func (r *Reference) SetMediator(mediator methods.Mediator) (err error) {
	mediated, ok := r.object.(methods.Mediated)
	if !ok {
		err = fmt.Errorf("%s does not accept a mediator", r.object.TypeName())
		return
	}
	mediated.SetMediator(mediator)
	return
}

// Notify forwards event to every observer without blocking the caller.
// Delivery failures are logged and dropped.
func (r *Reference) Notify(event string) {
	observers := r.Observers()
	if len(observers) == 0 || r.dispatcher == nil {
		return
	}
	for _, observer := range observers {
		observer := observer
		go util.RecoverToLog(func() {
			_, err := r.dispatcher.ExecuteMethodOut(OP_OBSERVE_EVENT, []interface{}{event, string(r.id)}, observer)
			if err != nil && r.log != nil {
				r.log.Error("notifying observer", observer, "of", r.id, "failed:", err)
			}
		}, r.log)
	}
}
