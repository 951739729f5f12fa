package objects

import (
	"fmt"
	"sort"
	"sync"

	"krypt.co/locus/daemon/methods"
)

const (
	COUNTER_TYPE = "locus.counter"
	NOTE_TYPE    = "locus.note"
)

// mediated holds the mediator a Reference binds next to the object.
type mediated struct {
	mediatorMu sync.Mutex
	mediator   methods.Mediator
}

func (m *mediated) SetMediator(mediator methods.Mediator) {
	m.mediatorMu.Lock()
	defer m.mediatorMu.Unlock()
	m.mediator = mediator
}

func (m *mediated) notify(format string, args ...interface{}) {
	m.mediatorMu.Lock()
	mediator := m.mediator
	m.mediatorMu.Unlock()
	if mediator != nil {
		mediator.Notify(fmt.Sprintf(format, args...))
	}
}

// Factories rebuilds built-in objects from their snapshots, keyed by type
// name. A center accepting migrations registers all of them.
func Factories() map[string]methods.Factory {
	return map[string]methods.Factory{
		COUNTER_TYPE: RestoreCounter,
		NOTE_TYPE:    RestoreNote,
	}
}

// New creates a fresh built-in object of typeName named name.
func New(typeName string, name string) (object methods.Migratable, err error) {
	switch typeName {
	case COUNTER_TYPE, "counter":
		object = NewCounter(name, 0)
	case NOTE_TYPE, "note":
		object = NewNote(name, "")
	default:
		err = fmt.Errorf("unknown object type %q, expected one of %v", typeName, Types())
	}
	return
}

func Types() (types []string) {
	for typeName := range Factories() {
		types = append(types, typeName)
	}
	sort.Strings(types)
	return
}
