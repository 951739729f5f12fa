package methods

// Operation runs one named operation against target. target is always the
// instance the operation was resolved for.
type Operation func(target interface{}, args []interface{}) (result interface{}, err error)

type Spec struct {
	Name      string
	Signature Signature
	Op        Operation
}

// Exposed is the capability every hostable object offers: a stable type
// name and the operations callable on it by name. Operations must return
// the same set for every instance of a type.
type Exposed interface {
	TypeName() string
	Operations() []Spec
}

type Named interface {
	DisplayName() string
}

// Mediator receives change events from the object it is bound to.
type Mediator interface {
	Notify(event string)
}

// Mediated objects report their changes through a mediator bound next to
// them. Binding is a local concern and is never done through a proxy.
type Mediated interface {
	SetMediator(mediator Mediator)
}

// Migratable objects can be rebuilt on another center from a snapshot by
// the Factory registered for their type name.
type Migratable interface {
	Exposed
	Snapshot() (state []byte, err error)
}

type Factory func(state []byte) (object Exposed, err error)
