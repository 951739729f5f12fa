package proxy

import (
	"krypt.co/locus/daemon/methods"

	. "krypt.co/locus/common/protocol"
)

// Object is what calling code holds, whether the target lives next to it
// (Reference) or on another center (Proxy).
type Object interface {
	ObjectID() ObjectID
	ExecuteMethod(name string, args []interface{}) (result interface{}, err error)
	DisplayName() (name string, err error)
	RegisterObserver(observer ObjectID) (err error)
	UnregisterObserver(observer ObjectID) (err error)
	SetMediator(mediator methods.Mediator) (err error)
}

// Dispatcher routes an operation to wherever id currently lives. A
// communication center is one.
type Dispatcher interface {
	ExecuteMethodOut(name string, args []interface{}, id ObjectID) (result interface{}, err error)
}

// Same reports whether a and b stand for the same logical object, judged
// by remote identity rather than by which handle the caller holds.
func Same(a, b Object) bool {
	return a.ObjectID() == b.ObjectID()
}

// Equal compares the display names the two objects report for themselves.
func Equal(a, b Object) (equal bool, err error) {
	if Same(a, b) {
		equal = true
		return
	}
	aName, err := a.DisplayName()
	if err != nil {
		return
	}
	bName, err := b.DisplayName()
	if err != nil {
		return
	}
	equal = aName == bName
	return
}
