package objects

import (
	"encoding/json"
	"sync"

	"krypt.co/locus/daemon/methods"
)

type Counter struct {
	mediated
	sync.Mutex
	name  string
	value int64
}

type counterState struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func NewCounter(name string, value int64) *Counter {
	return &Counter{name: name, value: value}
}

func RestoreCounter(state []byte) (object methods.Exposed, err error) {
	var s counterState
	err = json.Unmarshal(state, &s)
	if err != nil {
		return
	}
	object = NewCounter(s.Name, s.Value)
	return
}

func (c *Counter) TypeName() string {
	return COUNTER_TYPE
}

func (c *Counter) DisplayName() string {
	c.Lock()
	defer c.Unlock()
	if c.name == "" {
		return "counter"
	}
	return c.name
}

func (c *Counter) Value() int64 {
	c.Lock()
	defer c.Unlock()
	return c.value
}

func (c *Counter) Snapshot() (state []byte, err error) {
	c.Lock()
	defer c.Unlock()
	return json.Marshal(counterState{Name: c.name, Value: c.value})
}

func (c *Counter) Set(value int64) {
	c.Lock()
	c.value = value
	c.Unlock()
	c.notify("set %d", value)
}

func (c *Counter) Add(delta int64) (value int64) {
	c.Lock()
	c.value += delta
	value = c.value
	c.Unlock()
	c.notify("add %d = %d", delta, value)
	return
}

// Results are float64, the type a number has once it crosses the wire, so
// callers see the same value whether the counter is local or remote.
func (c *Counter) Operations() []methods.Spec {
	return []methods.Spec{
		{Name: "get", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return float64(target.(*Counter).Value()), nil
		}},
		{Name: "set", Signature: methods.Sig(methods.KindNumber), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			n, err := methods.Int(args, 0)
			if err != nil {
				return nil, err
			}
			target.(*Counter).Set(n)
			return float64(n), nil
		}},
		{Name: "add", Signature: methods.Sig(methods.KindNumber), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			n, err := methods.Int(args, 0)
			if err != nil {
				return nil, err
			}
			return float64(target.(*Counter).Add(n)), nil
		}},
		{Name: "add", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return float64(target.(*Counter).Add(1)), nil
		}},
		{Name: "reset", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			target.(*Counter).Set(0)
			return float64(0), nil
		}},
	}
}
