package methods

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the shape of an argument as it survives a JSON round trip.
type Kind int

const (
	KindAny Kind = iota
	KindNil
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

var kindNames = map[Kind]string{
	KindAny:    "any",
	KindNil:    "nil",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf classifies v. Values that are none of the JSON shapes classify as
// KindAny and only match KindAny parameters.
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case nil:
		return KindNil
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return KindNumber
	case string:
		return KindString
	case []interface{}, []string, []float64, []int:
		return KindList
	case map[string]interface{}, map[string]string:
		return KindMap
	}
	return KindAny
}

type Signature []Kind

func Sig(kinds ...Kind) Signature {
	return Signature(kinds)
}

func SignatureOf(args []interface{}) (sig Signature) {
	sig = make(Signature, len(args))
	for i, arg := range args {
		sig[i] = KindOf(arg)
	}
	return
}

func (s Signature) String() string {
	names := make([]string, len(s))
	for i, k := range s {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

// Accepts reports whether args fit s. A KindAny parameter takes anything;
// nil is accepted wherever a list or map is expected.
func (s Signature) Accepts(args []interface{}) bool {
	if len(s) != len(args) {
		return false
	}
	for i, param := range s {
		if param == KindAny {
			continue
		}
		kind := KindOf(args[i])
		if kind == param {
			continue
		}
		if kind == KindNil && (param == KindList || param == KindMap) {
			continue
		}
		return false
	}
	return true
}
