package methods

import (
	"encoding/json"
	"fmt"
	"math"
)

func Number(args []interface{}, i int) (n float64, err error) {
	if i >= len(args) {
		err = fmt.Errorf("missing argument %d", i)
		return
	}
	switch v := args[i].(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		n, err = v.Float64()
	default:
		err = fmt.Errorf("argument %d: expected number, got %T", i, args[i])
	}
	return
}

func Int(args []interface{}, i int) (n int64, err error) {
	f, err := Number(args, i)
	if err != nil {
		return
	}
	if f != math.Trunc(f) {
		err = fmt.Errorf("argument %d: %v is not an integer", i, f)
		return
	}
	n = int64(f)
	return
}

func String(args []interface{}, i int) (s string, err error) {
	if i >= len(args) {
		err = fmt.Errorf("missing argument %d", i)
		return
	}
	s, ok := args[i].(string)
	if !ok {
		err = fmt.Errorf("argument %d: expected string, got %T", i, args[i])
	}
	return
}
