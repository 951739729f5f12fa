package methods

import (
	"errors"
	"sync"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "krypt.co/locus/common/protocol"
)

type calculator struct {
	mu        sync.Mutex
	total     float64
	opsCalled int
}

func (c *calculator) TypeName() string { return "test.calculator" }

func (c *calculator) Operations() []Spec {
	c.mu.Lock()
	c.opsCalled++
	c.mu.Unlock()
	return []Spec{
		{Name: "add", Signature: Sig(KindNumber), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			n, err := Number(args, 0)
			if err != nil {
				return nil, err
			}
			calc := target.(*calculator)
			calc.total += n
			return calc.total, nil
		}},
		{Name: "add", Signature: Sig(KindString), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			s, _ := String(args, 0)
			return "added " + s, nil
		}},
		{Name: "fail", Signature: Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return nil, errors.New("always fails")
		}},
		{Name: "panic", Signature: Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			panic("unexpected")
		}},
		{Name: "echo", Signature: Sig(KindAny), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return args[0], nil
		}},
	}
}

func newTestTable(t *testing.T, size int) *Table {
	table, err := NewTable(size, logging.MustGetLogger("test"))
	require.NoError(t, err)
	return table
}

func TestResolveBySignature(t *testing.T) {
	table := newTestTable(t, 0)
	calc := &calculator{}

	result, err := table.Invoke("c1", calc, "add", []interface{}{2})
	require.NoError(t, err)
	assert.Equal(t, float64(2), result)

	result, err = table.Invoke("c1", calc, "add", []interface{}{"x"})
	require.NoError(t, err)
	assert.Equal(t, "added x", result)

	result, err = table.Invoke("c1", calc, "echo", []interface{}{map[string]interface{}{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"k": "v"}, result)
}

func TestResolutionIsMemoized(t *testing.T) {
	table := newTestTable(t, 0)
	calc := &calculator{}
	for i := 0; i < 5; i++ {
		_, err := table.Invoke("c1", calc, "add", []interface{}{1.5})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, calc.opsCalled)
	assert.Equal(t, 7.5, calc.total)

	//	a second instance of the same type reuses the index
	other := &calculator{}
	_, err := table.Invoke("c2", other, "add", []interface{}{"y"})
	require.NoError(t, err)
	assert.Equal(t, 0, other.opsCalled)

	table.Purge()
	assert.Equal(t, 0, table.Len())
	_, err = table.Invoke("c2", other, "add", []interface{}{1})
	require.NoError(t, err)
	assert.Equal(t, 1, other.opsCalled)
}

func TestUnknownOperation(t *testing.T) {
	table := newTestTable(t, 0)
	_, err := table.Invoke("c1", &calculator{}, "add", []interface{}{true})
	var noSuchOp *NoSuchOperationError
	require.True(t, errors.As(err, &noSuchOp))
	assert.Equal(t, "test.calculator", noSuchOp.TypeName)
	assert.Equal(t, "bool", noSuchOp.Signature)

	_, err = table.Invoke("c1", &calculator{}, "missing", nil)
	require.True(t, errors.As(err, &noSuchOp))
	assert.False(t, IsRetryable(err))
}

func TestInvocationFaultsAreWrapped(t *testing.T) {
	table := newTestTable(t, 0)
	_, err := table.Invoke("c9", &calculator{}, "fail", nil)
	var invocationErr *InvocationError
	require.True(t, errors.As(err, &invocationErr))
	assert.Equal(t, ObjectID("c9"), invocationErr.ObjectID)
	assert.Equal(t, "always fails", invocationErr.Cause.Error())

	_, err = table.Invoke("c9", &calculator{}, "panic", nil)
	require.True(t, errors.As(err, &invocationErr))
	assert.Contains(t, invocationErr.Cause.Error(), "unexpected")
}

func TestBoundedMemo(t *testing.T) {
	table := newTestTable(t, 2)
	calc := &calculator{}
	for _, args := range [][]interface{}{{1}, {"a"}, {nil}} {
		table.Invoke("c1", calc, "echo", args)
		table.Invoke("c1", calc, "add", args)
	}
	assert.True(t, table.Len() <= 2)
}

func TestConcurrentResolve(t *testing.T) {
	table := newTestTable(t, 0)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := table.Resolve(&calculator{}, "add", []interface{}{1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, table.Len())
}

func TestSignatureAccepts(t *testing.T) {
	assert.True(t, Sig(KindList).Accepts([]interface{}{nil}))
	assert.True(t, Sig(KindAny, KindNumber).Accepts([]interface{}{"x", 3}))
	assert.False(t, Sig(KindNumber).Accepts([]interface{}{}))
	assert.False(t, Sig(KindString).Accepts([]interface{}{nil}))
	assert.Equal(t, "number,string,list", SignatureOf([]interface{}{1, "s", []interface{}{}}).String())
}

func TestArgHelpers(t *testing.T) {
	n, err := Int([]interface{}{float64(4)}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = Int([]interface{}{4.5}, 0)
	assert.Error(t, err)
	_, err = Number([]interface{}{"4"}, 0)
	assert.Error(t, err)
	_, err = String(nil, 0)
	assert.Error(t, err)
}
