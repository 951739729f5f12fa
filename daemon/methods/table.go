package methods

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	. "krypt.co/locus/common/protocol"
)

const DEFAULT_TABLE_SIZE = 512

var (
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_method_table_resolutions_total",
		Help: "Method table lookups by outcome (hit, miss, unknown)",
	}, []string{"outcome"})
)

// Table caches the resolution of (type, operation, argument signature) to
// an Operation. Type indexes are built on first use of a type and
// resolutions are memoized in a bounded LRU; losing either only costs a
// lookup.
type Table struct {
	types sync.Map // type name -> map[string][]Spec
	memo  *lru.Cache
	log   *logging.Logger
}

func NewTable(size int, log *logging.Logger) (table *Table, err error) {
	if size <= 0 {
		size = DEFAULT_TABLE_SIZE
	}
	memo, err := lru.New(size)
	if err != nil {
		return
	}
	table = &Table{
		memo: memo,
		log:  log,
	}
	return
}

type memoKey struct {
	typeName  string
	operation string
	signature string
}

func (t *Table) index(target Exposed) map[string][]Spec {
	typeName := target.TypeName()
	if index, ok := t.types.Load(typeName); ok {
		return index.(map[string][]Spec)
	}
	index := map[string][]Spec{}
	for _, spec := range target.Operations() {
		index[spec.Name] = append(index[spec.Name], spec)
	}
	//	concurrent builders produce equal indexes; keep whichever landed first
	actual, _ := t.types.LoadOrStore(typeName, index)
	return actual.(map[string][]Spec)
}

// Resolve finds the operation called name whose signature accepts args.
func (t *Table) Resolve(target Exposed, name string, args []interface{}) (op Operation, err error) {
	key := memoKey{target.TypeName(), name, SignatureOf(args).String()}
	if cached, ok := t.memo.Get(key); ok {
		resolutions.WithLabelValues("hit").Inc()
		op = cached.(Operation)
		return
	}
	for _, spec := range t.index(target)[name] {
		if spec.Signature.Accepts(args) {
			resolutions.WithLabelValues("miss").Inc()
			t.memo.Add(key, spec.Op)
			op = spec.Op
			return
		}
	}
	resolutions.WithLabelValues("unknown").Inc()
	err = &NoSuchOperationError{
		TypeName:  key.typeName,
		Operation: name,
		Signature: key.signature,
	}
	return
}

// Invoke resolves and runs name on target. Faults raised by the operation,
// panics included, come back as an InvocationError naming id.
func (t *Table) Invoke(id ObjectID, target Exposed, name string, args []interface{}) (result interface{}, err error) {
	op, err := t.Resolve(target, name, args)
	if err != nil {
		return
	}
	defer func() {
		if x := recover(); x != nil {
			err = &InvocationError{ObjectID: id, Operation: name, Cause: fmt.Errorf("panic: %v", x)}
			if t.log != nil {
				t.log.Error("operation panicked:", err)
			}
		}
	}()
	result, err = op(target, args)
	if err != nil {
		err = &InvocationError{ObjectID: id, Operation: name, Cause: err}
	}
	return
}

// Len is the number of memoized resolutions.
func (t *Table) Len() int {
	return t.memo.Len()
}

// Purge drops every memoized resolution and type index.
func (t *Table) Purge() {
	t.memo.Purge()
	t.types.Range(func(key, _ interface{}) bool {
		t.types.Delete(key)
		return true
	})
}
