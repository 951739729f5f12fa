package util

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRand128Base62Unique(t *testing.T) {
	a, err := Rand128Base62()
	require.NoError(t, err)
	b, err := Rand128Base62()
	require.NoError(t, err)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestRecoverToLog(t *testing.T) {
	var ran int32
	assert.NotPanics(t, func() {
		RecoverToLog(func() {
			atomic.StoreInt32(&ran, 1)
			panic(errors.New("boom"))
		}, logging.MustGetLogger("test"))
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestTrueBefore(t *testing.T) {
	start := time.Now()
	TrueBefore(t, func() bool {
		return time.Since(start) > 5*time.Millisecond
	}, time.Now().Add(time.Second))
}
