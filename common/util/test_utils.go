package util

import (
	"testing"
	"time"
)

func TrueBefore(t testing.TB, predicate func() bool, deadline time.Time) {
	t.Helper()
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		<-time.After(time.Millisecond)
	}
	t.Fatal("predicate unsatisfied by deadline")
}
