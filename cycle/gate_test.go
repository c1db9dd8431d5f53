package cycle

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBoundedPreservesOrder(t *testing.T) {
	tasks := make([]func() int, 10)
	for i := range tasks {
		tasks[i] = func() int {
			// Later tasks finish first; order must still hold.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i
		}
	}

	results := RunBounded(4, tasks)
	if len(results) != len(tasks) {
		t.Fatalf("got %d results, want %d", len(results), len(tasks))
	}
	for i, r := range results {
		if r != i {
			t.Errorf("result %d: got %d, want %d", i, r, i)
		}
	}
}

func TestRunBoundedLimitsInflight(t *testing.T) {
	var inflight, peak int64

	tasks := make([]func() struct{}, 5)
	for i := range tasks {
		tasks[i] = func() struct{} {
			cur := atomic.AddInt64(&inflight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inflight, -1)
			return struct{}{}
		}
	}

	RunBounded(2, tasks)
	if peak > 2 {
		t.Errorf("observed %d tasks in flight, bound is 2", peak)
	}
}

func TestRunBoundedFailuresDoNotAbortSiblings(t *testing.T) {
	tasks := []func() error{
		func() error { return nil },
		func() error { return errors.New("boom") },
		func() error { return nil },
	}

	results := RunBounded(1, tasks)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0] != nil || results[2] != nil {
		t.Error("sibling tasks must run despite a failure")
	}
	if results[1] == nil {
		t.Error("the failure must be preserved as a value")
	}
}
