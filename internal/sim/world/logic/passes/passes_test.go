package passes

import (
	"sort"
	"sync/atomic"
	"testing"
)

func TestRun_EachItemContributesOnce(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}
	var calls atomic.Int64
	out := Run(items, 8, func(v int) (int, bool) {
		calls.Add(1)
		return v, v%3 == 0
	})
	if calls.Load() != int64(len(items)) {
		t.Fatalf("fn called %d times, want %d", calls.Load(), len(items))
	}
	sort.Ints(out)
	if len(out) != 334 {
		t.Fatalf("got %d results, want 334", len(out))
	}
	for i, v := range out {
		if v != i*3 {
			t.Fatalf("result %d = %d, want %d (duplicate or dropped)", i, v, i*3)
		}
	}
}

func TestRun_SmallInputsAndWorkerBounds(t *testing.T) {
	if got := Run[int, int](nil, 4, func(v int) (int, bool) { return v, true }); got != nil {
		t.Fatalf("nil input produced %v", got)
	}
	got := Run([]int{1, 2}, 0, func(v int) (int, bool) { return v * 10, true })
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("sequential fallback got %v", got)
	}
	got = Run([]int{1, 2, 3}, 16, func(v int) (int, bool) { return v, false })
	if got != nil {
		t.Fatalf("no outputs expected, got %v", got)
	}
}
