package world

import (
	"testing"

	"fleetsim/internal/sim/tasks"
)

func TestKindDefs_CoverEveryKind(t *testing.T) {
	for _, k := range tasks.Kinds() {
		if kindDefs[k].update == nil {
			t.Fatalf("%s has no update routine", k)
		}
	}
}

func TestKindDefs_AbortPolicy(t *testing.T) {
	clears := map[tasks.Kind]bool{
		tasks.KindMoveToEntity:   true,
		tasks.KindUseGate:        true,
		tasks.KindRequestAccess:  true,
		tasks.KindAwaitingSignal: true,
		tasks.KindDockAtEntity:   true,
		tasks.KindUndock:         true,
	}
	for _, k := range tasks.Kinds() {
		want := abortContinue
		if clears[k] {
			want = abortClearQueue
		}
		if got := kindDefs[k].abort; got != want {
			t.Fatalf("%s abort policy=%d want %d", k, got, want)
		}
	}
}
