package log

import (
	"testing"
	"time"

	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world"
)

func TestEventLogger_RoundTripAndRotation(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	clock := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	rec := tasks.ToRecord(&tasks.ExchangeWares{Target: "ST", Item: "ORE", Amount: 5, Sell: true, Transferred: 5})
	entries := []world.TickLogEntry{
		{Tick: 1, World: "w", At: 100, Events: []world.TaskEvent{
			{Phase: world.PhaseStarted, Ship: "S1", TaskID: 1, Kind: tasks.KindExchangeWares, At: 100},
		}},
		{Tick: 2, World: "w", At: 200},
		{Tick: 3, World: "w", At: 300, Events: []world.TaskEvent{
			{Phase: world.PhaseCompleted, Ship: "S1", TaskID: 1, Kind: tasks.KindExchangeWares, Outcome: world.Finished, At: 300, Record: &rec},
		}, Active: map[tasks.Kind]int{tasks.KindMoveToEntity: 2}},
	}
	for i, e := range entries {
		if i == 2 {
			clock = clock.Add(2 * time.Minute)
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := EventFiles(dir)
	if err != nil {
		t.Fatalf("EventFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want one per hour", files)
	}

	var got []world.TickLogEntry
	for _, f := range files {
		if err := ReadEvents(f, func(e world.TickLogEntry) error {
			got = append(got, e)
			return nil
		}); err != nil {
			t.Fatalf("ReadEvents: %v", err)
		}
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d want 2 (empty tick skipped)", len(got))
	}
	if got[0].Tick != 1 || got[1].Tick != 3 {
		t.Fatalf("ticks=%d,%d want 1,3", got[0].Tick, got[1].Tick)
	}
	ev := got[1].Events[0]
	if ev.Outcome != world.Finished || ev.Kind != tasks.KindExchangeWares || ev.TaskID != 1 {
		t.Fatalf("event=%+v", ev)
	}
	if ev.Record == nil || ev.Record.Transferred != 5 {
		t.Fatalf("record=%+v", ev.Record)
	}
	if got[1].Active[tasks.KindMoveToEntity] != 2 {
		t.Fatalf("active=%v", got[1].Active)
	}
}
