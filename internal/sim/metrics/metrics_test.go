package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	fams, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range fams {
		if f.GetName() != name {
			continue
		}
	next:
		for _, mt := range f.GetMetric() {
			for _, lp := range mt.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if c := mt.GetCounter(); c != nil {
				return c.GetValue()
			}
			return mt.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetrics_WriteTick(t *testing.T) {
	m := New("fleetsim")
	var drops uint64 = 3
	m.WatchIndexDrops("fleetsim", func() uint64 { return drops })

	entry := world.TickLogEntry{
		Tick: 1,
		Events: []world.TaskEvent{
			{Phase: world.PhaseStarted, Ship: "S1", Kind: tasks.KindMineAsteroid},
			{Phase: world.PhaseCompleted, Ship: "S2", Kind: tasks.KindMoveToEntity, Outcome: world.Aborted, Dropped: 2},
		},
		Cancels: []world.CancelResult{{Applied: true}, {Reason: "not queued"}, {Reason: "ship gone"}},
		Signals: 1,
		Active:  map[tasks.Kind]int{tasks.KindMineAsteroid: 1},
		StepMS:  0.4,
	}
	if err := m.WriteTick(entry); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}

	if v := counterValue(t, m, "fleetsim_task_events_total", map[string]string{"kind": "MOVE_TO_ENTITY", "phase": "COMPLETED", "outcome": "ABORTED"}); v != 1 {
		t.Fatalf("aborted moves=%v want 1", v)
	}
	if v := counterValue(t, m, "fleetsim_tasks_dropped_total", nil); v != 2 {
		t.Fatalf("dropped=%v want 2", v)
	}
	if v := counterValue(t, m, "fleetsim_cancels_total", map[string]string{"result": "refused"}); v != 2 {
		t.Fatalf("refused cancels=%v want 2", v)
	}
	if v := counterValue(t, m, "fleetsim_active_tasks", map[string]string{"kind": "MINE_ASTEROID"}); v != 1 {
		t.Fatalf("active mining=%v want 1", v)
	}
	if v := counterValue(t, m, "fleetsim_index_dropped_ticks_total", nil); v != 3 {
		t.Fatalf("index drops=%v want 3", v)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "fleetsim_signals_total 1") {
		t.Fatalf("metrics body missing signals:\n%s", body)
	}
}
