package worldtest

import (
	"testing"

	"github.com/paulmach/orb"

	"fleetsim/internal/sim/route"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/tuning"
	world "fleetsim/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Add* helpers build the scene and fail the test on bad input
// - Step()/StepWith() advance one tick via StepOnce() and keep its log entry
// - Events()/ActiveKind() read back what happened
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	Log []world.TickLogEntry
}

// Tuning is the default tuning with strict invariants and a parallel pass pool.
func Tuning() tuning.Tuning {
	tu := tuning.Defaults()
	tu.Workers = 4
	tu.StrictInvariants = true
	return tu
}

func NewHarness(t *testing.T, cfg world.WorldConfig) *Harness {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "test"
	}
	if cfg.Tuning == (tuning.Tuning{}) {
		cfg.Tuning = Tuning()
	}
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w}
}

func At(sector string, x, y float64) world.Location {
	return world.Location{Sector: route.SectorID(sector), Pos: orb.Point{x, y}}
}

func (h *Harness) AddShip(spec world.ShipSpec) {
	h.T.Helper()
	if spec.Speed == 0 {
		spec.Speed = 100
	}
	if err := h.W.AddShip(spec); err != nil {
		h.T.Fatalf("AddShip(%s): %v", spec.ID, err)
	}
}

func (h *Harness) AddStation(spec world.StationSpec) {
	h.T.Helper()
	if spec.Bays == 0 {
		spec.Bays = 1
	}
	if err := h.W.AddStation(spec); err != nil {
		h.T.Fatalf("AddStation(%s): %v", spec.ID, err)
	}
}

func (h *Harness) AddAsteroid(a world.Asteroid) {
	h.T.Helper()
	if err := h.W.AddAsteroid(a); err != nil {
		h.T.Fatalf("AddAsteroid(%s): %v", a.ID, err)
	}
}

func (h *Harness) AddGasCloud(c world.GasCloud) {
	h.T.Helper()
	if err := h.W.AddGasCloud(c); err != nil {
		h.T.Fatalf("AddGasCloud(%s): %v", c.ID, err)
	}
}

func (h *Harness) AddGatePair(a, b world.Gate) {
	h.T.Helper()
	if err := h.W.AddGatePair(a, b); err != nil {
		h.T.Fatalf("AddGatePair(%s, %s): %v", a.ID, b.ID, err)
	}
}

func (h *Harness) AddConstructionSite(s world.ConstructionSite) {
	h.T.Helper()
	if err := h.W.AddConstructionSite(s); err != nil {
		h.T.Fatalf("AddConstructionSite(%s): %v", s.ID, err)
	}
}

func (h *Harness) Assign(ship tasks.EntityID, ts ...tasks.Task) []tasks.ID {
	h.T.Helper()
	ids, err := h.W.Assign(ship, ts...)
	if err != nil {
		h.T.Fatalf("Assign(%s): %v", ship, err)
	}
	return ids
}

func (h *Harness) Step() world.TickLogEntry {
	return h.StepWith(world.StepInput{})
}

func (h *Harness) StepWith(in world.StepInput) world.TickLogEntry {
	h.T.Helper()
	e := h.W.StepOnce(in)
	h.Log = append(h.Log, e)
	return e
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// StepUntil steps until cond holds, failing the test after limit ticks.
// It returns the number of ticks taken.
func (h *Harness) StepUntil(limit int, cond func() bool) int {
	h.T.Helper()
	for i := 1; i <= limit; i++ {
		h.Step()
		if cond() {
			return i
		}
	}
	h.T.Fatalf("condition not met after %d ticks", limit)
	return 0
}

func (h *Harness) Ship(id tasks.EntityID) *world.Ship {
	h.T.Helper()
	s := h.W.Ship(id)
	if s == nil {
		h.T.Fatalf("unknown ship %s", id)
	}
	return s
}

// ActiveKind returns the kind of the ship's active task, or ok=false.
func (h *Harness) ActiveKind(id tasks.EntityID) (tasks.Kind, bool) {
	h.T.Helper()
	s := h.Ship(id)
	if s.Active == nil {
		return 0, false
	}
	return s.Active.Kind(), true
}

// Events returns every logged event for ship, oldest first.
func (h *Harness) Events(ship tasks.EntityID) []world.TaskEvent {
	var out []world.TaskEvent
	for _, e := range h.Log {
		for _, ev := range e.Events {
			if ev.Ship == ship {
				out = append(out, ev)
			}
		}
	}
	return out
}

// Completion finds the completion event of a task.
func (h *Harness) Completion(id tasks.ID) (world.TaskEvent, bool) {
	for _, e := range h.Log {
		for _, ev := range e.Events {
			if ev.TaskID == id && ev.Phase == world.PhaseCompleted {
				return ev, true
			}
		}
	}
	return world.TaskEvent{}, false
}
