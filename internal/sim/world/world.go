package world

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/route"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/tuning"
)

type WorldConfig struct {
	ID     string
	Tuning tuning.Tuning

	// Router resolves cross-sector trips. Nil means a gate graph built from
	// the world's own gates.
	Router route.Searcher
	Logger *log.Logger
}

// World is a single-threaded authoritative simulation of ships and their task
// queues. All state must be accessed only from the world loop goroutine, except
// inside per-kind update passes which follow the rules in tasks_passes.go.
type World struct {
	cfg  WorldConfig
	tune tuning.Tuning
	log  *log.Logger

	clock *clock.Clock
	tick  atomic.Uint64

	ships     map[tasks.EntityID]*Ship
	stations  map[tasks.EntityID]*Station
	asteroids map[tasks.EntityID]*Asteroid
	clouds    map[tasks.EntityID]*GasCloud
	gates     map[tasks.EntityID]*Gate
	sites     map[tasks.EntityID]*ConstructionSite

	router     route.Searcher
	gateRouter *route.GateGraph

	nextTaskNum atomic.Uint64

	// Lifecycle events waiting to be consumed, and everything consumed this tick.
	pending    []TaskEvent
	tickEvents []TaskEvent

	// Requests raised while a tick is running; drained before the tick ends.
	cancels []CancelRequest
	signals []tasks.EntityID

	tickCancels []CancelResult
	tickSignals int

	// Ship locations frozen before the update passes so passes can read other
	// ships while their owners move.
	locCache map[tasks.EntityID]Location

	tickLoggers []TickLogger

	orders    chan Order
	cancelIn  chan CancelRequest
	signalIn  chan tasks.EntityID
	behaviors chan BehaviorChange
	stop      chan struct{}
	stopOnce  atomic.Bool

	lastTick atomic.Value // TickSummary
}

func New(cfg WorldConfig) (*World, error) {
	if cfg.ID == "" {
		cfg.ID = "world_" + uuid.NewString()[:8]
	}
	tune := cfg.Tuning
	if tune == (tuning.Tuning{}) {
		tune = tuning.Defaults()
	}
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:       cfg,
		tune:      tune,
		log:       logger,
		clock:     clock.New(),
		ships:     map[tasks.EntityID]*Ship{},
		stations:  map[tasks.EntityID]*Station{},
		asteroids: map[tasks.EntityID]*Asteroid{},
		clouds:    map[tasks.EntityID]*GasCloud{},
		gates:     map[tasks.EntityID]*Gate{},
		sites:     map[tasks.EntityID]*ConstructionSite{},
		router:    cfg.Router,
		orders:    make(chan Order, 1024),
		cancelIn:  make(chan CancelRequest, 1024),
		signalIn:  make(chan tasks.EntityID, 1024),
		behaviors: make(chan BehaviorChange, 256),
		stop:      make(chan struct{}),
	}
	return w, nil
}

func (w *World) ID() string                 { return w.cfg.ID }
func (w *World) Tuning() tuning.Tuning      { return w.tune }
func (w *World) CurrentTick() uint64        { return w.tick.Load() }
func (w *World) Now() clock.Timestamp       { return w.clock.Now() }
func (w *World) Clock() *clock.Clock        { return w.clock }
func (w *World) AddTickLogger(l TickLogger) { w.tickLoggers = append(w.tickLoggers, l) }

func (w *World) newTaskID() tasks.ID {
	return tasks.ID(w.nextTaskNum.Add(1))
}

// invariantf reports a broken scheduling invariant. Strict worlds panic so
// tests fail loudly; otherwise the offending operation becomes a logged no-op.
func (w *World) invariantf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.tune.StrictInvariants {
		panic("world invariant: " + msg)
	}
	w.log.Printf("invariant violated: %s", msg)
}

func (w *World) sortedShips() []*Ship {
	out := make([]*Ship, 0, len(w.ships))
	for _, id := range sortedIDs(w.ships) {
		out = append(out, w.ships[id])
	}
	return out
}

func (w *World) exists(id tasks.EntityID) bool {
	_, ok := w.locate(id)
	return ok
}

// locate is the position oracle: it resolves any entity handle to a location.
// During update passes ships resolve through the frozen cache.
func (w *World) locate(id tasks.EntityID) (Location, bool) {
	if s := w.ships[id]; s != nil {
		if w.locCache != nil {
			if l, ok := w.locCache[id]; ok {
				return l, true
			}
		}
		return s.Loc, true
	}
	if st := w.stations[id]; st != nil {
		return st.Loc, true
	}
	if a := w.asteroids[id]; a != nil {
		return a.Loc, true
	}
	if c := w.clouds[id]; c != nil {
		return c.Loc, true
	}
	if g := w.gates[id]; g != nil {
		return g.Loc, true
	}
	if s := w.sites[id]; s != nil {
		return s.Loc, true
	}
	return Location{}, false
}

// PositionOf exposes the position oracle to callers outside the world loop
// (tests, tools). It must not be called concurrently with StepOnce or Run.
func (w *World) PositionOf(id tasks.EntityID) (Location, bool) { return w.locate(id) }

func (w *World) routeBetween(from, to route.SectorID) ([]route.TransitStep, bool) {
	if w.router != nil {
		return w.router.Search(from, to)
	}
	if w.gateRouter == nil {
		var links []route.GateLink
		for _, id := range sortedIDs(w.gates) {
			g := w.gates[id]
			pair := w.gates[g.Pair]
			if pair == nil {
				continue
			}
			links = append(links, route.GateLink{From: g.Loc.Sector, To: pair.Loc.Sector, ExitGate: g.ID, EntryGate: pair.ID})
		}
		w.gateRouter = route.NewGateGraph(links)
	}
	return w.gateRouter.Search(from, to)
}
