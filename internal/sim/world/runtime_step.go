package world

import (
	"time"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

// TickLogEntry is what one tick did to the task layer.
type TickLogEntry struct {
	Tick    uint64             `json:"tick"`
	World   string             `json:"world"`
	At      clock.Timestamp    `json:"at"`
	Events  []TaskEvent        `json:"events,omitempty"`
	Cancels []CancelResult     `json:"cancels,omitempty"`
	Signals int                `json:"signals,omitempty"`
	Active  map[tasks.Kind]int `json:"active,omitempty"`
	StepMS  float64            `json:"step_ms"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickSummary is the latest tick's headline numbers, readable from any goroutine.
type TickSummary struct {
	Tick   uint64
	At     clock.Timestamp
	Ships  int
	Active int
	Queued int
	Events int
	StepMS float64
}

func (w *World) LastTick() TickSummary {
	v, _ := w.lastTick.Load().(TickSummary)
	return v
}

func (w *World) stepInternal(in StepInput) TickLogEntry {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.tickEvents = nil
	w.tickCancels = nil
	w.tickSignals = 0

	dt := in.Delta
	if dt <= 0 {
		dt = w.tune.TickDuration()
	}
	paused := w.clock.Paused()
	now := w.clock.Advance(dt)

	// Requests apply at the tick boundary in arrival order.
	for _, o := range in.Orders {
		ids := w.applyOrder(o, now)
		if o.Resp != nil {
			select {
			case o.Resp <- ids:
			default:
			}
		}
	}
	for _, c := range in.Behaviors {
		w.applyBehaviorChange(c)
	}
	w.cancels = append(w.cancels, in.Cancels...)
	w.signals = append(w.signals, in.Signals...)
	w.drainRequests(now)

	// A paused clock freezes task progress; requests still apply.
	if !paused {
		w.evaluateBehaviors(now)
		w.promoteAll(now)
		w.consumeEvents(now)

		w.runPasses(dt, now)
		w.consumeEvents(now)

		w.drainRequests(now)
		w.reclaimStaleReservations()
		w.drainRequests(now)
	}

	entry := TickLogEntry{
		Tick:    nowTick,
		World:   w.cfg.ID,
		At:      now,
		Events:  w.tickEvents,
		Cancels: w.tickCancels,
		Signals: w.tickSignals,
		Active:  w.activeKinds(),
		StepMS:  float64(time.Since(stepStart).Microseconds()) / 1000.0,
	}
	for _, l := range w.tickLoggers {
		if err := l.WriteTick(entry); err != nil {
			w.log.Printf("tick %d: logger: %v", nowTick, err)
		}
	}

	sum := TickSummary{Tick: nowTick, At: now, Ships: len(w.ships), Events: len(entry.Events), StepMS: entry.StepMS}
	for _, n := range entry.Active {
		sum.Active += n
	}
	for _, s := range w.ships {
		sum.Queued += s.Queue.Len()
	}
	w.lastTick.Store(sum)
	w.tick.Add(1)
	return entry
}

func (w *World) activeKinds() map[tasks.Kind]int {
	out := map[tasks.Kind]int{}
	for _, s := range w.ships {
		if s.Active != nil {
			out[s.Active.Kind()]++
		}
	}
	return out
}
