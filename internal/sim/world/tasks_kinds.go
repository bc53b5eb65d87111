package world

import (
	"time"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

type abortPolicy uint8

const (
	// abortContinue keeps the rest of the queue after an abort.
	abortContinue abortPolicy = iota
	// abortClearQueue drops the rest of the queue: later tasks depend on
	// this one having succeeded.
	abortClearQueue
)

// passCtx is what an update routine sees. World state other than the ship's
// own task, position and cargo is read-only during a pass.
type passCtx struct {
	w   *World
	dt  time.Duration
	now clock.Timestamp
}

type kindDef struct {
	abort abortPolicy

	// started runs once after promotion. A non-Ongoing outcome completes the
	// task without waiting for its update pass.
	started func(w *World, s *Ship, a *ActiveTask) (Outcome, string)
	// update runs every tick, possibly concurrently with other ships.
	update func(c passCtx, s *Ship, a *ActiveTask) (Outcome, string)
	// afterPass runs single-threaded once the kind's pass has returned.
	afterPass func(w *World, ships []*Ship)

	finished func(w *World, s *Ship, t tasks.Task)
	aborted  func(w *World, s *Ship, t tasks.Task)
}

// kindDefs is indexed by tasks.Kind. It is filled in init so handlers can
// reach it through World methods without an initialization cycle.
var kindDefs [tasks.KindCount]kindDef

func init() {
	kindDefs = [tasks.KindCount]kindDef{
		tasks.KindAwaitingSignal: {
			abort:    abortClearQueue,
			update:   updateAwaitingSignal,
			finished: finishAwaitingSignal,
			aborted:  abortAwaitingSignal,
		},
		tasks.KindConstruct: {
			abort:     abortContinue,
			update:    updateConstruct,
			afterPass: mergeConstruction,
		},
		tasks.KindRequestAccess: {
			abort:   abortClearQueue,
			started: startRequestAccess,
			update:  updateRequestAccess,
		},
		tasks.KindDockAtEntity: {
			abort:    abortClearQueue,
			update:   updateDock,
			finished: finishDock,
		},
		tasks.KindUndock: {
			abort:    abortClearQueue,
			update:   updateUndock,
			finished: finishUndock,
		},
		tasks.KindExchangeWares: {
			abort:    abortContinue,
			update:   updateExchange,
			finished: finishExchange,
		},
		tasks.KindMoveToEntity: {
			abort:  abortClearQueue,
			update: updateMoveTo,
		},
		tasks.KindUseGate: {
			abort:  abortClearQueue,
			update: updateUseGate,
		},
		tasks.KindMineAsteroid: {
			abort:    abortContinue,
			started:  startMine,
			update:   updateMine,
			finished: finishMine,
			aborted:  abortMine,
		},
		tasks.KindHarvestGas: {
			abort:   abortContinue,
			started: startHarvest,
			update:  updateHarvest,
		},
	}
}
