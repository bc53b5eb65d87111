package world

import (
	"sort"
	"time"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world/logic/passes"
)

type passResult struct {
	ship    tasks.EntityID
	task    tasks.ID
	kind    tasks.Kind
	outcome Outcome
	reason  string
}

// runPasses advances every active task once, one kind at a time in
// tasks.Kinds order. Within a kind, ships are spread over the worker pool.
//
// Rules while a pass runs: an update routine may mutate only its own ship's
// task, position and cargo. Other ships are located through locCache.
// Everything that touches shared state happens in afterPass or in the
// completion handlers, which run on the world goroutine.
func (w *World) runPasses(dt time.Duration, now clock.Timestamp) {
	byKind := make([][]*Ship, tasks.KindCount)
	w.locCache = make(map[tasks.EntityID]Location, len(w.ships))
	for _, s := range w.sortedShips() {
		w.locCache[s.ID] = s.Loc
		if s.Active == nil {
			continue
		}
		k := s.Active.Kind()
		byKind[k] = append(byKind[k], s)
	}

	c := passCtx{w: w, dt: dt, now: now}
	var results []passResult
	for _, k := range tasks.Kinds() {
		ships := byKind[k]
		if len(ships) == 0 {
			continue
		}
		def := kindDefs[k]
		out := passes.Run(ships, w.tune.Workers, func(s *Ship) (passResult, bool) {
			o, reason := def.update(c, s, s.Active)
			if o == Ongoing {
				return passResult{}, false
			}
			return passResult{ship: s.ID, task: s.Active.ID, kind: k, outcome: o, reason: reason}, true
		})
		if def.afterPass != nil {
			def.afterPass(w, ships)
		}
		results = append(results, out...)
	}
	w.locCache = nil

	sort.Slice(results, func(i, j int) bool { return results[i].ship < results[j].ship })
	for i, r := range results {
		if i > 0 && results[i-1].ship == r.ship {
			w.invariantf("ship %s: second completion in one tick (%s)", r.ship, r.kind)
			continue
		}
		w.emit(TaskEvent{
			Phase:   PhaseCompleted,
			Ship:    r.ship,
			TaskID:  r.task,
			Kind:    r.kind,
			Outcome: r.outcome,
			Reason:  r.reason,
			At:      now,
		})
	}
}
