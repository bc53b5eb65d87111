package world

import (
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world/feature/movement"
	"fleetsim/internal/sim/world/feature/work"
)

func (c passCtx) inWorkRange(s *Ship, target Location) bool {
	return s.Loc.Sector == target.Sector && movement.InRange(s.Loc.Pos, target.Pos, c.w.tune.MineRange)
}

// startMine takes one cycle's yield out of the asteroid up front so two
// ships cannot mine the same units.
func startMine(w *World, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.MineAsteroid)
	ast := w.asteroids[t.Target]
	if ast == nil {
		return Aborted, "target gone"
	}
	n := work.MineReservation(w.tune.MineYield, s.Cargo.Free(), ast.Remaining)
	if n == 0 {
		return Aborted, "nothing to mine"
	}
	ast.Remaining -= n
	t.Reserved = n
	return Ongoing, ""
}

func updateMine(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.MineAsteroid)
	ast := c.w.asteroids[t.Target]
	if ast == nil {
		return Aborted, "target gone"
	}
	if s.DockedAt != "" || !c.inWorkRange(s, ast.Loc) {
		return Aborted, "out of range"
	}
	t.Elapsed += c.dt
	if t.Elapsed < c.w.tune.MineCycle() {
		return Ongoing, ""
	}
	return Finished, ""
}

func finishMine(w *World, s *Ship, t tasks.Task) {
	m := t.(*tasks.MineAsteroid)
	ast := w.asteroids[m.Target]
	if ast == nil {
		return
	}
	added := s.Cargo.Add(ast.Item, m.Reserved)
	ast.Remaining += m.Reserved - added
	m.Reserved = 0
}

func abortMine(w *World, _ *Ship, t tasks.Task) {
	m := t.(*tasks.MineAsteroid)
	if ast := w.asteroids[m.Target]; ast != nil {
		ast.Remaining += m.Reserved
	}
	m.Reserved = 0
}

func startHarvest(w *World, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.HarvestGas)
	cloud := w.clouds[t.Target]
	if cloud == nil {
		return Aborted, "target gone"
	}
	if t.Item == "" {
		t.Item = cloud.Item
	}
	if s.Cargo.Free() == 0 {
		return Aborted, "hold full"
	}
	return Ongoing, ""
}

func updateHarvest(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.HarvestGas)
	cloud := c.w.clouds[t.Target]
	if cloud == nil {
		return Aborted, "target gone"
	}
	if s.DockedAt != "" || !c.inWorkRange(s, cloud.Loc) {
		return Aborted, "out of range"
	}
	units, carry := work.HarvestStep(t.Accumulated, c.w.tune.HarvestPerSec, c.dt, s.Cargo.Free())
	s.Cargo.Add(t.Item, units)
	t.Accumulated = carry
	if s.Cargo.Free() == 0 {
		return Finished, ""
	}
	return Ongoing, ""
}

// updateConstruct only records this tick's contribution; mergeConstruction
// applies it to the shared site once the pass is over.
func updateConstruct(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.Construct)
	site := c.w.sites[t.Site]
	if site == nil {
		return Aborted, "site gone"
	}
	if site.Complete() {
		return Finished, ""
	}
	if s.DockedAt != "" || !c.inWorkRange(s, site.Loc) {
		return Aborted, "out of range"
	}
	t.Pending = c.w.tune.BuildPowerPerSec * c.dt.Seconds()
	return Ongoing, ""
}

func mergeConstruction(w *World, ships []*Ship) {
	for _, s := range ships {
		if s.Active == nil {
			continue
		}
		t, ok := s.Active.Task.(*tasks.Construct)
		if !ok || t.Pending == 0 {
			continue
		}
		if site := w.sites[t.Site]; site != nil {
			site.Progress += t.Pending
			t.Contributed += t.Pending
		}
		t.Pending = 0
	}
}
