package world

import (
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world/feature/movement"
)

func updateMoveTo(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.MoveToEntity)
	if s.DockedAt != "" {
		return Aborted, "docked"
	}
	dst, ok := c.w.locate(t.Target)
	if !ok {
		return Aborted, "target gone"
	}
	if dst.Sector != s.Loc.Sector {
		return Aborted, "target in another sector"
	}
	next, arrived := movement.StepToward(s.Loc.Pos, dst.Pos, s.Speed*c.dt.Seconds(), t.StopDistance)
	s.Loc.Pos = next
	if arrived {
		return Finished, ""
	}
	return Ongoing, ""
}

func updateUseGate(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.UseGate)
	enter, exit := c.w.gates[t.Enter], c.w.gates[t.Exit]
	if enter == nil || exit == nil {
		return Aborted, "gate gone"
	}
	if enter.Pair != exit.ID {
		return Aborted, "gates not paired"
	}
	if t.Progress == 0 {
		if s.DockedAt != "" {
			return Aborted, "docked"
		}
		if s.Loc.Sector != enter.Loc.Sector || !movement.InRange(s.Loc.Pos, enter.Loc.Pos, c.w.tune.GateRange) {
			return Aborted, "not at gate"
		}
	}
	t.Progress = movement.GateProgress(t.Progress, c.dt, c.w.tune.GateTransit())
	if t.Progress < 1 {
		return Ongoing, ""
	}
	s.Loc = exit.Loc
	return Finished, ""
}
