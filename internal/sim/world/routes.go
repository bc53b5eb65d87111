package world

import (
	"fleetsim/internal/sim/tasks"
)

// travelTo plans the trip from a location to target: one MoveToEntity and
// UseGate pair per gate hop, then a final approach to within stop. ok is
// false when the target is unknown or unreachable, and nothing should be
// enqueued.
func (w *World) travelTo(from Location, target tasks.EntityID, stop float64) ([]tasks.Task, bool) {
	dst, ok := w.locate(target)
	if !ok {
		return nil, false
	}
	steps, ok := w.routeBetween(from.Sector, dst.Sector)
	if !ok {
		return nil, false
	}
	out := make([]tasks.Task, 0, 2*len(steps)+1)
	for _, st := range steps {
		out = append(out,
			&tasks.MoveToEntity{Target: st.ExitGate, StopDistance: w.tune.GateRange / 2},
			&tasks.UseGate{Enter: st.ExitGate, Exit: st.EntryGate},
		)
	}
	out = append(out, &tasks.MoveToEntity{Target: target, StopDistance: stop})
	return out, true
}

// hops is the number of gate jumps between two sectors, or -1.
func (w *World) hops(from, to Location) int {
	steps, ok := w.routeBetween(from.Sector, to.Sector)
	if !ok {
		return -1
	}
	return len(steps)
}

// dockingRun plans a full station visit: undock from wherever the ship is,
// travel, get a bay, dock, trade, and undock again.
func (w *World) dockingRun(from Location, docked tasks.EntityID, station tasks.EntityID, x *tasks.ExchangeWares) ([]tasks.Task, bool) {
	if docked == station {
		return []tasks.Task{x, &tasks.Undock{}}, true
	}
	trip, ok := w.travelTo(from, station, w.tune.DockRange/2)
	if !ok {
		return nil, false
	}
	var out []tasks.Task
	if docked != "" {
		out = append(out, &tasks.Undock{})
	}
	out = append(out, trip...)
	out = append(out,
		&tasks.RequestAccess{Target: station},
		&tasks.DockAtEntity{Target: station},
		x,
		&tasks.Undock{},
	)
	return out, true
}
