package world

import (
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world/feature/movement"
	"fleetsim/internal/sim/world/feature/work"
)

// startRequestAccess grants a bay at once when one is free. Otherwise the
// ship is parked on the station's wait list and the task becomes
// AwaitingSignal in place; no new lifecycle event is emitted for that.
func startRequestAccess(w *World, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.RequestAccess)
	st := w.stations[t.Target]
	if st == nil {
		if w.exists(t.Target) {
			return Aborted, "target has no access controller"
		}
		return Aborted, "target gone"
	}
	if st.access.tryAcquire(s.ID) {
		return Finished, "granted"
	}
	st.access.park(s.ID)
	a.Task = &tasks.AwaitingSignal{From: st.ID}
	return Ongoing, ""
}

func updateRequestAccess(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.RequestAccess)
	st := c.w.stations[t.Target]
	if st == nil {
		return Aborted, "target gone"
	}
	if st.access.holds(s.ID) {
		return Finished, "granted"
	}
	return Ongoing, ""
}

func updateAwaitingSignal(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.AwaitingSignal)
	if !c.w.exists(t.From) {
		return Aborted, "signal source gone"
	}
	// Started is inherited from the RequestAccess that parked the ship.
	if limit := c.w.tune.SignalTimeout(); limit > 0 && c.now.Sub(a.Meta.Started) >= limit {
		return Aborted, "signal timed out"
	}
	return Ongoing, ""
}

// finishAwaitingSignal leaves the wait list. A signal that did not come with
// a granted bay still takes one if any is free.
func finishAwaitingSignal(w *World, s *Ship, t tasks.Task) {
	st := w.stations[t.(*tasks.AwaitingSignal).From]
	if st == nil {
		return
	}
	st.access.unpark(s.ID)
	st.access.tryAcquire(s.ID)
}

func abortAwaitingSignal(w *World, s *Ship, t tasks.Task) {
	if st := w.stations[t.(*tasks.AwaitingSignal).From]; st != nil {
		st.access.unpark(s.ID)
	}
}

func updateDock(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.DockAtEntity)
	st := c.w.stations[t.Target]
	if st == nil {
		return Aborted, "target gone"
	}
	if s.DockedAt == t.Target {
		return Finished, ""
	}
	if s.DockedAt != "" {
		return Aborted, "docked elsewhere"
	}
	if !st.access.holds(s.ID) {
		return Aborted, "no bay reserved"
	}
	if s.Loc.Sector != st.Loc.Sector || !movement.InRange(s.Loc.Pos, st.Loc.Pos, c.w.tune.DockRange) {
		return Aborted, "out of dock range"
	}
	t.Elapsed += c.dt
	if t.Elapsed < c.w.tune.Dock() {
		return Ongoing, ""
	}
	return Finished, ""
}

func finishDock(w *World, s *Ship, t tasks.Task) {
	s.DockedAt = t.(*tasks.DockAtEntity).Target
}

func updateUndock(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.Undock)
	if s.DockedAt == "" {
		return Finished, "not docked"
	}
	t.Elapsed += c.dt
	if t.Elapsed < c.w.tune.Undock() {
		return Ongoing, ""
	}
	return Finished, ""
}

// finishUndock frees the bay; the next parked ship is signalled.
func finishUndock(w *World, s *Ship, _ tasks.Task) {
	at := s.DockedAt
	s.DockedAt = ""
	if st := w.stations[at]; st != nil && st.access.holds(s.ID) {
		w.releaseBay(st, s.ID)
	}
}

func updateExchange(c passCtx, s *Ship, a *ActiveTask) (Outcome, string) {
	t := a.Task.(*tasks.ExchangeWares)
	st := c.w.stations[t.Target]
	if st == nil {
		return Aborted, "target gone"
	}
	if s.DockedAt != t.Target {
		if s.DockedAt != "" {
			return Aborted, "docked elsewhere"
		}
		if s.Loc.Sector != st.Loc.Sector || !movement.InRange(s.Loc.Pos, st.Loc.Pos, c.w.tune.DockRange) {
			return Aborted, "not at target"
		}
	}
	if st.Market[t.Item] == nil {
		return Aborted, "ware not traded"
	}
	t.Elapsed += c.dt
	if t.Elapsed < work.ExchangeDuration(t.Amount, c.w.tune.ExchangePerUnit()) {
		return Ongoing, ""
	}
	return Finished, ""
}

// finishExchange moves wares and credits, clamped to what both sides can do.
func finishExchange(w *World, s *Ship, t tasks.Task) {
	x := t.(*tasks.ExchangeWares)
	st := w.stations[x.Target]
	if st == nil {
		return
	}
	ware := st.Market[x.Item]
	if ware == nil {
		return
	}
	if x.Sell {
		n := work.SellAmount(x.Amount, s.Cargo.Held(x.Item), ware.Room())
		n = s.Cargo.Remove(x.Item, n)
		ware.Stock += n
		s.Credits += n * ware.Buy
		x.Transferred = n
		return
	}
	n := work.BuyAmount(x.Amount, s.Cargo.Free(), ware.Stock, s.Credits, ware.Sell)
	n = s.Cargo.Add(x.Item, n)
	ware.Stock -= n
	s.Credits -= n * ware.Sell
	x.Transferred = n
}
