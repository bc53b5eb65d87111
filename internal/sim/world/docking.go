package world

import "fleetsim/internal/sim/tasks"

// accessController arbitrates a station's docking bays. A ship holds a bay
// from the moment access is granted until it undocks. Ships that could not
// get a bay wait in FIFO order and are handed the next free one.
type accessController struct {
	bays    int
	holders map[tasks.EntityID]struct{}
	waiters []tasks.EntityID
}

func newAccessController(bays int) *accessController {
	return &accessController{bays: bays, holders: map[tasks.EntityID]struct{}{}}
}

func (c *accessController) holds(ship tasks.EntityID) bool {
	_, ok := c.holders[ship]
	return ok
}

func (c *accessController) tryAcquire(ship tasks.EntityID) bool {
	if c.holds(ship) {
		return true
	}
	if len(c.holders) >= c.bays {
		return false
	}
	c.holders[ship] = struct{}{}
	return true
}

func (c *accessController) park(ship tasks.EntityID) {
	for _, id := range c.waiters {
		if id == ship {
			return
		}
	}
	c.waiters = append(c.waiters, ship)
}

func (c *accessController) unpark(ship tasks.EntityID) {
	for i, id := range c.waiters {
		if id == ship {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// release frees ship's bay and hands free bays to waiters still accepted by
// stillWaiting, in FIFO order. It returns the ships that were granted a bay.
func (c *accessController) release(ship tasks.EntityID, stillWaiting func(tasks.EntityID) bool) []tasks.EntityID {
	delete(c.holders, ship)
	var granted []tasks.EntityID
	for len(c.holders) < c.bays && len(c.waiters) > 0 {
		next := c.waiters[0]
		c.waiters = c.waiters[1:]
		if stillWaiting != nil && !stillWaiting(next) {
			continue
		}
		c.holders[next] = struct{}{}
		granted = append(granted, next)
	}
	return granted
}

func (c *accessController) freeBays() int { return max(0, c.bays-len(c.holders)) }

// releaseBay gives up ship's bay at st and signals every waiter that got one.
func (w *World) releaseBay(st *Station, ship tasks.EntityID) {
	granted := st.access.release(ship, func(id tasks.EntityID) bool {
		return w.awaitingSignalFrom(id, st.ID)
	})
	for _, id := range granted {
		w.queueSignal(id)
	}
}

func (w *World) awaitingSignalFrom(ship, source tasks.EntityID) bool {
	s := w.ships[ship]
	if s == nil || s.Active == nil {
		return false
	}
	t, ok := s.Active.Task.(*tasks.AwaitingSignal)
	return ok && t.From == source
}

// reclaimStaleReservations returns bays held by ships that will never use
// them: the ship is gone, or it is neither docked there nor on its way to dock.
func (w *World) reclaimStaleReservations() {
	for _, stID := range sortedIDs(w.stations) {
		st := w.stations[stID]
		var stale []tasks.EntityID
		for id := range st.access.holders {
			if !w.keepsReservation(id, st.ID) {
				stale = append(stale, id)
			}
		}
		sortEntityIDs(stale)
		for _, id := range stale {
			w.log.Printf("station %s: reclaiming unused bay from %s", st.ID, id)
			w.releaseBay(st, id)
		}
	}
}

func (w *World) keepsReservation(ship, station tasks.EntityID) bool {
	s := w.ships[ship]
	if s == nil {
		return false
	}
	if s.DockedAt == station {
		return true
	}
	if s.Active != nil {
		switch t := s.Active.Task.(type) {
		case *tasks.DockAtEntity:
			if t.Target == station {
				return true
			}
		case *tasks.AwaitingSignal:
			if t.From == station {
				return true
			}
		case *tasks.RequestAccess:
			if t.Target == station {
				return true
			}
		}
	}
	for _, e := range s.Queue.Entries() {
		if t, ok := e.Task.(*tasks.DockAtEntity); ok && t.Target == station {
			return true
		}
	}
	return false
}
