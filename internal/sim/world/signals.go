package world

import (
	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

// queueSignal drops a signal into ship's mailbox. The mailbox is drained on
// the world goroutine by drainRequests.
func (w *World) queueSignal(ship tasks.EntityID) {
	w.signals = append(w.signals, ship)
}

// deliverSignals completes the AwaitingSignal task of every addressed ship.
// Several signals to the same ship in one drain count once; signals to ships
// that are not waiting are dropped.
func (w *World) deliverSignals(now clock.Timestamp) {
	if len(w.signals) == 0 {
		return
	}
	seen := make(map[tasks.EntityID]struct{}, len(w.signals))
	for _, id := range w.signals {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s := w.ships[id]
		if s == nil || s.Active == nil || s.Active.Kind() != tasks.KindAwaitingSignal {
			continue
		}
		w.tickSignals++
		w.complete(s, Finished, "signalled", now)
	}
	w.signals = w.signals[:0]
}

// drainRequests applies pending cancellations, then pending signals, and
// consumes the events they produce. Signals raised by those events (a bay
// freed by an aborted task) are delivered in the same drain.
func (w *World) drainRequests(now clock.Timestamp) {
	for len(w.cancels) > 0 || len(w.signals) > 0 {
		cancels := w.cancels
		w.cancels = nil
		// An active cancel targets the task running when its batch is
		// taken, not whatever gets promoted after an earlier abort.
		for i := range cancels {
			c := &cancels[i]
			if !c.Active || c.TaskID != 0 {
				continue
			}
			if s := w.ships[c.Ship]; s != nil && s.Active != nil {
				c.TaskID = s.Active.ID
			}
		}
		for _, req := range cancels {
			w.tickCancels = append(w.tickCancels, w.applyCancel(req, now))
			w.consumeEvents(now)
		}
		w.deliverSignals(now)
		w.consumeEvents(now)
	}
}
