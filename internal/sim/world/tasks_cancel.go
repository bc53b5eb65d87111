package world

import (
	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

// CancelRequest asks to drop a task. Active=false removes the queued entry
// TaskID; Active=true interrupts whatever the ship is running (TaskID, when
// set, must match it).
type CancelRequest struct {
	Ship   tasks.EntityID `json:"ship"`
	TaskID tasks.ID       `json:"task_id,omitempty"`
	Active bool           `json:"active,omitempty"`
}

type CancelResult struct {
	CancelRequest
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

const reasonCancelled = "cancelled"

func (w *World) applyCancel(req CancelRequest, now clock.Timestamp) CancelResult {
	res := CancelResult{CancelRequest: req}
	s := w.ships[req.Ship]
	if s == nil {
		res.Reason = "ship gone"
		return res
	}
	if !req.Active {
		res.Applied = s.Queue.Remove(req.TaskID)
		if !res.Applied {
			res.Reason = "not queued"
		}
		return res
	}
	if s.Active == nil {
		res.Reason = "nothing active"
		return res
	}
	if req.TaskID != 0 && req.TaskID != s.Active.ID {
		res.Reason = "task not active"
		return res
	}
	if !tasks.CancellableWhileActive(s.Active.Kind()) {
		res.Reason = "not cancellable while active"
		return res
	}
	res.TaskID = s.Active.ID
	res.Applied = true
	w.complete(s, Aborted, reasonCancelled, now)
	return res
}
