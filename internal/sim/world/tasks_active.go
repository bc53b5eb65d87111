package world

import (
	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

type ActiveTaskMetaData struct {
	// Started is when the task was promoted. Diagnostics only.
	Started clock.Timestamp
}

// ActiveTask is the single task a ship is executing. Task is owned by the
// update pass of its kind while passes run.
type ActiveTask struct {
	ID   tasks.ID
	Task tasks.Task
	Meta ActiveTaskMetaData
}

func (a *ActiveTask) Kind() tasks.Kind { return a.Task.Kind() }

// promoteAll starts the front task of every ship that has nothing active.
func (w *World) promoteAll(now clock.Timestamp) {
	for _, s := range w.sortedShips() {
		if s.Active == nil && !s.Queue.Empty() {
			w.promote(s, now)
		}
	}
}

// promote pops the queue front into the active slot and emits Started.
func (w *World) promote(s *Ship, now clock.Timestamp) bool {
	if s.Active != nil {
		w.invariantf("ship %s: promote while %s %s is active", s.ID, s.Active.Kind(), s.Active.ID)
		return false
	}
	e, ok := s.Queue.PopFront()
	if !ok {
		return false
	}
	s.Active = &ActiveTask{ID: e.ID, Task: e.Task, Meta: ActiveTaskMetaData{Started: now}}
	w.emit(TaskEvent{
		Phase:  PhaseStarted,
		Ship:   s.ID,
		TaskID: e.ID,
		Kind:   e.Task.Kind(),
		At:     now,
	})
	return true
}
