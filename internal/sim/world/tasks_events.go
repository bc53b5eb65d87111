package world

import (
	"fmt"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

type Outcome uint8

const (
	Ongoing Outcome = iota
	Finished
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ONGOING"
	case Finished:
		return "FINISHED"
	case Aborted:
		return "ABORTED"
	}
	return fmt.Sprintf("OUTCOME(%d)", uint8(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ONGOING":
		*o = Ongoing
	case "FINISHED":
		*o = Finished
	case "ABORTED":
		*o = Aborted
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

type Phase uint8

const (
	PhaseStarted Phase = iota
	PhaseCompleted
)

func (p Phase) String() string {
	if p == PhaseStarted {
		return "STARTED"
	}
	return "COMPLETED"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "STARTED":
		*p = PhaseStarted
	case "COMPLETED":
		*p = PhaseCompleted
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// TaskEvent is one lifecycle transition. Completed events carry the outcome;
// Dropped counts queue entries discarded by the kind's abort policy.
type TaskEvent struct {
	Phase   Phase           `json:"phase"`
	Ship    tasks.EntityID  `json:"ship"`
	TaskID  tasks.ID        `json:"task_id"`
	Kind    tasks.Kind      `json:"kind"`
	Outcome Outcome         `json:"outcome,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	At      clock.Timestamp `json:"at"`
	Dropped int             `json:"dropped,omitempty"`
	Record  *tasks.Record   `json:"record,omitempty"`
}

func (w *World) emit(ev TaskEvent) { w.pending = append(w.pending, ev) }

func (w *World) complete(s *Ship, outcome Outcome, reason string, now clock.Timestamp) {
	w.emit(TaskEvent{
		Phase:   PhaseCompleted,
		Ship:    s.ID,
		TaskID:  s.Active.ID,
		Kind:    s.Active.Kind(),
		Outcome: outcome,
		Reason:  reason,
		At:      now,
	})
}

// consumeEvents runs handlers until no event is pending. Handlers may emit
// more events (a completion re-promotes, a start may complete at once), and
// those are handled in the same call.
func (w *World) consumeEvents(now clock.Timestamp) {
	for len(w.pending) > 0 {
		batch := w.pending
		w.pending = nil
		for _, ev := range batch {
			switch ev.Phase {
			case PhaseStarted:
				w.handleStarted(ev, now)
			case PhaseCompleted:
				ev = w.handleCompleted(ev, now)
			}
			w.tickEvents = append(w.tickEvents, ev)
		}
	}
}

func (w *World) handleStarted(ev TaskEvent, now clock.Timestamp) {
	s := w.ships[ev.Ship]
	if s == nil {
		w.log.Printf("started %s %s: ship %s is gone", ev.Kind, ev.TaskID, ev.Ship)
		return
	}
	if s.Active == nil || s.Active.ID != ev.TaskID {
		// Already completed or cancelled earlier in this batch.
		return
	}
	def := kindDefs[s.Active.Kind()]
	if def.started == nil {
		return
	}
	if out, reason := def.started(w, s, s.Active); out != Ongoing {
		w.complete(s, out, reason, now)
	}
}

func (w *World) handleCompleted(ev TaskEvent, now clock.Timestamp) TaskEvent {
	s := w.ships[ev.Ship]
	if s == nil {
		w.log.Printf("completed %s %s: ship %s is gone", ev.Kind, ev.TaskID, ev.Ship)
		return ev
	}
	if s.Active == nil || s.Active.ID != ev.TaskID || s.Active.Kind() != ev.Kind {
		w.invariantf("ship %s: completion for %s %s which is not active", s.ID, ev.Kind, ev.TaskID)
		return ev
	}
	active := s.Active
	s.Active = nil

	def := kindDefs[ev.Kind]
	switch ev.Outcome {
	case Finished:
		if def.finished != nil {
			def.finished(w, s, active.Task)
		}
	case Aborted:
		if def.aborted != nil {
			def.aborted(w, s, active.Task)
		}
		if def.abort == abortClearQueue {
			ev.Dropped = len(s.Queue.Clear())
		}
	}
	rec := tasks.ToRecord(active.Task)
	ev.Record = &rec

	if !s.Queue.Empty() {
		w.promote(s, now)
	}
	return ev
}
