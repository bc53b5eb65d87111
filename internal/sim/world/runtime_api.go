package world

import (
	"context"
	"errors"
	"fmt"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

var (
	ErrStopped     = errors.New("world stopped")
	ErrUnknownShip = errors.New("unknown ship")
)

// Order appends tasks to a ship's queue. Replace clears the queue and cancels
// the active task before the new tasks are queued. Resp, if set, receives the new task ids
// (nil when the ship is unknown) and should be buffered.
type Order struct {
	Ship    tasks.EntityID
	Tasks   []tasks.Task
	Replace bool
	Resp    chan []tasks.ID
}

func (w *World) applyOrder(o Order, now clock.Timestamp) []tasks.ID {
	s := w.ships[o.Ship]
	if s == nil {
		w.log.Printf("order: ship %s is gone", o.Ship)
		return nil
	}
	if o.Replace {
		s.Queue.Clear()
		// The abort runs first so a clear-queue abort cannot drop the
		// replacement. A refused cancel leaves the new tasks behind it.
		if s.Active != nil {
			req := CancelRequest{Ship: s.ID, TaskID: s.Active.ID, Active: true}
			w.tickCancels = append(w.tickCancels, w.applyCancel(req, now))
			w.consumeEvents(now)
		}
	}
	ids := make([]tasks.ID, 0, len(o.Tasks))
	for _, t := range o.Tasks {
		if t == nil || !t.Kind().Valid() {
			continue
		}
		id := w.newTaskID()
		s.Queue.PushBack(id, t)
		ids = append(ids, id)
	}
	return ids
}

// Assign queues tasks directly. Like the Add* methods it must not be used
// while Run is active.
func (w *World) Assign(ship tasks.EntityID, ts ...tasks.Task) ([]tasks.ID, error) {
	if w.ships[ship] == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShip, ship)
	}
	return w.applyOrder(Order{Ship: ship, Tasks: ts}, w.clock.Now()), nil
}

// The methods below are safe to call from any goroutine while Run is active.
// Requests are applied at the next tick boundary.

func (w *World) Enqueue(ctx context.Context, o Order) error {
	return send(ctx, w, w.orders, o)
}

func (w *World) CancelQueued(ctx context.Context, ship tasks.EntityID, id tasks.ID) error {
	return send(ctx, w, w.cancelIn, CancelRequest{Ship: ship, TaskID: id})
}

func (w *World) CancelActive(ctx context.Context, ship tasks.EntityID) error {
	return send(ctx, w, w.cancelIn, CancelRequest{Ship: ship, Active: true})
}

// SendSignal completes ship's AwaitingSignal task, if it has one when the
// signal is delivered.
func (w *World) SendSignal(ctx context.Context, ship tasks.EntityID) error {
	return send(ctx, w, w.signalIn, ship)
}

func (w *World) SetBehavior(ctx context.Context, ship tasks.EntityID, b *Behavior) error {
	return send(ctx, w, w.behaviors, BehaviorChange{Ship: ship, Behavior: b})
}

func send[T any](ctx context.Context, w *World, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
