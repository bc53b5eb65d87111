package world

import (
	"context"
	"time"

	"fleetsim/internal/sim/tasks"
)

// StepInput is everything collected between two ticks. Delta of zero means
// one nominal tick.
type StepInput struct {
	Orders    []Order
	Behaviors []BehaviorChange
	Cancels   []CancelRequest
	Signals   []tasks.EntityID
	Delta     time.Duration
}

func (in *StepInput) reset() {
	in.Orders = in.Orders[:0]
	in.Behaviors = in.Behaviors[:0]
	in.Cancels = in.Cancels[:0]
	in.Signals = in.Signals[:0]
}

func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.tune.TickDuration())
	defer ticker.Stop()

	var in StepInput
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case o := <-w.orders:
			in.Orders = append(in.Orders, o)
		case c := <-w.behaviors:
			in.Behaviors = append(in.Behaviors, c)
		case req := <-w.cancelIn:
			in.Cancels = append(in.Cancels, req)
		case id := <-w.signalIn:
			in.Signals = append(in.Signals, id)
		case <-ticker.C:
			w.stepInternal(in)
			in.reset()
		}
	}
}

func (w *World) Stop() {
	if w.stopOnce.CompareAndSwap(false, true) {
		close(w.stop)
	}
}

// StepOnce advances the world by a single tick using the same ordering as
// Run. It is meant for deterministic tests and replays.
func (w *World) StepOnce(in StepInput) TickLogEntry {
	return w.stepInternal(in)
}
