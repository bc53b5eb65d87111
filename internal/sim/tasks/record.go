package tasks

import (
	"fmt"
	"time"
)

// Record is the flat, JSON-friendly form of a Task. Only the fields used by
// the record's Kind are set.
type Record struct {
	Kind        Kind     `json:"kind"`
	Target      EntityID `json:"target,omitempty"`
	Exit        EntityID `json:"exit,omitempty"`
	Item        string   `json:"item,omitempty"`
	Amount      int      `json:"amount,omitempty"`
	Sell        bool     `json:"sell,omitempty"`
	Distance    float64  `json:"distance,omitempty"`
	Progress    float64  `json:"progress,omitempty"`
	ElapsedMS   int64    `json:"elapsed_ms,omitempty"`
	Reserved    int      `json:"reserved,omitempty"`
	Transferred int      `json:"transferred,omitempty"`
}

func ToRecord(t Task) Record {
	switch v := t.(type) {
	case *AwaitingSignal:
		return Record{Kind: KindAwaitingSignal, Target: v.From}
	case *Construct:
		return Record{Kind: KindConstruct, Target: v.Site, Progress: v.Contributed + v.Pending}
	case *RequestAccess:
		return Record{Kind: KindRequestAccess, Target: v.Target}
	case *DockAtEntity:
		return Record{Kind: KindDockAtEntity, Target: v.Target, ElapsedMS: v.Elapsed.Milliseconds()}
	case *Undock:
		return Record{Kind: KindUndock, ElapsedMS: v.Elapsed.Milliseconds()}
	case *ExchangeWares:
		return Record{
			Kind:        KindExchangeWares,
			Target:      v.Target,
			Item:        v.Item,
			Amount:      v.Amount,
			Sell:        v.Sell,
			ElapsedMS:   v.Elapsed.Milliseconds(),
			Transferred: v.Transferred,
		}
	case *MoveToEntity:
		return Record{Kind: KindMoveToEntity, Target: v.Target, Distance: v.StopDistance}
	case *UseGate:
		return Record{Kind: KindUseGate, Target: v.Enter, Exit: v.Exit, Progress: v.Progress}
	case *MineAsteroid:
		return Record{Kind: KindMineAsteroid, Target: v.Target, Reserved: v.Reserved, ElapsedMS: v.Elapsed.Milliseconds()}
	case *HarvestGas:
		return Record{Kind: KindHarvestGas, Target: v.Target, Item: v.Item, Progress: v.Accumulated}
	}
	panic(fmt.Sprintf("tasks: ToRecord: unhandled task type %T", t))
}

func FromRecord(r Record) (Task, error) {
	if !r.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(r.Kind))
	}
	if r.Kind != KindUndock && r.Target == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingTarget, r.Kind)
	}
	elapsed := time.Duration(r.ElapsedMS) * time.Millisecond
	switch r.Kind {
	case KindAwaitingSignal:
		return &AwaitingSignal{From: r.Target}, nil
	case KindConstruct:
		return &Construct{Site: r.Target, Contributed: r.Progress}, nil
	case KindRequestAccess:
		return &RequestAccess{Target: r.Target}, nil
	case KindDockAtEntity:
		return &DockAtEntity{Target: r.Target, Elapsed: elapsed}, nil
	case KindUndock:
		return &Undock{Elapsed: elapsed}, nil
	case KindExchangeWares:
		if r.Item == "" || r.Amount <= 0 {
			return nil, fmt.Errorf("%w: exchange needs item and positive amount", ErrBadRecord)
		}
		return &ExchangeWares{
			Target:      r.Target,
			Item:        r.Item,
			Amount:      r.Amount,
			Sell:        r.Sell,
			Elapsed:     elapsed,
			Transferred: r.Transferred,
		}, nil
	case KindMoveToEntity:
		if r.Distance < 0 {
			return nil, fmt.Errorf("%w: negative stop distance", ErrBadRecord)
		}
		return &MoveToEntity{Target: r.Target, StopDistance: r.Distance}, nil
	case KindUseGate:
		if r.Exit == "" {
			return nil, fmt.Errorf("%w: use gate needs exit", ErrMissingTarget)
		}
		return &UseGate{Enter: r.Target, Exit: r.Exit, Progress: r.Progress}, nil
	case KindMineAsteroid:
		return &MineAsteroid{Target: r.Target, Reserved: r.Reserved, Elapsed: elapsed}, nil
	case KindHarvestGas:
		if r.Item == "" {
			return nil, fmt.Errorf("%w: harvest needs item", ErrBadRecord)
		}
		return &HarvestGas{Target: r.Target, Item: r.Item, Accumulated: r.Progress}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, r.Kind)
}
