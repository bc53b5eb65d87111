package tasks

import (
	"fmt"
	"strings"
	"time"
)

type Kind uint8

const (
	KindAwaitingSignal Kind = iota
	KindConstruct
	KindRequestAccess
	KindDockAtEntity
	KindUndock
	KindExchangeWares
	KindMoveToEntity
	KindUseGate
	KindMineAsteroid
	KindHarvestGas

	// KindCount sizes per-kind dispatch tables.
	KindCount
)

var kindNames = [KindCount]string{
	KindAwaitingSignal: "AWAITING_SIGNAL",
	KindConstruct:      "CONSTRUCT",
	KindRequestAccess:  "REQUEST_ACCESS",
	KindDockAtEntity:   "DOCK_AT_ENTITY",
	KindUndock:         "UNDOCK",
	KindExchangeWares:  "EXCHANGE_WARES",
	KindMoveToEntity:   "MOVE_TO_ENTITY",
	KindUseGate:        "USE_GATE",
	KindMineAsteroid:   "MINE_ASTEROID",
	KindHarvestGas:     "HARVEST_GAS",
}

// Kinds returns every kind in update-pass order.
func Kinds() []Kind {
	out := make([]Kind, 0, KindCount)
	for k := Kind(0); k < KindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) Valid() bool { return k < KindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// EntityID is a handle to anything positioned in the world: ships, stations,
// asteroids, gas clouds, gates and construction sites.
type EntityID string

// ID identifies one task instance for its whole life (queued and active).
type ID uint64

func (id ID) String() string { return fmt.Sprintf("T%06d", uint64(id)) }

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	var n uint64
	if _, err := fmt.Sscanf(string(b), "T%d", &n); err != nil {
		return fmt.Errorf("task id %q: %w", b, err)
	}
	*id = ID(n)
	return nil
}

// Task is one variant of the task catalog. Implementations are pointers so the
// owning update pass can advance their progress in place.
type Task interface {
	Kind() Kind
}

// AwaitingSignal parks a ship until From (or whoever owns the contested
// resource) sends it a signal.
type AwaitingSignal struct {
	From EntityID
}

// Construct contributes build power to a construction site.
// Pending is this tick's contribution, merged into the site after the pass.
type Construct struct {
	Site        EntityID
	Contributed float64
	Pending     float64
}

// RequestAccess asks Target's access controller for a docking bay.
type RequestAccess struct {
	Target EntityID
}

type DockAtEntity struct {
	Target  EntityID
	Elapsed time.Duration
}

type Undock struct {
	Elapsed time.Duration
}

// ExchangeWares buys (Sell=false) or sells Amount units of Item at the docked
// station Target. Transferred holds the amount actually moved.
type ExchangeWares struct {
	Target      EntityID
	Item        string
	Amount      int
	Sell        bool
	Elapsed     time.Duration
	Transferred int
}

type MoveToEntity struct {
	Target       EntityID
	StopDistance float64
}

// UseGate transits from Enter to its paired gate Exit. Progress runs 0..1.
type UseGate struct {
	Enter    EntityID
	Exit     EntityID
	Progress float64
}

// MineAsteroid holds Reserved units taken from the asteroid when the task
// started; they land in the cargo hold at the end of the cycle.
type MineAsteroid struct {
	Target   EntityID
	Reserved int
	Elapsed  time.Duration
}

// HarvestGas scoops Item from a gas cloud until the hold is full.
// Accumulated carries the fractional unit between ticks.
type HarvestGas struct {
	Target      EntityID
	Item        string
	Accumulated float64
}

func (*AwaitingSignal) Kind() Kind { return KindAwaitingSignal }
func (*Construct) Kind() Kind      { return KindConstruct }
func (*RequestAccess) Kind() Kind  { return KindRequestAccess }
func (*DockAtEntity) Kind() Kind   { return KindDockAtEntity }
func (*Undock) Kind() Kind         { return KindUndock }
func (*ExchangeWares) Kind() Kind  { return KindExchangeWares }
func (*MoveToEntity) Kind() Kind   { return KindMoveToEntity }
func (*UseGate) Kind() Kind        { return KindUseGate }
func (*MineAsteroid) Kind() Kind   { return KindMineAsteroid }
func (*HarvestGas) Kind() Kind     { return KindHarvestGas }

// Target returns the entity a task is bound to, if any.
func Target(t Task) (EntityID, bool) {
	switch v := t.(type) {
	case *AwaitingSignal:
		return v.From, v.From != ""
	case *Construct:
		return v.Site, v.Site != ""
	case *RequestAccess:
		return v.Target, v.Target != ""
	case *DockAtEntity:
		return v.Target, v.Target != ""
	case *ExchangeWares:
		return v.Target, v.Target != ""
	case *MoveToEntity:
		return v.Target, v.Target != ""
	case *UseGate:
		return v.Enter, v.Enter != ""
	case *MineAsteroid:
		return v.Target, v.Target != ""
	case *HarvestGas:
		return v.Target, v.Target != ""
	}
	return "", false
}
