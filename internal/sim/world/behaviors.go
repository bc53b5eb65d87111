package world

import (
	"fmt"
	"sort"
	"strings"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world/feature/behavior"
)

type BehaviorKind uint8

const (
	HoldPosition BehaviorKind = iota
	AutoMine
	AutoTrade
)

var behaviorNames = [...]string{
	HoldPosition: "HOLD_POSITION",
	AutoMine:     "AUTO_MINE",
	AutoTrade:    "AUTO_TRADE",
}

func (k BehaviorKind) String() string {
	if int(k) < len(behaviorNames) {
		return behaviorNames[k]
	}
	return fmt.Sprintf("BEHAVIOR(%d)", uint8(k))
}

func ParseBehaviorKind(s string) (BehaviorKind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range behaviorNames {
		if name == s {
			return BehaviorKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown behavior %q", s)
}

// Behavior decides what an idle ship does next. Item is the resource an
// AutoMine ship gathers.
type Behavior struct {
	Kind  BehaviorKind
	Item  string
	State behavior.MineState

	// NextIdleUpdate is the earliest time the ship is evaluated again.
	NextIdleUpdate clock.Timestamp
}

// BehaviorChange attaches (or with a nil Behavior, detaches) a behavior.
type BehaviorChange struct {
	Ship     tasks.EntityID
	Behavior *Behavior
}

func (w *World) applyBehaviorChange(c BehaviorChange) {
	s := w.ships[c.Ship]
	if s == nil {
		w.log.Printf("behavior change: ship %s is gone", c.Ship)
		return
	}
	if c.Behavior != nil {
		b := *c.Behavior
		b.NextIdleUpdate = clock.MinTimestamp
		c.Behavior = &b
	}
	s.Behavior = c.Behavior
}

// evaluateBehaviors lets idle ships whose evaluation time has passed pick
// their next batch of tasks.
func (w *World) evaluateBehaviors(now clock.Timestamp) {
	for _, s := range w.sortedShips() {
		b := s.Behavior
		if b == nil || !s.Idle() || now.Before(b.NextIdleUpdate) {
			continue
		}
		var plan []tasks.Task
		switch b.Kind {
		case AutoMine:
			plan = w.planAutoMine(s, b)
		case AutoTrade:
			plan = w.planAutoTrade(s)
		}
		for _, t := range plan {
			s.Queue.PushBack(w.newTaskID(), t)
		}
		b.NextIdleUpdate = now.Add(w.tune.IdleReevaluate())
	}
}

func (w *World) planAutoMine(s *Ship, b *Behavior) []tasks.Task {
	b.State = behavior.NextMineState(b.State, s.Cargo.Held(b.Item), s.Cargo.Free())
	if b.State == behavior.Trading {
		return w.planSale(s, b.Item)
	}
	return w.planMining(s, b.Item)
}

// planMining goes to the closest source of item: fewest gate hops first,
// then distance, then id. Asteroids are preferred over gas clouds.
func (w *World) planMining(s *Ship, item string) []tasks.Task {
	type source struct {
		id   tasks.EntityID
		loc  Location
		gas  bool
		hops int
		dist float64
	}
	less := func(a, b source) bool {
		if a.gas != b.gas {
			return !a.gas
		}
		if a.hops != b.hops {
			return a.hops < b.hops
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.id < b.id
	}
	var best *source
	consider := func(c source) {
		c.hops = w.hops(s.Loc, c.loc)
		if c.hops < 0 {
			return
		}
		c.dist, _ = s.Loc.DistanceTo(c.loc)
		if best == nil || less(c, *best) {
			best = &c
		}
	}
	for _, id := range sortedIDs(w.asteroids) {
		a := w.asteroids[id]
		if a.Item == item && a.Remaining > 0 {
			consider(source{id: a.ID, loc: a.Loc})
		}
	}
	for _, id := range sortedIDs(w.clouds) {
		c := w.clouds[id]
		if c.Item == item {
			consider(source{id: c.ID, loc: c.Loc, gas: true})
		}
	}
	if best == nil {
		return nil
	}
	trip, ok := w.travelTo(s.Loc, best.id, w.tune.MineRange/2)
	if !ok {
		return nil
	}
	var out []tasks.Task
	if s.DockedAt != "" {
		out = append(out, &tasks.Undock{})
	}
	out = append(out, trip...)
	if best.gas {
		return append(out, &tasks.HarvestGas{Target: best.id, Item: item})
	}
	return append(out, &tasks.MineAsteroid{Target: best.id})
}

func (w *World) offers(s *Ship, item string) []behavior.Offer {
	var out []behavior.Offer
	for _, id := range sortedIDs(w.stations) {
		st := w.stations[id]
		hops := w.hops(s.Loc, st.Loc)
		if hops < 0 {
			continue
		}
		for _, name := range sortedKeys(st.Market) {
			if item != "" && name != item {
				continue
			}
			ware := st.Market[name]
			out = append(out, behavior.Offer{
				Station: string(st.ID),
				Item:    name,
				Buy:     ware.Buy,
				Sell:    ware.Sell,
				Stock:   ware.Stock,
				Room:    ware.Room(),
				Hops:    hops,
			})
		}
	}
	return out
}

// planSale sells everything held of item at the best-paying station.
func (w *World) planSale(s *Ship, item string) []tasks.Task {
	held := s.Cargo.Held(item)
	if held == 0 {
		return nil
	}
	o, ok := behavior.BestBuyer(w.offers(s, item), item)
	if !ok {
		return nil
	}
	plan, _ := w.dockingRun(s.Loc, s.DockedAt, tasks.EntityID(o.Station),
		&tasks.ExchangeWares{Target: tasks.EntityID(o.Station), Item: item, Amount: held, Sell: true})
	return plan
}

// planAutoTrade sells cargo first; with an empty hold it runs the most
// profitable buy and sell legs it can afford.
func (w *World) planAutoTrade(s *Ship) []tasks.Task {
	if s.Cargo.Used() > 0 {
		item, most := "", 0
		for _, name := range sortedKeys(s.Cargo.Items) {
			if n := s.Cargo.Items[name]; n > most {
				item, most = name, n
			}
		}
		return w.planSale(s, item)
	}
	p, ok := behavior.BestTrade(w.offers(s, ""), s.Credits, s.Cargo.Free())
	if !ok {
		return nil
	}
	from, to := tasks.EntityID(p.From), tasks.EntityID(p.To)
	buy, ok := w.dockingRun(s.Loc, s.DockedAt, from,
		&tasks.ExchangeWares{Target: from, Item: p.Item, Amount: p.Amount})
	if !ok {
		return nil
	}
	sell, ok := w.dockingRun(w.stations[from].Loc, "", to,
		&tasks.ExchangeWares{Target: to, Item: p.Item, Amount: p.Amount, Sell: true})
	if !ok {
		return nil
	}
	// The buy leg ends undocked, so the sell leg needs no leading Undock.
	return append(buy, sell...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
