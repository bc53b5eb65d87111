package world

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"fleetsim/internal/sim/route"
	"fleetsim/internal/sim/tasks"
)

// Location is a point inside one sector. Distances across sectors are undefined.
type Location struct {
	Sector route.SectorID
	Pos    orb.Point
}

func (l Location) DistanceTo(o Location) (float64, bool) {
	if l.Sector != o.Sector {
		return 0, false
	}
	return planar.Distance(l.Pos, o.Pos), true
}

// Cargo is a capacity-bounded hold shared by all item types.
type Cargo struct {
	Capacity int
	Items    map[string]int
}

func NewCargo(capacity int) Cargo {
	return Cargo{Capacity: capacity, Items: map[string]int{}}
}

func (c *Cargo) Held(item string) int { return c.Items[item] }

func (c *Cargo) Used() int {
	n := 0
	for _, v := range c.Items {
		n += v
	}
	return n
}

func (c *Cargo) Free() int { return max(0, c.Capacity-c.Used()) }

// Add stores up to n units and returns how many fit.
func (c *Cargo) Add(item string, n int) int {
	n = min(n, c.Free())
	if n <= 0 {
		return 0
	}
	if c.Items == nil {
		c.Items = map[string]int{}
	}
	c.Items[item] += n
	return n
}

// Remove takes up to n units and returns how many were held.
func (c *Cargo) Remove(item string, n int) int {
	n = min(n, c.Items[item])
	if n <= 0 {
		return 0
	}
	c.Items[item] -= n
	if c.Items[item] == 0 {
		delete(c.Items, item)
	}
	return n
}

func (c Cargo) clone() Cargo {
	out := Cargo{Capacity: c.Capacity, Items: make(map[string]int, len(c.Items))}
	for k, v := range c.Items {
		out.Items[k] = v
	}
	return out
}

type Ship struct {
	ID    tasks.EntityID
	Name  string
	Loc   Location
	Speed float64 // units per second

	Cargo    Cargo
	Credits  int
	DockedAt tasks.EntityID

	Queue    tasks.Queue
	Active   *ActiveTask
	Behavior *Behavior
}

// Idle ships have nothing running and nothing waiting.
func (s *Ship) Idle() bool { return s.Active == nil && s.Queue.Empty() }

// Ware is a station's market entry for one item. Buy is what the station pays
// for a unit, Sell what it charges.
type Ware struct {
	Buy      int
	Sell     int
	Stock    int
	MaxStock int
}

func (w Ware) Room() int { return max(0, w.MaxStock-w.Stock) }

type Station struct {
	ID     tasks.EntityID
	Name   string
	Loc    Location
	Market map[string]*Ware

	access *accessController
}

type Asteroid struct {
	ID        tasks.EntityID
	Loc       Location
	Item      string
	Remaining int
}

type GasCloud struct {
	ID   tasks.EntityID
	Loc  Location
	Item string
}

// Gate is one end of a jump link; Pair is the gate on the other side.
type Gate struct {
	ID   tasks.EntityID
	Loc  Location
	Pair tasks.EntityID
}

type ConstructionSite struct {
	ID       tasks.EntityID
	Loc      Location
	Required float64
	Progress float64
}

func (c *ConstructionSite) Complete() bool { return c.Progress >= c.Required }

func sortedIDs[V any](m map[tasks.EntityID]V) []tasks.EntityID {
	ids := make([]tasks.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sortEntityIDs(ids)
	return ids
}

func sortEntityIDs(ids []tasks.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
