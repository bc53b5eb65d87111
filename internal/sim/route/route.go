package route

import (
	"sort"

	"fleetsim/internal/sim/tasks"
)

type SectorID string

// TransitStep leaves the current sector through ExitGate and arrives at
// EntryGate inside To.
type TransitStep struct {
	ExitGate  tasks.EntityID
	EntryGate tasks.EntityID
	To        SectorID
}

// Searcher finds a gate path between sectors. ok=false means no path; an
// empty slice with ok=true means from == to.
type Searcher interface {
	Search(from, to SectorID) (steps []TransitStep, ok bool)
}

// GateLink is one directed jump: a gate in From paired with a gate in To.
type GateLink struct {
	From      SectorID
	To        SectorID
	ExitGate  tasks.EntityID
	EntryGate tasks.EntityID
}

// GateGraph is a breadth-first Searcher over gate links. Neighbors are
// visited in a stable order so equal-length paths resolve deterministically.
type GateGraph struct {
	links map[SectorID][]GateLink
}

func NewGateGraph(links []GateLink) *GateGraph {
	g := &GateGraph{links: map[SectorID][]GateLink{}}
	for _, l := range links {
		g.links[l.From] = append(g.links[l.From], l)
	}
	for _, ls := range g.links {
		sort.Slice(ls, func(i, j int) bool {
			if ls[i].To != ls[j].To {
				return ls[i].To < ls[j].To
			}
			return ls[i].ExitGate < ls[j].ExitGate
		})
	}
	return g
}

func (g *GateGraph) Search(from, to SectorID) ([]TransitStep, bool) {
	if from == to {
		return []TransitStep{}, true
	}
	if g == nil {
		return nil, false
	}
	prev := map[SectorID]GateLink{from: {}}
	frontier := []SectorID{from}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, l := range g.links[cur] {
			if _, seen := prev[l.To]; seen {
				continue
			}
			prev[l.To] = l
			if l.To == to {
				return unwind(prev, from, to), true
			}
			frontier = append(frontier, l.To)
		}
	}
	return nil, false
}

func unwind(prev map[SectorID]GateLink, from, to SectorID) []TransitStep {
	var rev []TransitStep
	for cur := to; cur != from; {
		l := prev[cur]
		rev = append(rev, TransitStep{ExitGate: l.ExitGate, EntryGate: l.EntryGate, To: l.To})
		cur = l.From
	}
	out := make([]TransitStep, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}
