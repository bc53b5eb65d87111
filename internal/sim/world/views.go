package world

import (
	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

// Direct accessors return live state. Use them only between StepOnce calls.

func (w *World) Ship(id tasks.EntityID) *Ship                         { return w.ships[id] }
func (w *World) Station(id tasks.EntityID) *Station                   { return w.stations[id] }
func (w *World) Asteroid(id tasks.EntityID) *Asteroid                 { return w.asteroids[id] }
func (w *World) ConstructionSite(id tasks.EntityID) *ConstructionSite { return w.sites[id] }

// FreeBays reports how many docking bays of a station are unclaimed.
func (w *World) FreeBays(id tasks.EntityID) int {
	st := w.stations[id]
	if st == nil {
		return 0
	}
	return st.access.freeBays()
}

type ActiveView struct {
	ID      tasks.ID        `json:"id"`
	Kind    tasks.Kind      `json:"kind"`
	Started clock.Timestamp `json:"started"`
	Record  tasks.Record    `json:"record"`
}

type QueuedView struct {
	ID     tasks.ID     `json:"id"`
	Record tasks.Record `json:"record"`
}

// ShipView is a detached copy of a ship's task state.
type ShipView struct {
	ID       tasks.EntityID `json:"id"`
	Name     string         `json:"name,omitempty"`
	Sector   string         `json:"sector"`
	Pos      [2]float64     `json:"pos"`
	DockedAt tasks.EntityID `json:"docked_at,omitempty"`
	Cargo    map[string]int `json:"cargo,omitempty"`
	Credits  int            `json:"credits"`
	Active   *ActiveView    `json:"active,omitempty"`
	Queue    []QueuedView   `json:"queue,omitempty"`
	Behavior string         `json:"behavior,omitempty"`
	State    string         `json:"state,omitempty"`
}

func (w *World) ShipView(id tasks.EntityID) (ShipView, bool) {
	s := w.ships[id]
	if s == nil {
		return ShipView{}, false
	}
	v := ShipView{
		ID:       s.ID,
		Name:     s.Name,
		Sector:   string(s.Loc.Sector),
		Pos:      [2]float64{s.Loc.Pos[0], s.Loc.Pos[1]},
		DockedAt: s.DockedAt,
		Cargo:    s.Cargo.clone().Items,
		Credits:  s.Credits,
	}
	if s.Active != nil {
		v.Active = &ActiveView{
			ID:      s.Active.ID,
			Kind:    s.Active.Kind(),
			Started: s.Active.Meta.Started,
			Record:  tasks.ToRecord(s.Active.Task),
		}
	}
	for _, e := range s.Queue.Entries() {
		v.Queue = append(v.Queue, QueuedView{ID: e.ID, Record: tasks.ToRecord(e.Task)})
	}
	if b := s.Behavior; b != nil {
		v.Behavior = b.Kind.String()
		if b.Kind == AutoMine {
			v.State = b.State.String()
		}
	}
	return v, true
}
