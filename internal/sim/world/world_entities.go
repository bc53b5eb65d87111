package world

import (
	"errors"
	"fmt"

	"fleetsim/internal/sim/clock"
	"fleetsim/internal/sim/tasks"
)

var (
	ErrDuplicateEntity = errors.New("duplicate entity id")
	ErrInvalidEntity   = errors.New("invalid entity")
)

type ShipSpec struct {
	ID            tasks.EntityID
	Name          string
	Loc           Location
	Speed         float64
	CargoCapacity int
	Cargo         map[string]int
	Credits       int
	Behavior      *Behavior
}

type StationSpec struct {
	ID     tasks.EntityID
	Name   string
	Loc    Location
	Bays   int
	Market map[string]Ware
}

// The Add*/Remove* methods mutate world state directly: call them before Run
// starts or between StepOnce calls.

func (w *World) checkNewID(id tasks.EntityID) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEntity)
	}
	if w.exists(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, id)
	}
	return nil
}

func (w *World) AddShip(spec ShipSpec) error {
	if err := w.checkNewID(spec.ID); err != nil {
		return err
	}
	if spec.Speed <= 0 {
		return fmt.Errorf("%w: ship %s speed must be > 0", ErrInvalidEntity, spec.ID)
	}
	s := &Ship{
		ID:      spec.ID,
		Name:    spec.Name,
		Loc:     spec.Loc,
		Speed:   spec.Speed,
		Cargo:   NewCargo(spec.CargoCapacity),
		Credits: spec.Credits,
	}
	for _, item := range sortedKeys(spec.Cargo) {
		if s.Cargo.Add(item, spec.Cargo[item]) < spec.Cargo[item] {
			return fmt.Errorf("%w: ship %s cargo exceeds capacity", ErrInvalidEntity, spec.ID)
		}
	}
	if spec.Behavior != nil {
		b := *spec.Behavior
		b.NextIdleUpdate = clock.MinTimestamp
		s.Behavior = &b
	}
	w.ships[s.ID] = s
	return nil
}

func (w *World) AddStation(spec StationSpec) error {
	if err := w.checkNewID(spec.ID); err != nil {
		return err
	}
	if spec.Bays <= 0 {
		return fmt.Errorf("%w: station %s needs at least one bay", ErrInvalidEntity, spec.ID)
	}
	st := &Station{
		ID:     spec.ID,
		Name:   spec.Name,
		Loc:    spec.Loc,
		Market: map[string]*Ware{},
		access: newAccessController(spec.Bays),
	}
	for item, ware := range spec.Market {
		v := ware
		st.Market[item] = &v
	}
	w.stations[st.ID] = st
	return nil
}

func (w *World) AddAsteroid(a Asteroid) error {
	if err := w.checkNewID(a.ID); err != nil {
		return err
	}
	if a.Item == "" {
		return fmt.Errorf("%w: asteroid %s has no item", ErrInvalidEntity, a.ID)
	}
	w.asteroids[a.ID] = &a
	return nil
}

func (w *World) AddGasCloud(c GasCloud) error {
	if err := w.checkNewID(c.ID); err != nil {
		return err
	}
	if c.Item == "" {
		return fmt.Errorf("%w: gas cloud %s has no item", ErrInvalidEntity, c.ID)
	}
	w.clouds[c.ID] = &c
	return nil
}

// AddGatePair links two gates, normally in different sectors.
func (w *World) AddGatePair(a, b Gate) error {
	if err := w.checkNewID(a.ID); err != nil {
		return err
	}
	if err := w.checkNewID(b.ID); err != nil {
		return err
	}
	if a.ID == b.ID {
		return fmt.Errorf("%w: gate %s paired with itself", ErrInvalidEntity, a.ID)
	}
	a.Pair, b.Pair = b.ID, a.ID
	w.gates[a.ID] = &a
	w.gates[b.ID] = &b
	w.gateRouter = nil
	return nil
}

func (w *World) AddConstructionSite(site ConstructionSite) error {
	if err := w.checkNewID(site.ID); err != nil {
		return err
	}
	if site.Required <= 0 {
		return fmt.Errorf("%w: site %s requires no work", ErrInvalidEntity, site.ID)
	}
	w.sites[site.ID] = &site
	return nil
}

// RemoveEntity destroys anything with the given id. Tasks targeting it abort
// on their next update; a removed ship gives back any docking bay it held.
func (w *World) RemoveEntity(id tasks.EntityID) bool {
	if s := w.ships[id]; s != nil {
		for _, stID := range sortedIDs(w.stations) {
			st := w.stations[stID]
			st.access.unpark(id)
			if st.access.holds(id) {
				w.releaseBay(st, id)
			}
		}
		delete(w.ships, id)
		return true
	}
	if _, ok := w.stations[id]; ok {
		delete(w.stations, id)
		return true
	}
	if _, ok := w.asteroids[id]; ok {
		delete(w.asteroids, id)
		return true
	}
	if _, ok := w.clouds[id]; ok {
		delete(w.clouds, id)
		return true
	}
	if _, ok := w.gates[id]; ok {
		delete(w.gates, id)
		w.gateRouter = nil
		return true
	}
	if _, ok := w.sites[id]; ok {
		delete(w.sites, id)
		return true
	}
	return false
}
