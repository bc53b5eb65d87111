// Package scenario loads the starting fleet and map of a world from YAML.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"fleetsim/internal/sim/route"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world"
)

var ErrInvalid = errors.New("invalid scenario")

type Config struct {
	WorldID   string         `yaml:"world_id"`
	Ships     []ShipSpec     `yaml:"ships"`
	Stations  []StationSpec  `yaml:"stations"`
	Asteroids []AsteroidSpec `yaml:"asteroids"`
	Clouds    []CloudSpec    `yaml:"gas_clouds"`
	Gates     []GateLinkSpec `yaml:"gates"`
	Sites     []SiteSpec     `yaml:"construction_sites"`
}

// Position is a sector plus planar coordinates.
type Position struct {
	Sector string     `yaml:"sector"`
	At     [2]float64 `yaml:"at"`
}

func (p Position) loc() world.Location {
	return world.Location{Sector: route.SectorID(p.Sector), Pos: orb.Point{p.At[0], p.At[1]}}
}

type ShipSpec struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Position      `yaml:",inline"`
	Speed         float64        `yaml:"speed"`
	CargoCapacity int            `yaml:"cargo_capacity"`
	Cargo         map[string]int `yaml:"cargo,omitempty"`
	Credits       int            `yaml:"credits"`
	Behavior      string         `yaml:"behavior,omitempty"`
	Item          string         `yaml:"item,omitempty"`
}

type WareSpec struct {
	Buy      int `yaml:"buy"`
	Sell     int `yaml:"sell"`
	Stock    int `yaml:"stock"`
	MaxStock int `yaml:"max_stock"`
}

type StationSpec struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Position `yaml:",inline"`
	Bays     int                 `yaml:"bays"`
	Market   map[string]WareSpec `yaml:"market"`
}

type AsteroidSpec struct {
	ID        string `yaml:"id"`
	Position  `yaml:",inline"`
	Item      string `yaml:"item"`
	Remaining int    `yaml:"remaining"`
}

type CloudSpec struct {
	ID       string `yaml:"id"`
	Position `yaml:",inline"`
	Item     string `yaml:"item"`
}

type GateEnd struct {
	ID       string `yaml:"id"`
	Position `yaml:",inline"`
}

// GateLinkSpec is a pair of gates jumping between two sectors.
type GateLinkSpec struct {
	A GateEnd `yaml:"a"`
	B GateEnd `yaml:"b"`
}

type SiteSpec struct {
	ID       string `yaml:"id"`
	Position `yaml:",inline"`
	Required float64 `yaml:"required"`
}

func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	c.WorldID = strings.TrimSpace(c.WorldID)
	for i := range c.Ships {
		s := &c.Ships[i]
		s.ID = strings.TrimSpace(s.ID)
		s.Behavior = strings.ToUpper(strings.TrimSpace(s.Behavior))
		if s.Name == "" {
			s.Name = s.ID
		}
	}
	for i := range c.Stations {
		st := &c.Stations[i]
		st.ID = strings.TrimSpace(st.ID)
		if st.Name == "" {
			st.Name = st.ID
		}
		if st.Bays <= 0 {
			st.Bays = 1
		}
	}
}

// Validate catches mistakes that world.Add* would report one at a time.
func (c Config) Validate() error {
	seen := map[string]bool{}
	check := func(what, id, sector string) error {
		if id == "" {
			return fmt.Errorf("%w: %s with empty id", ErrInvalid, what)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalid, id)
		}
		seen[id] = true
		if strings.TrimSpace(sector) == "" {
			return fmt.Errorf("%w: %s %s has no sector", ErrInvalid, what, id)
		}
		return nil
	}
	for _, s := range c.Ships {
		if err := check("ship", s.ID, s.Sector); err != nil {
			return err
		}
		if s.Behavior != "" {
			kind, err := world.ParseBehaviorKind(s.Behavior)
			if err != nil {
				return fmt.Errorf("%w: ship %s: %v", ErrInvalid, s.ID, err)
			}
			if kind == world.AutoMine && s.Item == "" {
				return fmt.Errorf("%w: ship %s: AUTO_MINE needs an item", ErrInvalid, s.ID)
			}
		}
	}
	for _, st := range c.Stations {
		if err := check("station", st.ID, st.Sector); err != nil {
			return err
		}
	}
	for _, a := range c.Asteroids {
		if err := check("asteroid", a.ID, a.Sector); err != nil {
			return err
		}
	}
	for _, g := range c.Clouds {
		if err := check("gas cloud", g.ID, g.Sector); err != nil {
			return err
		}
	}
	for _, l := range c.Gates {
		if err := check("gate", l.A.ID, l.A.Sector); err != nil {
			return err
		}
		if err := check("gate", l.B.ID, l.B.Sector); err != nil {
			return err
		}
	}
	for _, s := range c.Sites {
		if err := check("construction site", s.ID, s.Sector); err != nil {
			return err
		}
	}
	return nil
}

// Apply adds every entity to w. Call it before the world loop starts.
func (c Config) Apply(w *world.World) error {
	for _, st := range c.Stations {
		market := make(map[string]world.Ware, len(st.Market))
		for item, ware := range st.Market {
			market[item] = world.Ware{Buy: ware.Buy, Sell: ware.Sell, Stock: ware.Stock, MaxStock: ware.MaxStock}
		}
		if err := w.AddStation(world.StationSpec{
			ID:     tasks.EntityID(st.ID),
			Name:   st.Name,
			Loc:    st.loc(),
			Bays:   st.Bays,
			Market: market,
		}); err != nil {
			return err
		}
	}
	for _, a := range c.Asteroids {
		if err := w.AddAsteroid(world.Asteroid{ID: tasks.EntityID(a.ID), Loc: a.loc(), Item: a.Item, Remaining: a.Remaining}); err != nil {
			return err
		}
	}
	for _, g := range c.Clouds {
		if err := w.AddGasCloud(world.GasCloud{ID: tasks.EntityID(g.ID), Loc: g.loc(), Item: g.Item}); err != nil {
			return err
		}
	}
	for _, l := range c.Gates {
		a := world.Gate{ID: tasks.EntityID(l.A.ID), Loc: l.A.loc()}
		b := world.Gate{ID: tasks.EntityID(l.B.ID), Loc: l.B.loc()}
		if err := w.AddGatePair(a, b); err != nil {
			return err
		}
	}
	for _, s := range c.Sites {
		if err := w.AddConstructionSite(world.ConstructionSite{ID: tasks.EntityID(s.ID), Loc: s.loc(), Required: s.Required}); err != nil {
			return err
		}
	}
	for _, s := range c.Ships {
		spec := world.ShipSpec{
			ID:            tasks.EntityID(s.ID),
			Name:          s.Name,
			Loc:           s.loc(),
			Speed:         s.Speed,
			CargoCapacity: s.CargoCapacity,
			Cargo:         s.Cargo,
			Credits:       s.Credits,
		}
		if s.Behavior != "" {
			kind, err := world.ParseBehaviorKind(s.Behavior)
			if err != nil {
				return err
			}
			spec.Behavior = &world.Behavior{Kind: kind, Item: s.Item}
		}
		if err := w.AddShip(spec); err != nil {
			return err
		}
	}
	return nil
}
