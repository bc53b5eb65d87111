package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fleetsim/internal/sim/tuning"
	"fleetsim/internal/sim/world"
)

const sample = `
world_id: demo
stations:
  - id: HUB
    sector: A
    at: [100, 0]
    bays: 2
    market:
      ORE: {buy: 10, sell: 12, stock: 0, max_stock: 500}
asteroids:
  - id: ROCK
    sector: B
    at: [0, 50]
    item: ORE
    remaining: 1000
gates:
  - a: {id: GA, sector: A, at: [200, 0]}
    b: {id: GB, sector: B, at: [0, 0]}
ships:
  - id: MINER
    sector: A
    at: [0, 0]
    speed: 100
    cargo_capacity: 50
    behavior: auto_mine
    item: ORE
  - id: IDLE
    sector: A
    at: [5, 5]
    speed: 80
    cargo_capacity: 10
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	cfg, err := Load(writeScenario(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorldID != "demo" || len(cfg.Ships) != 2 || cfg.Ships[0].Behavior != "AUTO_MINE" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Ships[1].Name != "IDLE" {
		t.Fatalf("name default not applied: %+v", cfg.Ships[1])
	}

	w, err := world.New(world.WorldConfig{ID: cfg.WorldID, Tuning: tuning.Defaults()})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if err := cfg.Apply(w); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, ok := w.ShipView("MINER")
	if !ok {
		t.Fatalf("MINER missing")
	}
	if v.Behavior != "AUTO_MINE" || v.Sector != "A" {
		t.Fatalf("view=%+v", v)
	}
	if got := w.FreeBays("HUB"); got != 2 {
		t.Fatalf("free bays=%d want 2", got)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
stations: [{id: X, sector: A, at: [0, 0]}]
asteroids: [{id: X, sector: A, at: [1, 1], item: ORE}]
`,
		"missing sector": `
ships: [{id: S, at: [0, 0], speed: 1}]
`,
		"mining without item": `
ships: [{id: S, sector: A, at: [0, 0], speed: 1, behavior: AUTO_MINE}]
`,
		"unknown behavior": `
ships: [{id: S, sector: A, at: [0, 0], speed: 1, behavior: PIRATE}]
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeScenario(t, body))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err=%v want ErrInvalid", err)
			}
		})
	}
}
