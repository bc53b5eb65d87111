package worldtest

import (
	"testing"

	"fleetsim/internal/sim/tasks"
	world "fleetsim/internal/sim/world"
)

func TestHarvestGas(t *testing.T) {
	t.Run("full hold aborts at start", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddGasCloud(world.GasCloud{ID: "G", Loc: At("A", 0, 0), Item: "GAS"})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 5, 0), CargoCapacity: 2, Cargo: map[string]int{"ORE": 2}})
		ids := h.Assign("S1", &tasks.HarvestGas{Target: "G"})
		h.Step()

		ev, ok := h.Completion(ids[0])
		if !ok || ev.Outcome != world.Aborted || ev.Reason != "hold full" {
			t.Fatalf("completion=%+v ok=%v", ev, ok)
		}
		if got := h.Ship("S1").Cargo.Held("GAS"); got != 0 {
			t.Fatalf("gas=%d want 0", got)
		}
	})

	t.Run("fills hold carrying fractions", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddGasCloud(world.GasCloud{ID: "G", Loc: At("A", 0, 0), Item: "GAS"})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 5, 0), CargoCapacity: 2})
		ids := h.Assign("S1", &tasks.HarvestGas{Target: "G"})

		// 5 units/s at 10Hz is half a unit per tick.
		want := []struct {
			held int
			acc  float64
		}{{0, 0.5}, {1, 0}, {1, 0.5}}
		for i, w := range want {
			h.Step()
			s := h.Ship("S1")
			if s.Active == nil || s.Active.ID != ids[0] {
				t.Fatalf("tick %d: active=%+v want %s", i+1, s.Active, ids[0])
			}
			task := s.Active.Task.(*tasks.HarvestGas)
			if task.Item != "GAS" {
				t.Fatalf("tick %d: item=%q want GAS from the cloud", i+1, task.Item)
			}
			if got := s.Cargo.Held("GAS"); got != w.held || task.Accumulated != w.acc {
				t.Fatalf("tick %d: held=%d acc=%v want %d %v", i+1, got, task.Accumulated, w.held, w.acc)
			}
		}

		h.Step()
		ev, ok := h.Completion(ids[0])
		if !ok || ev.Outcome != world.Finished {
			t.Fatalf("completion=%+v ok=%v", ev, ok)
		}
		if got := h.Ship("S1").Cargo.Held("GAS"); got != 2 {
			t.Fatalf("gas=%d want 2", got)
		}
	})

	t.Run("out of range aborts", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddGasCloud(world.GasCloud{ID: "G", Loc: At("A", 0, 0), Item: "GAS"})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 500, 0), CargoCapacity: 2})
		ids := h.Assign("S1", &tasks.HarvestGas{Target: "G"})
		h.Step()

		ev, ok := h.Completion(ids[0])
		if !ok || ev.Outcome != world.Aborted || ev.Reason != "out of range" {
			t.Fatalf("completion=%+v ok=%v", ev, ok)
		}
	})
}
