package worldtest

import (
	"testing"

	"fleetsim/internal/sim/tasks"
	world "fleetsim/internal/sim/world"
)

func startedIDs(evs []world.TaskEvent) []tasks.ID {
	var out []tasks.ID
	for _, ev := range evs {
		if ev.Phase == world.PhaseStarted {
			out = append(out, ev.TaskID)
		}
	}
	return out
}

func TestQueue_PromotesInPushOrder(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{})
	h.AddStation(world.StationSpec{ID: "ST", Loc: At("A", 10, 0)})
	h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 0, 0)})

	// Every task finishes on its first update, forcing one completion per tick.
	ids := h.Assign("S1",
		&tasks.Undock{},
		&tasks.MoveToEntity{Target: "ST", StopDistance: 100},
		&tasks.Undock{},
		&tasks.MoveToEntity{Target: "ST", StopDistance: 100},
		&tasks.Undock{},
	)
	for i := range ids {
		e := h.Step()
		done := 0
		for _, ev := range e.Events {
			if ev.Phase == world.PhaseCompleted {
				done++
				if ev.TaskID != ids[i] || ev.Outcome != world.Finished {
					t.Fatalf("tick %d completed %s (%s) want %s finished", e.Tick, ev.TaskID, ev.Outcome, ids[i])
				}
			}
		}
		if done != 1 {
			t.Fatalf("tick %d: %d completions, want 1", e.Tick, done)
		}
	}
	got := startedIDs(h.Events("S1"))
	if len(got) != len(ids) {
		t.Fatalf("started %v want %v", got, ids)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("started %v want %v", got, ids)
		}
	}
	if s := h.Ship("S1"); !s.Idle() {
		t.Fatalf("ship not idle after queue drained: active=%v queue=%d", s.Active, s.Queue.Len())
	}
}

func TestPromotion_OnlyWithQueuedWorkAndOnePerTick(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{})
	h.AddStation(world.StationSpec{ID: "FAR", Loc: At("A", 10000, 0)})
	h.AddShip(world.ShipSpec{ID: "IDLE", Loc: At("A", 0, 0)})
	h.AddShip(world.ShipSpec{ID: "BUSY", Loc: At("A", 0, 0)})
	h.Assign("BUSY",
		&tasks.MoveToEntity{Target: "FAR", StopDistance: 1},
		&tasks.MoveToEntity{Target: "FAR", StopDistance: 1},
	)

	h.Step()
	if n := len(h.Events("IDLE")); n != 0 {
		t.Fatalf("idle ship produced %d events", n)
	}
	if got := startedIDs(h.Events("BUSY")); len(got) != 1 {
		t.Fatalf("busy ship started %d tasks on first tick, want 1", len(got))
	}
	if n := h.Ship("BUSY").Queue.Len(); n != 1 {
		t.Fatalf("queue len=%d want 1", n)
	}

	h.StepN(3)
	if got := startedIDs(h.Events("BUSY")); len(got) != 1 {
		t.Fatalf("promoted while a task was active: %v", got)
	}
}

func TestChainedCompletion_MoveThenSellWithoutIdleTick(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{})
	h.AddStation(world.StationSpec{
		ID:     "A",
		Loc:    At("S", 50, 0),
		Market: map[string]world.Ware{"ORE": {Buy: 10, MaxStock: 1000}},
	})
	h.AddShip(world.ShipSpec{ID: "S1", Loc: At("S", 0, 0), Speed: 200, CargoCapacity: 100, Cargo: map[string]int{"ORE": 60}})
	ids := h.Assign("S1",
		&tasks.MoveToEntity{Target: "A", StopDistance: 10},
		&tasks.ExchangeWares{Target: "A", Item: "ORE", Amount: 50, Sell: true},
	)

	ticks := h.StepUntil(10, func() bool {
		_, done := h.Completion(ids[0])
		return done
	})
	if ticks != 2 {
		t.Fatalf("move finished after %d ticks, want 2", ticks)
	}
	last := h.Log[len(h.Log)-1]
	var startedSell bool
	for _, ev := range last.Events {
		if ev.Phase == world.PhaseStarted && ev.TaskID == ids[1] {
			startedSell = true
		}
	}
	if !startedSell {
		t.Fatalf("exchange did not start in the tick the move finished: %+v", last.Events)
	}
	if k, ok := h.ActiveKind("S1"); !ok || k != tasks.KindExchangeWares {
		t.Fatalf("active=%v,%v want EXCHANGE_WARES", k, ok)
	}

	h.StepUntil(20, func() bool { return h.Ship("S1").Idle() })
	ev, ok := h.Completion(ids[1])
	if !ok || ev.Outcome != world.Finished {
		t.Fatalf("exchange completion=%+v ok=%v", ev, ok)
	}
	if ev.Record == nil || ev.Record.Transferred != 50 {
		t.Fatalf("record=%+v want transferred 50", ev.Record)
	}
	s := h.Ship("S1")
	if s.Cargo.Held("ORE") != 10 || s.Credits != 500 {
		t.Fatalf("cargo ORE=%d credits=%d want 10/500", s.Cargo.Held("ORE"), s.Credits)
	}
	if st := h.W.Station("A"); st.Market["ORE"].Stock != 50 {
		t.Fatalf("station stock=%d want 50", st.Market["ORE"].Stock)
	}
}

func TestCancelQueued_Idempotent(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{})
	h.AddStation(world.StationSpec{ID: "FAR", Loc: At("A", 10000, 0)})
	h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 0, 0)})
	ids := h.Assign("S1",
		&tasks.MoveToEntity{Target: "FAR", StopDistance: 1},
		&tasks.MoveToEntity{Target: "FAR", StopDistance: 2},
		&tasks.MoveToEntity{Target: "FAR", StopDistance: 3},
	)
	h.Step()

	cancel := world.CancelRequest{Ship: "S1", TaskID: ids[1]}
	e := h.StepWith(world.StepInput{Cancels: []world.CancelRequest{cancel, cancel}})
	if len(e.Cancels) != 2 || !e.Cancels[0].Applied || e.Cancels[1].Applied {
		t.Fatalf("cancel results=%+v want applied then no-op", e.Cancels)
	}
	e = h.StepWith(world.StepInput{Cancels: []world.CancelRequest{cancel}})
	if len(e.Cancels) != 1 || e.Cancels[0].Applied {
		t.Fatalf("repeat cancel results=%+v want no-op", e.Cancels)
	}

	s := h.Ship("S1")
	entries := s.Queue.Entries()
	if len(entries) != 1 || entries[0].ID != ids[2] {
		t.Fatalf("queue=%v want only %s", entries, ids[2])
	}
	if s.Active == nil || s.Active.ID != ids[0] {
		t.Fatalf("active task changed: %+v", s.Active)
	}
}

func TestCancelActive_GatedByKind(t *testing.T) {
	t.Run("gate transit keeps running", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddGatePair(world.Gate{ID: "GA", Loc: At("A", 0, 0)}, world.Gate{ID: "GB", Loc: At("B", 0, 0)})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 1, 0)})
		ids := h.Assign("S1", &tasks.UseGate{Enter: "GA", Exit: "GB"})
		h.Step()
		before := h.Ship("S1").Active.Task.(*tasks.UseGate).Progress

		e := h.StepWith(world.StepInput{Cancels: []world.CancelRequest{{Ship: "S1", Active: true}}})
		if len(e.Cancels) != 1 || e.Cancels[0].Applied {
			t.Fatalf("cancel results=%+v want refused", e.Cancels)
		}
		s := h.Ship("S1")
		if s.Active == nil || s.Active.ID != ids[0] {
			t.Fatalf("gate transit interrupted: %+v", s.Active)
		}
		if after := s.Active.Task.(*tasks.UseGate).Progress; after <= before {
			t.Fatalf("progress %v -> %v, want advancing", before, after)
		}

		h.StepUntil(40, func() bool { return h.Ship("S1").Idle() })
		if ev, _ := h.Completion(ids[0]); ev.Outcome != world.Finished {
			t.Fatalf("gate completion=%+v", ev)
		}
		if got := h.Ship("S1").Loc.Sector; got != "B" {
			t.Fatalf("sector=%s want B", got)
		}
	})

	t.Run("movement aborts and clears queue", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddStation(world.StationSpec{ID: "FAR", Loc: At("A", 10000, 0)})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 0, 0)})
		ids := h.Assign("S1",
			&tasks.MoveToEntity{Target: "FAR", StopDistance: 1},
			&tasks.RequestAccess{Target: "FAR"},
		)
		h.Step()

		e := h.StepWith(world.StepInput{Cancels: []world.CancelRequest{{Ship: "S1", Active: true}}})
		if len(e.Cancels) != 1 || !e.Cancels[0].Applied || e.Cancels[0].TaskID != ids[0] {
			t.Fatalf("cancel results=%+v want applied to %s", e.Cancels, ids[0])
		}
		ev, ok := h.Completion(ids[0])
		if !ok || ev.Outcome != world.Aborted || ev.Reason != "cancelled" || ev.Dropped != 1 {
			t.Fatalf("completion=%+v ok=%v", ev, ok)
		}
		if s := h.Ship("S1"); !s.Idle() {
			t.Fatalf("ship not idle: active=%+v queue=%d", s.Active, s.Queue.Len())
		}
	})

	t.Run("mining gives its reservation back", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddAsteroid(world.Asteroid{ID: "R", Loc: At("A", 0, 0), Item: "ORE", Remaining: 100})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 5, 0), CargoCapacity: 50})
		h.Assign("S1", &tasks.MineAsteroid{Target: "R"})
		h.Step()
		if got := h.W.Asteroid("R").Remaining; got != 75 {
			t.Fatalf("remaining after reserve=%d want 75", got)
		}
		h.StepWith(world.StepInput{Cancels: []world.CancelRequest{{Ship: "S1", Active: true}}})
		if got := h.W.Asteroid("R").Remaining; got != 100 {
			t.Fatalf("remaining after cancel=%d want 100", got)
		}
		if got := h.Ship("S1").Cargo.Held("ORE"); got != 0 {
			t.Fatalf("cargo=%d want 0", got)
		}
	})
}

func TestActiveSlot_AtMostOneTaskPerShip(t *testing.T) {
	h := busyScene(t)
	active := map[tasks.EntityID]tasks.ID{}
	for i := 0; i < 300; i++ {
		e := h.Step()
		for _, ev := range e.Events {
			switch ev.Phase {
			case world.PhaseStarted:
				if cur, ok := active[ev.Ship]; ok {
					t.Fatalf("tick %d: ship %s started %s while %s active", e.Tick, ev.Ship, ev.TaskID, cur)
				}
				active[ev.Ship] = ev.TaskID
			case world.PhaseCompleted:
				if active[ev.Ship] != ev.TaskID {
					t.Fatalf("tick %d: ship %s completed %s, active %s", e.Tick, ev.Ship, ev.TaskID, active[ev.Ship])
				}
				delete(active, ev.Ship)
			}
		}
		for id, want := range active {
			s := h.Ship(id)
			if s.Active == nil || s.Active.ID != want {
				t.Fatalf("tick %d: ship %s slot=%+v want %s", e.Tick, id, s.Active, want)
			}
		}
	}
}

// busyScene has miners and traders contending for one single-bay station.
func busyScene(t *testing.T) *Harness {
	t.Helper()
	h := NewHarness(t, world.WorldConfig{})
	h.AddStation(world.StationSpec{
		ID:  "ST",
		Loc: At("A", 0, 50),
		Market: map[string]world.Ware{
			"ORE":  {Buy: 5, Sell: 6, Stock: 0, MaxStock: 10000},
			"FUEL": {Buy: 1, Sell: 2, Stock: 500, MaxStock: 1000},
		},
	})
	h.AddStation(world.StationSpec{
		ID:     "DEPOT",
		Loc:    At("A", 200, 50),
		Market: map[string]world.Ware{"FUEL": {Buy: 4, Sell: 9, MaxStock: 1000}},
	})
	h.AddAsteroid(world.Asteroid{ID: "R", Loc: At("A", 100, 0), Item: "ORE", Remaining: 10000})
	for _, id := range []tasks.EntityID{"M1", "M2", "M3"} {
		h.AddShip(world.ShipSpec{ID: id, Loc: At("A", 0, 0), CargoCapacity: 50,
			Behavior: &world.Behavior{Kind: world.AutoMine, Item: "ORE"}})
	}
	h.AddShip(world.ShipSpec{ID: "T1", Loc: At("A", 0, 0), CargoCapacity: 20, Credits: 100,
		Behavior: &world.Behavior{Kind: world.AutoTrade}})
	return h
}

func TestOrderReplace_CancelsActiveBeforeQueueing(t *testing.T) {
	t.Run("moving ship switches target", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddStation(world.StationSpec{ID: "FAR", Loc: At("A", 10000, 0)})
		h.AddStation(world.StationSpec{ID: "NEAR", Loc: At("A", 50, 0)})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 0, 0)})
		old := h.Assign("S1",
			&tasks.MoveToEntity{Target: "FAR", StopDistance: 1},
			&tasks.DockAtEntity{Target: "FAR"},
		)
		h.Step()

		resp := make(chan []tasks.ID, 1)
		e := h.StepWith(world.StepInput{Orders: []world.Order{{
			Ship:    "S1",
			Tasks:   []tasks.Task{&tasks.MoveToEntity{Target: "NEAR", StopDistance: 1}},
			Replace: true,
			Resp:    resp,
		}}})
		ids := <-resp
		if len(ids) != 1 {
			t.Fatalf("order ids=%v want one", ids)
		}
		if len(e.Cancels) != 1 || !e.Cancels[0].Applied || e.Cancels[0].TaskID != old[0] {
			t.Fatalf("cancel results=%+v want applied to %s", e.Cancels, old[0])
		}
		ev, ok := h.Completion(old[0])
		if !ok || ev.Outcome != world.Aborted || ev.Reason != "cancelled" || ev.Dropped != 0 {
			t.Fatalf("old completion=%+v ok=%v", ev, ok)
		}
		s := h.Ship("S1")
		if s.Active == nil || s.Active.ID != ids[0] {
			t.Fatalf("active=%+v want replacement %s", s.Active, ids[0])
		}
		if s.Queue.Len() != 0 {
			t.Fatalf("queue=%d want 0", s.Queue.Len())
		}

		h.StepUntil(20, func() bool { return h.Ship("S1").Idle() })
		if ev, _ := h.Completion(ids[0]); ev.Outcome != world.Finished {
			t.Fatalf("replacement completion=%+v", ev)
		}
	})

	t.Run("gate transit keeps running and replacement waits", func(t *testing.T) {
		h := NewHarness(t, world.WorldConfig{})
		h.AddGatePair(world.Gate{ID: "GA", Loc: At("A", 0, 0)}, world.Gate{ID: "GB", Loc: At("B", 0, 0)})
		h.AddStation(world.StationSpec{ID: "ST", Loc: At("B", 50, 0)})
		h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 1, 0)})
		old := h.Assign("S1", &tasks.UseGate{Enter: "GA", Exit: "GB"}, &tasks.Undock{})
		h.Step()

		resp := make(chan []tasks.ID, 1)
		e := h.StepWith(world.StepInput{Orders: []world.Order{{
			Ship:    "S1",
			Tasks:   []tasks.Task{&tasks.MoveToEntity{Target: "ST", StopDistance: 1}},
			Replace: true,
			Resp:    resp,
		}}})
		ids := <-resp
		if len(e.Cancels) != 1 || e.Cancels[0].Applied || e.Cancels[0].Reason != "not cancellable while active" {
			t.Fatalf("cancel results=%+v want refused", e.Cancels)
		}
		s := h.Ship("S1")
		if s.Active == nil || s.Active.ID != old[0] {
			t.Fatalf("active=%+v want gate transit %s", s.Active, old[0])
		}
		entries := s.Queue.Entries()
		if len(entries) != 1 || entries[0].ID != ids[0] {
			t.Fatalf("queue=%v want only %s", entries, ids[0])
		}
	})
}

func TestCancelActive_DuplicateInOneTickHitsOneTask(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{})
	h.AddAsteroid(world.Asteroid{ID: "R", Loc: At("A", 0, 0), Item: "ORE", Remaining: 100})
	h.AddShip(world.ShipSpec{ID: "S1", Loc: At("A", 5, 0), CargoCapacity: 50})
	ids := h.Assign("S1", &tasks.MineAsteroid{Target: "R"}, &tasks.MineAsteroid{Target: "R"})
	h.Step()

	cancel := world.CancelRequest{Ship: "S1", Active: true}
	e := h.StepWith(world.StepInput{Cancels: []world.CancelRequest{cancel, cancel}})
	if len(e.Cancels) != 2 {
		t.Fatalf("cancel results=%+v want 2", e.Cancels)
	}
	if !e.Cancels[0].Applied || e.Cancels[0].TaskID != ids[0] {
		t.Fatalf("first cancel=%+v want applied to %s", e.Cancels[0], ids[0])
	}
	if e.Cancels[1].Applied || e.Cancels[1].Reason != "task not active" {
		t.Fatalf("second cancel=%+v want refused as task not active", e.Cancels[1])
	}
	s := h.Ship("S1")
	if s.Active == nil || s.Active.ID != ids[1] {
		t.Fatalf("active=%+v want %s", s.Active, ids[1])
	}
	if _, done := h.Completion(ids[1]); done {
		t.Fatalf("second mining task completed")
	}
}
