package work

import (
	"testing"
	"time"
)

func TestMineReservation(t *testing.T) {
	if got := MineReservation(25, 10, 100); got != 10 {
		t.Fatalf("limited by cargo: got %d want 10", got)
	}
	if got := MineReservation(25, 100, 4); got != 4 {
		t.Fatalf("limited by asteroid: got %d want 4", got)
	}
	if got := MineReservation(25, 0, 100); got != 0 {
		t.Fatalf("full hold must reserve nothing, got %d", got)
	}
}

func TestHarvestStep_CarriesFraction(t *testing.T) {
	units, carry := HarvestStep(0, 5, 100*time.Millisecond, 100)
	if units != 0 || carry != 0.5 {
		t.Fatalf("tick1 units=%d carry=%v", units, carry)
	}
	units, carry = HarvestStep(carry, 5, 100*time.Millisecond, 100)
	if units != 1 || carry != 0 {
		t.Fatalf("tick2 units=%d carry=%v", units, carry)
	}
	units, _ = HarvestStep(0, 50, time.Second, 3)
	if units != 3 {
		t.Fatalf("harvest must clamp to free room, got %d", units)
	}
}

func TestExchangeClamps(t *testing.T) {
	if got := SellAmount(50, 30, 100); got != 30 {
		t.Fatalf("SellAmount=%d want 30", got)
	}
	if got := SellAmount(50, 80, 20); got != 20 {
		t.Fatalf("SellAmount=%d want 20", got)
	}
	if got := BuyAmount(50, 40, 100, 90, 3); got != 30 {
		t.Fatalf("BuyAmount=%d want 30 (credits bound)", got)
	}
	if got := ExchangeDuration(50, 20*time.Millisecond); got != time.Second {
		t.Fatalf("ExchangeDuration=%v", got)
	}
	if ProgressFraction(time.Second, 4*time.Second) != 0.25 {
		t.Fatalf("ProgressFraction mismatch")
	}
}
