package work

import (
	"math"
	"time"
)

// MineReservation is how much a single mining cycle may take out of an
// asteroid: the cycle yield, limited by free cargo room and what is left.
func MineReservation(yield, free, remaining int) int {
	return max(0, min(yield, free, remaining))
}

// HarvestStep converts a harvest rate into whole units for this tick. The
// fractional remainder is carried in acc for the next tick.
func HarvestStep(acc, perSec float64, dt time.Duration, free int) (units int, carry float64) {
	acc += perSec * dt.Seconds()
	whole := int(math.Floor(acc))
	if whole > free {
		whole = free
	}
	if whole < 0 {
		whole = 0
	}
	return whole, acc - float64(whole)
}

// ExchangeDuration is how long moving amount units through a docking port takes.
func ExchangeDuration(amount int, perUnit time.Duration) time.Duration {
	if amount <= 0 {
		return 0
	}
	return time.Duration(amount) * perUnit
}

// SellAmount clamps a sale to what the ship holds and what the station can store.
func SellAmount(want, held, stationRoom int) int {
	return max(0, min(want, held, stationRoom))
}

// BuyAmount clamps a purchase to cargo room, station stock and affordability.
func BuyAmount(want, free, stock, credits, price int) int {
	n := min(want, free, stock)
	if price > 0 {
		n = min(n, credits/price)
	}
	return max(0, n)
}

// ProgressFraction reports elapsed/total in 0..1.
func ProgressFraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(elapsed) / float64(total)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}
