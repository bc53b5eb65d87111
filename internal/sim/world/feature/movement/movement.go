package movement

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// StepToward moves from toward to by at most maxStep, aiming for a point stop
// units short of the target. arrived reports whether the ship is now within
// stop of the target.
func StepToward(from, to orb.Point, maxStep, stop float64) (next orb.Point, arrived bool) {
	d := planar.Distance(from, to)
	if d <= stop {
		return from, true
	}
	travel := d - stop
	if maxStep <= 0 {
		return from, false
	}
	if maxStep >= travel {
		return lerp(from, to, travel/d), true
	}
	return lerp(from, to, maxStep/d), false
}

func InRange(a, b orb.Point, r float64) bool {
	return planar.Distance(a, b) <= r
}

// GateProgress advances a gate transit by dt out of the full transit time.
// The result is clamped to 1.
func GateProgress(progress float64, dt, transit time.Duration) float64 {
	if transit <= 0 {
		return 1
	}
	p := progress + float64(dt)/float64(transit)
	if p > 1 {
		return 1
	}
	return p
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}
