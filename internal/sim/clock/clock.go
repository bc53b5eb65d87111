package clock

import (
	"fmt"
	"math"
	"time"
)

// Timestamp is simulation time in milliseconds since the clock was created.
// It only moves when the simulation ticks, never with wall-clock time.
type Timestamp int64

// MinTimestamp sorts before every real timestamp. Behaviors use it to force
// an evaluation on the next tick.
const MinTimestamp Timestamp = math.MinInt64

func FromDuration(d time.Duration) Timestamp { return Timestamp(d.Milliseconds()) }

func (t Timestamp) Add(d time.Duration) Timestamp {
	if t == MinTimestamp {
		return t
	}
	return t + Timestamp(d.Milliseconds())
}

func (t Timestamp) Sub(o Timestamp) time.Duration {
	return time.Duration(int64(t)-int64(o)) * time.Millisecond
}

func (t Timestamp) Before(o Timestamp) bool { return t < o }
func (t Timestamp) After(o Timestamp) bool  { return t > o }

func (t Timestamp) String() string {
	if t == MinTimestamp {
		return "min"
	}
	return fmt.Sprintf("%dms", int64(t))
}

// Clock accumulates tick deltas into a monotonic Timestamp.
// It is owned by the world loop goroutine and is not safe for concurrent use.
type Clock struct {
	now    Timestamp
	paused bool
	ticks  uint64
}

func New() *Clock { return &Clock{} }

// Advance moves the clock forward by delta and returns the new time.
// Paused clocks and non-positive deltas leave the time unchanged.
func (c *Clock) Advance(delta time.Duration) Timestamp {
	c.ticks++
	if c.paused || delta <= 0 {
		return c.now
	}
	c.now += Timestamp(delta.Milliseconds())
	return c.now
}

func (c *Clock) Now() Timestamp { return c.now }
func (c *Clock) Ticks() uint64  { return c.ticks }
func (c *Clock) Pause()         { c.paused = true }
func (c *Clock) Resume()        { c.paused = false }
func (c *Clock) Paused() bool   { return c.paused }
