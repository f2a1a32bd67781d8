package flipbook

import "math"

// Clock supplies the frame rate and speed multiplier the scheduler uses to
// compute each tick's delta. The core never reads the wall clock.
type Clock interface {
	FPS() float64
	Speed() float64
}

// FixedClock is a constant Clock. Zero fields default to 60 fps at speed 1.
type FixedClock struct {
	Rate       float64
	Multiplier float64
}

func (c FixedClock) FPS() float64 {
	if c.Rate <= 0 {
		return 60
	}
	return c.Rate
}

func (c FixedClock) Speed() float64 {
	if c.Multiplier <= 0 {
		return 1
	}
	return c.Multiplier
}

// DeltaTime is the logical time one tick advances a running task by.
func DeltaTime(c Clock) float64 {
	return c.Speed() / c.FPS()
}

// FramesToSeconds converts a frame count to seconds at c's frame rate.
func FramesToSeconds(c Clock, frames float64) float64 {
	return frames / c.FPS()
}

// SecondsToFrames converts seconds to a whole number of frames, rounding up.
func SecondsToFrames(c Clock, seconds float64) int {
	return int(math.Ceil(seconds * c.FPS()))
}
