package scene

import "math"

// State is the lifecycle state of a Scene. StateDisposed is terminal.
type State int

const (
	StateUninitialized State = iota
	StateAttached
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAttached:
		return "attached"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Threshold control range: the slider runs from MinThreshold to MaxThreshold in ThresholdStep increments.
const (
	MinThreshold  = 0.0
	MaxThreshold  = 5.0
	ThresholdStep = 0.1
)

// ClampThreshold snaps t to the nearest step and clamps it to [MinThreshold, MaxThreshold].
// NaN maps to MinThreshold.
func ClampThreshold(t float64) float64 {
	if math.IsNaN(t) {
		return MinThreshold
	}
	steps := math.Round((t - MinThreshold) / ThresholdStep)
	// rounding to one decimal drops the float error of steps*0.1
	snapped := math.Round((MinThreshold+steps*ThresholdStep)*10) / 10
	return math.Max(MinThreshold, math.Min(MaxThreshold, snapped))
}
