package instance

import "github.com/go-gl/mathgl/mgl32"

// ColorClass buckets an instance by magnitude.
type ColorClass int

const (
	// ColorClassLow is any magnitude below MidThreshold.
	ColorClassLow ColorClass = iota
	// ColorClassMid covers MidThreshold through HighThreshold inclusive.
	ColorClassMid
	// ColorClassHigh is any magnitude above HighThreshold.
	ColorClassHigh
)

// Class boundaries. Both boundary values classify as Mid.
const (
	MidThreshold  = 1.5
	HighThreshold = 2.2
)

var classColors = [...]mgl32.Vec3{
	ColorClassLow:  {20.0 / 255, 176.0 / 255, 77.0 / 255},
	ColorClassMid:  {180.0 / 255, 155.0 / 255, 41.0 / 255},
	ColorClassHigh: {221.0 / 255, 22.0 / 255, 14.0 / 255},
}

// ClassOf returns the color class for a magnitude.
func ClassOf(magnitude float64) ColorClass {
	switch {
	case magnitude < MidThreshold:
		return ColorClassLow
	case magnitude <= HighThreshold:
		return ColorClassMid
	default:
		return ColorClassHigh
	}
}

// Color returns the linear RGB triple of the class, each channel in [0,1].
func (c ColorClass) Color() mgl32.Vec3 {
	if c < ColorClassLow || c > ColorClassHigh {
		return mgl32.Vec3{1, 1, 1}
	}
	return classColors[c]
}

func (c ColorClass) String() string {
	switch c {
	case ColorClassLow:
		return "low"
	case ColorClassMid:
		return "mid"
	case ColorClassHigh:
		return "high"
	default:
		return "unknown"
	}
}
