package instance

import "github.com/Carmen-Shannon/oxy-quake/engine/projection"

// StoreBuilderOption is a functional option for configuring a Store during Build.
type StoreBuilderOption func(*Store)

// WithProjector sets the projection used to place instances.
// Pass the host itself when it offers a native geographic conversion.
//
// Parameters:
//   - p: the projector, nil keeps the default mercator projection
//
// Returns:
//   - StoreBuilderOption: option function to apply
func WithProjector(p projection.Projector) StoreBuilderOption {
	return func(s *Store) {
		if p != nil {
			s.projector = p
		}
	}
}

// WithBaseRadius sets the radius of a magnitude 1 marker before the scale constant is applied.
func WithBaseRadius(r float64) StoreBuilderOption {
	return func(s *Store) {
		if r > 0 {
			s.baseRadius = r
		}
	}
}

// WithScaleConstant sets the magnitude to scale proportionality constant.
func WithScaleConstant(c float64) StoreBuilderOption {
	return func(s *Store) {
		if c > 0 {
			s.scaleConstant = c
		}
	}
}
