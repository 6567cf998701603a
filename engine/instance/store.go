package instance

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/paulmach/orb"
)

// Default sizing constants. A magnitude m instance is drawn at uniform scale
// DefaultBaseRadius * DefaultScaleConstant * m applied to a unit sphere.
const (
	DefaultBaseRadius    = 0.01
	DefaultScaleConstant = 1.0 / 1000
)

// Store owns the per-instance transform and color data for every point.
// It is built once and never mutated afterwards, so it is safe for concurrent reads.
type Store struct {
	baseRadius    float64
	scaleConstant float64
	projector     projection.Projector

	transforms []mgl32.Mat4
	classes    []ColorClass
	magnitudes []float64
	bound      orb.Bound
}

// Build projects every record and derives its transform and color class.
// Index i of the store always corresponds to records[i].
//
// Parameters:
//   - records: ordered point records
//   - options: functional options (projector, sizing constants)
//
// Returns:
//   - *Store: the immutable instance store
func Build(records []loader.PointRecord, options ...StoreBuilderOption) *Store {
	s := &Store{
		baseRadius:    DefaultBaseRadius,
		scaleConstant: DefaultScaleConstant,
		projector:     projection.Mercator{},
	}
	for _, opt := range options {
		opt(s)
	}

	n := len(records)
	s.transforms = make([]mgl32.Mat4, n)
	s.classes = make([]ColorClass, n)
	s.magnitudes = make([]float64, n)

	points := make([]orb.Point, n)
	for i, r := range records {
		p := s.projector.Project(r.Longitude, r.Latitude, r.DepthMeters)
		scale := float32(s.ScaleFactor() * r.Magnitude)

		s.transforms[i] = mgl32.Translate3D(float32(p.X), float32(p.Y), float32(p.Z)).
			Mul4(mgl32.Scale3D(scale, scale, scale))
		s.classes[i] = ClassOf(r.Magnitude)
		s.magnitudes[i] = r.Magnitude
		points[i] = r.Point()
	}
	s.bound = projection.BoundOf(points)

	return s
}

// Count returns the number of instances. A nil store has none.
func (s *Store) Count() int {
	if s == nil {
		return 0
	}
	return len(s.transforms)
}

// ScaleFactor is the proportionality constant between magnitude and instance scale.
func (s *Store) ScaleFactor() float64 {
	return s.baseRadius * s.scaleConstant
}

// TransformAt returns the model matrix of instance i.
func (s *Store) TransformAt(i int) mgl32.Mat4 {
	return s.transforms[i]
}

// ColorAt returns the RGB color of instance i.
func (s *Store) ColorAt(i int) mgl32.Vec3 {
	return s.classes[i].Color()
}

// ClassAt returns the color class of instance i.
func (s *Store) ClassAt(i int) ColorClass {
	return s.classes[i]
}

// MagnitudeAt returns the magnitude instance i was built from.
// Filtering reads this value rather than decoding the transform, so threshold comparisons are exact.
func (s *Store) MagnitudeAt(i int) float64 {
	return s.magnitudes[i]
}

// DecodedMagnitude recovers the magnitude from the stored transform's scale.
// It equals MagnitudeAt(i) up to float32 rounding of the transform.
func (s *Store) DecodedMagnitude(i int) float64 {
	sx, _, _ := mgl32.Extract3DScale(s.transforms[i])
	return float64(sx) / s.ScaleFactor()
}

// ClassCounts returns how many instances fall in each color class.
func (s *Store) ClassCounts() map[ColorClass]int {
	counts := map[ColorClass]int{ColorClassLow: 0, ColorClassMid: 0, ColorClassHigh: 0}
	if s == nil {
		return counts
	}
	for _, c := range s.classes {
		counts[c]++
	}
	return counts
}

// Bound returns the lon/lat bounding box of all instances.
func (s *Store) Bound() orb.Bound {
	return s.bound
}

// Instance returns the GPU representation of instance i.
func (s *Store) Instance(i int) GPUPointInstance {
	c := s.ColorAt(i)
	return GPUPointInstance{
		Model:     s.transforms[i],
		Color:     [3]float32{c[0], c[1], c[2]},
		Magnitude: float32(s.magnitudes[i]),
	}
}

// InstanceData marshals every instance into one contiguous buffer for the instance storage binding.
//
// Returns:
//   - []byte: Count() * 80 bytes
func (s *Store) InstanceData() []byte {
	var probe GPUPointInstance
	stride := probe.Size()
	buf := make([]byte, s.Count()*stride)
	for i := range s.Count() {
		inst := s.Instance(i)
		inst.MarshalInto(buf[i*stride:])
	}
	return buf
}
