package instance

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(mags ...float64) []loader.PointRecord {
	out := make([]loader.PointRecord, len(mags))
	for i, m := range mags {
		out[i] = loader.PointRecord{
			Longitude:   -118 + float64(i),
			Latitude:    54 + float64(i)/10,
			DepthMeters: 1000 * float64(i+1),
			Magnitude:   m,
		}
	}
	return out
}

func TestBuildPreservesOrderAndCount(t *testing.T) {
	s := Build(records(1.0, 2.0, 3.0))
	require.Equal(t, 3, s.Count())

	assert.Equal(t, ColorClassLow, s.ClassAt(0))
	assert.Equal(t, ColorClassMid, s.ClassAt(1))
	assert.Equal(t, ColorClassHigh, s.ClassAt(2))
	assert.Equal(t, ColorClassHigh.Color(), s.ColorAt(2))
	assert.Equal(t, 2.0, s.MagnitudeAt(1))
}

func TestBuildTransformUsesProjectorAndScale(t *testing.T) {
	proj := projection.ProjectorFunc(func(lon, lat, alt float64) projection.LocalPosition {
		return projection.LocalPosition{X: lon, Y: lat, Z: alt}
	})
	s := Build([]loader.PointRecord{{Longitude: 0.25, Latitude: 0.5, DepthMeters: 0.125, Magnitude: 2}}, WithProjector(proj))

	m := s.TransformAt(0)
	assert.Equal(t, mgl32.Vec3{0.25, 0.5, 0.125}, m.Col(3).Vec3())

	want := float32(DefaultBaseRadius * DefaultScaleConstant * 2)
	sx, sy, sz := mgl32.Extract3DScale(m)
	assert.InEpsilon(t, want, sx, 1e-6)
	assert.Equal(t, sx, sy)
	assert.Equal(t, sx, sz)
}

func TestBuildDefaultProjectorIsMercator(t *testing.T) {
	rec := records(1.7)[0]
	s := Build([]loader.PointRecord{rec})
	p := projection.Project(rec.Longitude, rec.Latitude, rec.DepthMeters)
	assert.Equal(t, mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}, s.TransformAt(0).Col(3).Vec3())
}

func TestDecodedMagnitudeMatchesStored(t *testing.T) {
	mags := []float64{0.1, 1.5, 2.2, 3.3, 4.9}
	for _, opts := range [][]StoreBuilderOption{
		nil,
		{WithBaseRadius(1), WithScaleConstant(1)},
		{WithBaseRadius(0.5), WithScaleConstant(0.02)},
	} {
		s := Build(records(mags...), opts...)
		for i, m := range mags {
			assert.InEpsilon(t, m, s.DecodedMagnitude(i), 1e-6)
			assert.Equal(t, m, s.MagnitudeAt(i))
		}
	}
}

func TestBuilderOptionsIgnoreInvalid(t *testing.T) {
	s := Build(nil, WithBaseRadius(-1), WithScaleConstant(0), WithProjector(nil))
	assert.Equal(t, DefaultBaseRadius*DefaultScaleConstant, s.ScaleFactor())
	assert.Zero(t, s.Count())
}

func TestNilStoreIsEmpty(t *testing.T) {
	var s *Store
	assert.Zero(t, s.Count())
	assert.Equal(t, 0, s.ClassCounts()[ColorClassLow])
}

func TestClassCountsAndBound(t *testing.T) {
	s := Build(records(1.0, 1.5, 2.2, 3.0))
	counts := s.ClassCounts()
	assert.Equal(t, 1, counts[ColorClassLow])
	assert.Equal(t, 2, counts[ColorClassMid])
	assert.Equal(t, 1, counts[ColorClassHigh])

	b := s.Bound()
	assert.Equal(t, -118.0, b.Min.Lon())
	assert.Equal(t, -115.0, b.Max.Lon())
}

func TestInstanceDataLayout(t *testing.T) {
	s := Build(records(1.0, 3.0))
	data := s.InstanceData()

	var probe GPUPointInstance
	require.Equal(t, 80, probe.Size())
	require.Len(t, data, 2*80)

	second := data[80:]
	m := s.TransformAt(1)
	for i := range 16 {
		assert.Equal(t, math.Float32bits(m[i]), binary.LittleEndian.Uint32(second[i*4:]))
	}
	c := ColorClassHigh.Color()
	assert.Equal(t, math.Float32bits(c[0]), binary.LittleEndian.Uint32(second[64:]))
	assert.Equal(t, float32(3.0), math.Float32frombits(binary.LittleEndian.Uint32(second[76:])))

	inst := s.Instance(1)
	assert.Equal(t, second, inst.Marshal())
}
