package visibility

import (
	"encoding/binary"
	"math/rand"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/instance"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type magnitudes []float64

func (m magnitudes) Count() int                { return len(m) }
func (m magnitudes) MagnitudeAt(i int) float64 { return m[i] }

func buildStore(mags ...float64) *instance.Store {
	recs := make([]loader.PointRecord, len(mags))
	for i, m := range mags {
		recs[i] = loader.PointRecord{Longitude: float64(i), Latitude: float64(i), Magnitude: m}
	}
	return instance.Build(recs)
}

func TestEndToEndThresholds(t *testing.T) {
	f := NewFilter(buildStore(1.0, 2.0, 3.0), nil)

	f.SetThreshold(1.5)
	assert.Equal(t, []uint32{0, 1, 1}, f.Mask().Snapshot())

	f.SetThreshold(0)
	assert.Equal(t, []uint32{1, 1, 1}, f.Mask().Snapshot())

	f.SetThreshold(5)
	assert.Equal(t, []uint32{0, 0, 0}, f.Mask().Snapshot())
	assert.Equal(t, 0, f.Mask().VisibleCount())
}

func TestThresholdIsInclusive(t *testing.T) {
	f := NewFilter(magnitudes{1.4, 1.5, 1.6}, nil)
	f.SetThreshold(1.5)
	assert.Equal(t, []uint32{0, 1, 1}, f.Mask().Snapshot())
}

func TestMaskMatchesMagnitudesForAnyThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	mags := make(magnitudes, 500)
	for i := range mags {
		mags[i] = float64(rng.Intn(51)) / 10
	}
	store := buildStore(mags...)
	f := NewFilter(store, nil)

	for step := 0; step <= 50; step++ {
		th := float64(step) / 10
		f.SetThreshold(th)
		first := f.Mask().Snapshot()
		f.SetThreshold(th)
		second := f.Mask().Snapshot()

		require.Equal(t, first, second, "idempotent at %v", th)
		require.Len(t, first, store.Count())
		for i, v := range first {
			want := uint32(0)
			if store.MagnitudeAt(i) >= th {
				want = 1
			}
			require.Equal(t, want, v, "instance %d at threshold %v", i, th)
		}
	}
	assert.Equal(t, 500, store.Count())
}

func TestSetThresholdMarksDirty(t *testing.T) {
	f := NewFilter(magnitudes{1, 2}, nil)

	data, dirty := f.Mask().ConsumeDirty()
	require.True(t, dirty, "fresh mask needs an initial upload")
	require.Len(t, data, 8)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:]))

	_, dirty = f.Mask().ConsumeDirty()
	assert.False(t, dirty)

	f.SetThreshold(1.5)
	assert.True(t, f.Mask().Dirty())
	data, dirty = f.Mask().ConsumeDirty()
	require.True(t, dirty)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, 1.5, f.Threshold())
}

func TestNilAndMismatchedFiltersAreNoOps(t *testing.T) {
	var f *Filter
	assert.NotPanics(t, func() { f.SetThreshold(3) })
	assert.Nil(t, f.Mask())
	assert.Zero(t, f.Threshold())

	empty := NewFilter(nil, nil)
	assert.NotPanics(t, func() { empty.SetThreshold(3) })
	assert.Zero(t, empty.Mask().Len())

	mismatched := NewFilter(magnitudes{1, 2, 3}, NewMask(2))
	mismatched.SetThreshold(2.5)
	assert.Equal(t, []uint32{1, 1}, mismatched.Mask().Snapshot())
}

func TestNilMaskAccessors(t *testing.T) {
	var m *Mask
	assert.Zero(t, m.Len())
	assert.Zero(t, m.At(0))
	assert.Nil(t, m.Bytes())
	assert.Zero(t, m.VisibleCount())
	assert.Nil(t, m.Snapshot())
	assert.False(t, m.Dirty())
	_, ok := m.ConsumeDirty()
	assert.False(t, ok)
	assert.NotPanics(t, m.MarkDirty)
}

func TestConcurrentWritersNeverTearMask(t *testing.T) {
	mags := make(magnitudes, 1000)
	for i := range mags {
		mags[i] = 3
	}
	f := NewFilter(mags, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			f.SetThreshold(float64(i%2) * 5)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := f.Mask().Snapshot()
			for _, v := range snap[1:] {
				if v != snap[0] {
					t.Errorf("torn mask observed")
					return
				}
			}
		}
	}()
	wg.Wait()
}

func TestMarkDirtyAndBytes(t *testing.T) {
	m := NewMask(3)
	_, _ = m.ConsumeDirty()
	m.MarkDirty()
	assert.True(t, m.Dirty())
	assert.Len(t, m.Bytes(), 12)
	assert.True(t, m.Dirty(), "Bytes leaves the flag alone")
	assert.Equal(t, uint32(1), m.At(2))
}
