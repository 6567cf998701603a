package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointPipeline(t *testing.T) {
	p, err := newPointPipeline(PointPipelineKey)
	require.NoError(t, err)

	vs := p.Shader(shader.ShaderTypeVertex)
	fs := p.Shader(shader.ShaderTypeFragment)
	require.NotNil(t, vs)
	require.NotNil(t, fs)

	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	for _, name := range []string{"struct CameraUniform", "struct LightUniform", "struct PointInstance", "struct VertexInput"} {
		assert.Contains(t, vs.Source(), name)
	}
	assert.NotContains(t, vs.Source(), "//@oxy:include")
	assert.Len(t, vs.VertexLayouts(), 1)
	assert.Len(t, vs.BindGroupLayoutDescriptors(), 2)
	assert.True(t, p.DepthTestEnabled())
}

func TestInstanceBufferSizes(t *testing.T) {
	sizes := instanceBufferSizes(10)
	assert.Equal(t, uint64(800), sizes[instanceBinding])
	assert.Equal(t, uint64(40), sizes[maskBinding])

	empty := instanceBufferSizes(0)
	assert.Equal(t, uint64(80), empty[instanceBinding])
	assert.Equal(t, uint64(4), empty[maskBinding])
}

func TestClampThreshold(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 2.2, 2.2},
		{"snaps down", 1.54, 1.5},
		{"snaps up", 1.56, 1.6},
		{"float error", 0.1 + 0.2, 0.3},
		{"below range", -1, MinThreshold},
		{"above range", 7.3, MaxThreshold},
		{"nan", math.NaN(), MinThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampThreshold(tt.in))
		})
	}
}

func TestResourceAcquisitionError(t *testing.T) {
	cause := errors.New("device lost")
	err := error(&ResourceAcquisitionError{Resource: "point pipeline", Err: cause})

	assert.ErrorIs(t, err, ErrResourceAcquisition)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "point pipeline")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "attached", StateAttached.String())
	assert.Equal(t, "disposed", StateDisposed.String())
}

func TestDefaultLights(t *testing.T) {
	lights := DefaultLights()

	require.Len(t, lights, 2)
	assert.InDelta(t, 0, lights[0].Direction().Add(lights[1].Direction()).Len(), 1e-6)
	assert.Equal(t, float32(1), lights[0].Intensity())
}
