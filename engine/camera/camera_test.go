package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUCameraUniform_Layout(t *testing.T) {
	u := GPUCameraUniform{ViewProj: mgl32.Ident4(), Eye: [3]float32{1, 2, 3}}

	buf := u.Marshal()

	require.Len(t, buf, 80)
	assert.Equal(t, 80, u.Size())
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[68:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])))
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestNewCamera_Defaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, [16]float32(mgl32.Ident4()), c.ProjectionMatrix())
	assert.Equal(t, mgl32.Vec3{}, c.EyePosition())
	require.NotNil(t, c.BindGroupProvider())
	assert.NotEqual(t, c.BindGroupProvider().Label(), NewCamera().BindGroupProvider().Label())
}

func TestNewCamera_WithLabel(t *testing.T) {
	c := NewCamera(WithLabel("earthquake_camera"))

	assert.Equal(t, "earthquake_camera", c.BindGroupProvider().Label())
}

func TestCamera_EyeRecoveredFromProjection(t *testing.T) {
	eye := mgl32.Vec3{1, 2, 3}
	view := mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1.5, 0.1, 100)

	c := NewCamera()
	c.SetProjectionMatrix(proj.Mul4(view))

	got := c.EyePosition()
	assert.InDelta(t, 1, got.X(), 1e-3)
	assert.InDelta(t, 2, got.Y(), 1e-3)
	assert.InDelta(t, 3, got.Z(), 1e-3)

	u := c.Uniform()
	assert.Equal(t, c.ProjectionMatrix(), u.ViewProj)
	assert.Equal(t, [3]float32(got), u.Eye)
}

func TestCamera_DegenerateMatrix(t *testing.T) {
	c := NewCamera(WithProjectionMatrix([16]float32{}))

	assert.Equal(t, mgl32.Vec3{}, c.EyePosition())
}
