package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount generates unique bind group provider labels for cameras built without WithLabel.
var cameraCount atomic.Uint64

type cameraImpl struct {
	mu sync.Mutex

	projection mgl32.Mat4
	eye        mgl32.Vec3

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera is the layer-side camera. It never computes a projection of its own: the host hands
// over its mercator-to-clip matrix every frame, and the camera derives the eye position from
// it and packs both into the uniform the point shader reads.
type Camera interface {
	// SetProjectionMatrix replaces the view-projection matrix and recomputes the eye position.
	//
	// Parameters:
	//   - m: the column-major mercator-to-clip matrix
	SetProjectionMatrix(m [16]float32)

	// ProjectionMatrix returns the last matrix set, or identity before the first frame.
	//
	// Returns:
	//   - [16]float32: the column-major view-projection matrix
	ProjectionMatrix() [16]float32

	// EyePosition returns the camera position in mercator units recovered from the matrix.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position, or the zero vector for a degenerate matrix
	EyePosition() mgl32.Vec3

	// Uniform returns the GPU uniform for the current matrix.
	//
	// Returns:
	//   - GPUCameraUniform: the packed camera uniform
	Uniform() GPUCameraUniform

	// BindGroupProvider returns the provider that holds the camera's GPU buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with an identity projection.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		projection: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	if c.bindGroupProvider == nil {
		c.bindGroupProvider = bind_group_provider.NewBindGroupProvider("camera_" + strconv.FormatUint(cameraCount.Add(1), 10))
	}
	c.updateEye()
	return c
}

func (c *cameraImpl) SetProjectionMatrix(m [16]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = mgl32.Mat4(m)
	c.updateEye()
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) EyePosition() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{ViewProj: c.projection, Eye: c.eye}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.bindGroupProvider
}

// updateEye recovers the projection centre. A perspective matrix maps the eye to a clip
// point with x = y = w = 0, so the eye is the inverse image of the clip direction (0, 0, 1, 0)
// after the homogeneous divide. Caller must hold the mutex.
func (c *cameraImpl) updateEye() {
	if c.projection.Det() == 0 {
		c.eye = mgl32.Vec3{}
		return
	}
	h := c.projection.Inv().Mul4x1(mgl32.Vec4{0, 0, 1, 0})
	if math.Abs(float64(h.W())) < 1e-12 {
		c.eye = mgl32.Vec3{}
		return
	}
	c.eye = h.Vec3().Mul(1 / h.W())
}
