package camera

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a functional option for configuring a Camera during NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithLabel names the camera's bind group provider, which labels its GPU buffer.
//
// Parameters:
//   - label: the provider label
//
// Returns:
//   - CameraBuilderOption: a function that sets the provider label
func WithLabel(label string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.bindGroupProvider = bind_group_provider.NewBindGroupProvider(label)
	}
}

// WithProjectionMatrix sets the initial view-projection matrix.
//
// Parameters:
//   - m: the column-major view-projection matrix
//
// Returns:
//   - CameraBuilderOption: a function that sets the initial matrix
func WithProjectionMatrix(m [16]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = mgl32.Mat4(m)
	}
}
