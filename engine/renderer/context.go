package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Context is the graphics context owned by the map host. It holds the GPU device and
// the presentation surface, drives the per-frame render pass, and exposes the resource
// creation calls that custom layers use through a Renderer.
//
// Frame lifecycle, driven by the host once per repaint:
//  1. BeginFrame acquires the swapchain texture and opens the render pass cleared to the background
//  2. layers issue DrawCall into the open pass
//  3. EndFrame submits the command buffer
//  4. Present displays the frame and releases the swapchain texture
type Context interface {
	// Resize reconfigures the surface and the attachments that depend on its size.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: an error if the surface or attachments could not be recreated
	Resize(width, height int) error

	// Size returns the current surface size in pixels.
	//
	// Returns:
	//   - int: the surface width
	//   - int: the surface height
	Size() (int, int)

	// SetPresentMode sets the present mode used the next time the surface is configured.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the background color the render pass is cleared to.
	//
	// Parameters:
	//   - rgba: the clear color as linear RGBA in [0, 1]
	SetClearColor(rgba [4]float64)

	// RegisterRenderPipeline creates the shader modules, pipeline layout and render pipeline
	// for p and stores the GPU pipeline back on it.
	//
	// Parameters:
	//   - p: the pipeline carrying the vertex and fragment shaders and the raster configuration
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and index data into new GPU buffers stored on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the vertex and index buffers
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw uint32 index bytes
	//   - indexCount: the number of indices drawn per instance
	//
	// Returns:
	//   - error: an error if a buffer could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the buffers described by descriptor, stores them on provider, and
	// builds the bind group over them. Buffers already present on provider are reused.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the layout, buffers and bind group
	//   - descriptor: the bind group layout descriptor
	//   - bufferSizeOverrides: per-binding buffer sizes replacing the descriptor's MinBindingSize
	//
	// Returns:
	//   - error: an error if the layout, a buffer or the bind group could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues every write onto the GPU queue. Writes whose target buffer does not
	// exist are skipped.
	//
	// Parameters:
	//   - writes: the staged buffer writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain texture and opens the main render pass.
	//
	// Returns:
	//   - error: ErrFrameInProgress if the previous frame was not presented, or an acquisition error
	BeginFrame() error

	// DrawCall encodes one indexed instanced draw into the open render pass.
	//
	// Parameters:
	//   - p: the registered pipeline to draw with
	//   - mesh: the BindGroupProvider holding the vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: the providers bound to groups 0..n-1 in order
	//
	// Returns:
	//   - error: ErrNoActiveFrame when called outside BeginFrame/EndFrame
	DrawCall(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the recorded commands.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present displays the submitted frame. A no-op when no frame is held.
	Present()

	// Release frees the surface, device and every size-dependent attachment.
	// Further calls return ErrContextReleased.
	Release()
}

// NewContext creates a graphics context for the given backend over the platform surface.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: variadic list of ContextBuilderOption functions
//
// Returns:
//   - Context: the configured graphics context
//   - error: an error wrapping ErrContextUnavailable when no usable GPU is found
func NewContext(backendType ContextBackendType, surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...ContextBuilderOption) (Context, error) {
	cfg := defaultContextConfig()
	for _, opt := range options {
		opt(cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		return newWGPUContext(surfaceDescriptor, width, height, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend type %d", ErrContextUnavailable, backendType)
	}
}
