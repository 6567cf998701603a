package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu    sync.Mutex
	ctx   Context
	label string

	pipelineCache map[string]pipeline.Pipeline
	// providers are every provider initialised through this renderer, released with it
	providers []bind_group_provider.BindGroupProvider
	released  bool
}

// Renderer is the GPU surface a custom layer draws through. It borrows the host's Context,
// caches the layer's pipelines by key, and tracks every provider it initialises so that the
// layer's GPU resources are released together when the layer is detached. The host's
// device and surface are never released by a Renderer.
type Renderer interface {
	// RegisterPipelines creates the GPU pipeline for each p not already cached under its key.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: the first registration error, or ErrContextReleased after Release
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Pipeline returns the cached pipeline for key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the cached pipeline or nil
	Pipeline(key string) pipeline.Pipeline

	// InitMeshBuffers uploads vertex and index data onto provider and tracks it for release.
	//
	// Parameters:
	//   - provider: the provider receiving the mesh buffers
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw uint32 index bytes
	//   - indexCount: the number of indices drawn per instance
	//
	// Returns:
	//   - error: an error if a buffer could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the buffers and bind group for provider and tracks it for release.
	//
	// Parameters:
	//   - provider: the provider receiving the layout, buffers and bind group
	//   - descriptor: the bind group layout descriptor
	//   - bufferSizeOverrides: per-binding buffer sizes replacing MinBindingSize
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues buffer writes on the host's GPU queue. A no-op after Release.
	//
	// Parameters:
	//   - writes: the staged buffer writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// DrawCall draws instanceCount instances of mesh with the cached pipeline key into the
	// host's open render pass. A zero instance count draws nothing and succeeds.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - mesh: the provider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: the providers bound to groups 0..n-1 in order
	//
	// Returns:
	//   - error: ErrPipelineNotFound for an unknown key, or the context's draw error
	DrawCall(pipelineKey string, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// Release frees every pipeline and provider created through this renderer. Safe to call more than once.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

var _ Renderer = &renderer{}

// NewRenderer creates a layer-scoped Renderer over the host's graphics context.
//
// Parameters:
//   - ctx: the host-owned graphics context
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
//   - error: ErrContextUnavailable when ctx is nil
func NewRenderer(ctx Context, options ...RendererBuilderOption) (Renderer, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: host exposes no graphics context", ErrContextUnavailable)
	}
	r := &renderer{
		ctx:           ctx,
		label:         "layer",
		pipelineCache: make(map[string]pipeline.Pipeline),
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrContextReleased
	}
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.ctx.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("%s: register pipeline %q: %w", r.label, key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrContextReleased
	}
	r.track(provider)
	return r.ctx.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrContextReleased
	}
	r.track(provider)
	return r.ctx.InitBindGroup(provider, descriptor, bufferSizeOverrides)
}

// track must be called with r.mu held. Partially initialised providers are tracked too so a
// failed init still releases whatever was created.
func (r *renderer) track(provider bind_group_provider.BindGroupProvider) {
	for _, p := range r.providers {
		if p == provider {
			return
		}
	}
	r.providers = append(r.providers, provider)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || len(writes) == 0 {
		return
	}
	r.ctx.WriteBuffers(writes)
}

func (r *renderer) DrawCall(pipelineKey string, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	released := r.released
	r.mu.Unlock()

	if released {
		return ErrContextReleased
	}
	if !exists {
		return fmt.Errorf("%w: %q", ErrPipelineNotFound, pipelineKey)
	}
	if instanceCount == 0 {
		return nil
	}
	return r.ctx.DrawCall(p, mesh, instanceCount, bindGroups)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	for _, p := range r.providers {
		p.Release()
	}
	r.providers = nil
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
}

func (r *renderer) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
