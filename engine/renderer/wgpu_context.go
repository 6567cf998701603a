package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

type wgpuContext struct {
	mu  sync.Mutex
	log *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	clearColor    wgpu.Color
	width, height int

	// size-dependent attachments, recreated on Resize
	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	// per-frame state between BeginFrame and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	released bool
}

var _ Context = &wgpuContext{}

func newWGPUContext(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, cfg *contextConfig) (Context, error) {
	if surfaceDescriptor == nil {
		return nil, fmt.Errorf("%w: nil surface descriptor", ErrContextUnavailable)
	}
	runtime.LockOSThread()

	c := &wgpuContext{
		log:         cfg.log.With("component", "graphics_context"),
		sampleCount: cfg.sampleCount,
		clearColor:  wgpu.Color{R: cfg.clearColor[0], G: cfg.clearColor[1], B: cfg.clearColor[2], A: cfg.clearColor[3]},
	}
	c.presentMode = toWGPUPresentMode(cfg.presentMode)

	c.instance = wgpu.CreateInstance(nil)
	if c.instance == nil {
		return nil, fmt.Errorf("%w: instance creation failed", ErrContextUnavailable)
	}
	c.surface = c.instance.CreateSurface(surfaceDescriptor)
	if c.surface == nil {
		c.Release()
		return nil, fmt.Errorf("%w: surface creation failed", ErrContextUnavailable)
	}

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrContextUnavailable, err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Quake Overlay Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrContextUnavailable, err)
	}
	c.device = device
	c.queue = device.GetQueue()

	if err := c.Resize(width, height); err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: %w", ErrContextUnavailable, err)
	}
	c.log.Info("graphics context ready", "width", width, "height", height, "msaa", uint32(c.sampleCount))
	return c, nil
}

func toWGPUPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		return wgpu.PresentModeFifo
	}
}

func (c *wgpuContext) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *wgpuContext) SetPresentMode(mode PresentMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presentMode = toWGPUPresentMode(mode)
}

func (c *wgpuContext) SetClearColor(rgba [4]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearColor = wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
}

func (c *wgpuContext) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrContextReleased
	}
	// minimised windows report a zero framebuffer; keep the previous configuration
	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("surface reports no supported formats")
	}
	c.surfaceFormat = capabilities.Formats[0]
	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	c.releaseAttachments()

	count := uint32(c.sampleCount)
	if count > 1 {
		tex, view, err := c.createAttachment("MSAA Texture", width, height, count, c.surfaceFormat)
		if err != nil {
			return err
		}
		c.msaaTexture, c.msaaTextureView = tex, view
	}
	tex, view, err := c.createAttachment("Depth Texture", width, height, count, depthFormat)
	if err != nil {
		return err
	}
	c.depthTexture, c.depthTextureView = tex, view
	c.width, c.height = width, height
	return nil
}

func (c *wgpuContext) createAttachment(label string, width, height int, samples uint32, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (c *wgpuContext) releaseAttachments() {
	if c.msaaTextureView != nil {
		c.msaaTextureView.Release()
		c.msaaTextureView = nil
	}
	if c.msaaTexture != nil {
		c.msaaTexture.Release()
		c.msaaTexture = nil
	}
	if c.depthTextureView != nil {
		c.depthTextureView.Release()
		c.depthTextureView = nil
	}
	if c.depthTexture != nil {
		c.depthTexture.Release()
		c.depthTexture = nil
	}
}

func (c *wgpuContext) RegisterRenderPipeline(p pipeline.Pipeline) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrContextReleased
	}
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := c.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("vertex module %q: %w", vertexShader.Key(), err)
	}
	fs, err := c.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		vs.Release()
		return fmt.Errorf("fragment module %q: %w", fragmentShader.Key(), err)
	}

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range merged {
		layout, layoutErr := c.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    c.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		colorTarget.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(c.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (c *wgpuContext) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrContextReleased
	}
	if len(vertexData) > 0 {
		buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		c.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}
	if len(indexData) > 0 {
		buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		c.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (c *wgpuContext) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrContextReleased
	}
	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = c.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		buf := provider.Buffer(binding)
		if buf == nil {
			usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			if entry.Buffer.Type == wgpu.BufferBindingTypeStorage || entry.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage {
				usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			}
			size := entry.Buffer.MinBindingSize
			if override, ok := bufferSizeOverrides[binding]; ok {
				size = override
			}
			var err error
			buf, err = c.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
				Size:  size,
				Usage: usage,
			})
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (c *wgpuContext) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil || len(w.Data) == 0 {
			continue
		}
		c.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (c *wgpuContext) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrContextReleased
	}
	if c.frameSurface != nil {
		return ErrFrameInProgress
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	// with MSAA the pass draws into the multisampled texture and resolves into the swapchain view
	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: c.clearColor,
	}
	if c.msaaTextureView != nil {
		color.View = c.msaaTextureView
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}
	c.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            c.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	c.frameEncoder = encoder
	c.frameSurface = surfaceTexture
	c.frameView = view
	return nil
}

func (c *wgpuContext) DrawCall(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.framePass == nil {
		return ErrNoActiveFrame
	}
	renderPipeline := p.RenderPipeline()
	if renderPipeline == nil {
		return fmt.Errorf("%w: %q has no GPU pipeline", ErrPipelineNotFound, p.PipelineKey())
	}

	c.framePass.SetPipeline(renderPipeline)
	for i, bg := range bindGroups {
		c.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	c.framePass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	c.framePass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	c.framePass.DrawIndexed(uint32(mesh.IndexCount()), instanceCount, 0, 0, 0)
	return nil
}

func (c *wgpuContext) EndFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.framePass == nil {
		return ErrNoActiveFrame
	}
	c.framePass.End()
	c.framePass = nil

	commandBuffer, err := c.frameEncoder.Finish(nil)
	c.frameEncoder.Release()
	c.frameEncoder = nil
	if err != nil {
		c.releaseFrameSurface()
		return err
	}
	c.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (c *wgpuContext) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameSurface == nil {
		return
	}
	c.surface.Present()
	c.releaseFrameSurface()
}

func (c *wgpuContext) releaseFrameSurface() {
	if c.frameView != nil {
		c.frameView.Release()
		c.frameView = nil
	}
	if c.frameSurface != nil {
		c.frameSurface.Release()
		c.frameSurface = nil
	}
}

func (c *wgpuContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true
	c.releaseFrameSurface()
	c.releaseAttachments()
	c.queue = nil
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
	c.log.Info("graphics context released")
}

// mergeBindGroupLayouts merges the vertex and fragment stage layouts per group index. A binding
// declared by both stages keeps one entry with the stage visibilities OR'd together.
//
// Parameters:
//   - vertexLayouts: descriptors declared by the vertex shader, keyed by group index
//   - fragmentLayouts: descriptors declared by the fragment shader, keyed by group index
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts))
	for g, desc := range vertexLayouts {
		merged[g] = desc
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, ok := merged[g]
		if !ok {
			merged[g] = fDesc
			continue
		}
		entries := append([]wgpu.BindGroupLayoutEntry(nil), vDesc.Entries...)
		for _, e := range fDesc.Entries {
			found := false
			for i := range entries {
				if entries[i].Binding == e.Binding {
					entries[i].Visibility |= e.Visibility
					found = true
					break
				}
			}
			if !found {
				entries = append(entries, e)
			}
		}
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: vDesc.Label, Entries: entries}
	}
	return merged
}
