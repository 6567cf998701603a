package scene

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/host"
	"github.com/Carmen-Shannon/oxy-quake/engine/instance"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
	"github.com/Carmen-Shannon/oxy-quake/engine/model"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/visibility"
	"github.com/google/uuid"
)

// RendererFactory creates the layer's renderer over the host's graphics context.
type RendererFactory func(ctx renderer.Context, label string) (renderer.Renderer, error)

// Scene is the earthquake point layer. It owns every GPU resource the layer draws with and
// ties their lifetime to the host's custom layer callbacks:
//
//	Attach -> host.AddLayer -> OnAttach   build renderer, camera, lights, sphere, pipeline; start the load
//	host frame              -> OnFrame    upload staged data, write uniforms, draw, request repaint
//	Dispose -> host.RemoveLayer -> OnDetach   release everything
//
// Threshold and visibility setters may be called from any goroutine.
type Scene interface {
	host.CustomLayer

	// Attach registers the layer with h beneath the configured before-layer. The host calls
	// OnAttach synchronously, so resource failures surface here.
	//
	// Parameters:
	//   - h: the map host
	//
	// Returns:
	//   - error: ErrHostContractViolation when attached twice, after dispose, or when h already
	//     holds the layer id; a *ResourceAcquisitionError when GPU setup fails
	Attach(h host.Host) error

	// Dispose removes the layer from its host, releasing every GPU resource. Safe to call more
	// than once and before the data has loaded.
	//
	// Returns:
	//   - error: an error from the host registry, or nil
	Dispose() error

	// SetThreshold shows exactly the instances whose magnitude is at or above t. A threshold
	// set before the data arrives is applied when the mask is built. Setting the current
	// value is a no-op. UI values should pass through ClampThreshold first.
	//
	// Parameters:
	//   - t: the minimum visible magnitude, inclusive
	//
	// Returns:
	//   - error: ErrHostContractViolation after dispose
	SetThreshold(t float64) error

	// SetLayerVisible shows or hides the whole layer through the host's layout property.
	// The visibility mask is never touched.
	//
	// Parameters:
	//   - visible: the new layer visibility
	//
	// Returns:
	//   - error: ErrHostContractViolation after dispose, or a host registry error
	SetLayerVisible(visible bool) error

	// WaitForData blocks until the point load has finished.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the load error, ErrDisposed, ErrNoSource, ctx.Err(), or nil once instances are staged
	WaitForData(ctx context.Context) error

	// InstanceCount returns the number of built instances, 0 before the data arrives.
	InstanceCount() int

	// MaskSnapshot returns a copy of the visibility mask, nil before the data arrives.
	MaskSnapshot() []uint32

	// Store returns the built instance store, nil before the data arrives.
	Store() *instance.Store

	// State returns the lifecycle state.
	State() State

	// HandleID returns the id used in logs and GPU resource labels.
	HandleID() uuid.UUID

	// Threshold returns the current magnitude threshold.
	Threshold() float64

	// LayerVisible returns the requested layer visibility.
	LayerVisible() bool
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.Mutex

	id       uuid.UUID
	label    string
	state    State
	host     host.Host
	beforeID string

	source     loader.Source
	loader     loader.Loader
	ownsLoader bool
	storeOpts  []instance.StoreBuilderOption

	newRenderer    RendererFactory
	r              renderer.Renderer
	cam            camera.Camera
	lights         []light.Light
	ambient        [3]float32
	widthSegments  int
	heightSegments int
	sphere         model.Model

	store          *instance.Store
	filter         *visibility.Filter
	instances      bind_group_provider.BindGroupProvider
	pendingUpload  bool
	instancesReady bool

	threshold float64
	visible   bool

	loadDone chan struct{}
	loadOnce sync.Once
	loadErr  error

	log *slog.Logger
}

var _ Scene = &scene{}

// NewScene creates an unattached earthquake layer reading its points from src.
//
// Parameters:
//   - src: the point source loaded once the layer is attached
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(src loader.Source, options ...SceneBuilderOption) Scene {
	s := &scene{
		id:             uuid.New(),
		beforeID:       host.DefaultBeforeLayerID,
		source:         src,
		newRenderer:    defaultRendererFactory,
		ambient:        DefaultAmbient,
		widthSegments:  model.DefaultSphereWidthSegments,
		heightSegments: model.DefaultSphereHeightSegments,
		visible:        true,
		loadDone:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.label = "scene_" + s.id.String()
	if s.lights == nil {
		s.lights = DefaultLights()
	}
	if s.log == nil {
		s.log = defaultLogger()
	}
	s.log = s.log.With("scene", s.id.String())
	if s.loader == nil {
		s.loader = loader.NewLoader(loader.BackendTypeCSV, loader.WithLogger(s.log))
		s.ownsLoader = true
	}
	return s
}

func (s *scene) ID() string {
	return host.LayerID
}

func (s *scene) Attach(h host.Host) error {
	s.mu.Lock()
	switch {
	case s.state == StateDisposed:
		s.mu.Unlock()
		return contractViolation("attach after dispose")
	case s.state == StateAttached || s.host != nil:
		s.mu.Unlock()
		return contractViolation("scene already attached")
	case h == nil:
		s.mu.Unlock()
		return contractViolation("nil host")
	case h.HasLayer(host.LayerID):
		s.mu.Unlock()
		return contractViolation("host already holds layer %q", host.LayerID)
	}
	s.host = h
	beforeID := s.beforeID
	s.mu.Unlock()

	if err := h.AddLayer(s, beforeID); err != nil {
		s.mu.Lock()
		s.host = nil
		s.mu.Unlock()
		if errors.Is(err, host.ErrLayerExists) {
			return contractViolation("%v", err)
		}
		return err
	}

	// SetLayerVisible calls that land before OnAttach are only recorded on the scene.
	s.mu.Lock()
	visible := s.visible
	s.mu.Unlock()
	if !visible {
		return h.SetLayoutVisibility(host.LayerID, false)
	}
	return nil
}

func (s *scene) OnAttach(h host.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return contractViolation("layer attached in state %s", s.state)
	}
	if s.host == nil {
		s.host = h
	}
	if err := s.acquireLocked(h); err != nil {
		s.log.Error("layer setup failed", "error", err)
		return err
	}
	s.state = StateAttached
	s.log.Info("layer attached", "before", s.beforeID)

	s.startLoadLocked(h)
	return nil
}

// acquireLocked builds the renderer and every resource that does not depend on the data.
// On failure everything created so far is released.
func (s *scene) acquireLocked(h host.Host) (err error) {
	r, err := s.newRenderer(h.GraphicsContext(), s.label)
	if err != nil {
		return &ResourceAcquisitionError{Resource: "renderer", Err: err}
	}
	defer func() {
		if err != nil {
			r.Release()
			s.cam, s.sphere = nil, nil
		}
	}()

	s.cam = camera.NewCamera(camera.WithLabel(s.label + "_frame"))
	if err := r.InitBindGroup(s.cam.BindGroupProvider(), frameGroupLayout(), nil); err != nil {
		return &ResourceAcquisitionError{Resource: "frame bind group", Err: err}
	}
	lights := light.NewLightUniform(s.ambient, s.lights...)
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.cam.BindGroupProvider(),
		Binding:  lightBinding,
		Data:     lights.Marshal(),
	}})

	s.sphere = model.NewSphereModel(s.widthSegments, s.heightSegments, model.WithName(s.label+"_sphere"))
	mesh := bind_group_provider.NewBindGroupProvider(s.sphere.Name())
	if err := r.InitMeshBuffers(mesh, s.sphere.VertexData(), s.sphere.IndexData(), s.sphere.IndexCount()); err != nil {
		return &ResourceAcquisitionError{Resource: "sphere mesh", Err: err}
	}
	s.sphere.SetMeshProvider(mesh)
	s.sphere.ReleaseCPUData()

	p, err := newPointPipeline(PointPipelineKey)
	if err != nil {
		return &ResourceAcquisitionError{Resource: "point shader", Err: err}
	}
	if err := r.RegisterPipelines(p); err != nil {
		return &ResourceAcquisitionError{Resource: "point pipeline", Err: err}
	}

	s.r = r
	return nil
}

func (s *scene) startLoadLocked(h host.Host) {
	if s.source == nil {
		s.finishLoad(ErrNoSource)
		return
	}
	results := s.loader.LoadAsync(context.Background(), s.source)
	go s.awaitLoad(h, results)
}

// awaitLoad runs on its own goroutine. The instance store is built outside the scene lock and
// only staged under it; the upload happens on the next frame.
func (s *scene) awaitLoad(h host.Host, results <-chan loader.Result) {
	res, ok := <-results
	if !ok {
		s.finishLoad(errors.New("scene: load channel closed without a result"))
		return
	}
	if s.disposed() {
		s.log.Debug("load finished after dispose, discarding", "source", res.Source)
		s.finishLoad(ErrDisposed)
		return
	}
	if res.Err != nil {
		s.log.Error("point data unavailable, layer stays empty", "source", res.Source, "error", res.Err)
		s.finishLoad(res.Err)
		return
	}

	opts := append([]instance.StoreBuilderOption{instance.WithProjector(h)}, s.storeOpts...)
	store := instance.Build(res.Records, opts...)

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		s.finishLoad(ErrDisposed)
		return
	}
	filter := visibility.NewFilter(store, nil)
	filter.SetThreshold(s.threshold)
	s.store = store
	s.filter = filter
	s.pendingUpload = true
	s.mu.Unlock()

	metrics.InstancesBuilt.Set(float64(store.Count()))
	metrics.VisibleInstances.Set(float64(filter.Mask().VisibleCount()))
	s.log.Info("instances staged",
		"instances", store.Count(),
		"dropped", res.Dropped,
		"classes", store.ClassCounts())

	s.finishLoad(nil)
	h.TriggerRepaint()
}

// finishLoad records the load outcome once. loadErr is published by closing loadDone, so it
// is read without the scene lock and may be called with the lock held.
func (s *scene) finishLoad(err error) {
	s.loadOnce.Do(func() {
		s.loadErr = err
		close(s.loadDone)
	})
}

func (s *scene) OnFrame(viewProj [16]float32) {
	s.mu.Lock()
	if s.state != StateAttached || s.r == nil {
		s.mu.Unlock()
		return
	}
	h := s.host

	s.cam.SetProjectionMatrix(viewProj)
	uniform := s.cam.Uniform()
	writes := []bind_group_provider.BufferWrite{{
		Provider: s.cam.BindGroupProvider(),
		Binding:  cameraBinding,
		Data:     uniform.Marshal(),
	}}

	if s.pendingUpload {
		s.pendingUpload = false
		if err := s.uploadInstancesLocked(); err != nil {
			s.log.Error("instance upload failed", "error", err)
		}
	}

	var count int
	if s.instancesReady {
		count = s.store.Count()
		if data, dirty := s.filter.Mask().ConsumeDirty(); dirty && count > 0 {
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: s.instances,
				Binding:  maskBinding,
				Data:     data,
			})
		}
	}
	s.r.WriteBuffers(writes)

	if count > 0 {
		err := s.r.DrawCall(PointPipelineKey, s.sphere.MeshProvider(), uint32(count),
			[]bind_group_provider.BindGroupProvider{s.cam.BindGroupProvider(), s.instances})
		if err != nil {
			s.log.Error("point draw failed", "error", err)
		}
	}
	metrics.FramesRenderedTotal.Inc()
	s.mu.Unlock()

	if h != nil {
		h.TriggerRepaint()
	}
}

// uploadInstancesLocked creates the instance and mask buffers sized to the store and writes
// the instance data. The mask follows through the dirty path on the same frame.
func (s *scene) uploadInstancesLocked() error {
	n := s.store.Count()
	if n == 0 {
		s.instancesReady = true
		return nil
	}
	provider := bind_group_provider.NewBindGroupProvider(s.label + "_instances")
	if err := s.r.InitBindGroup(provider, instanceGroupLayout(), instanceBufferSizes(n)); err != nil {
		return err
	}
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: provider,
		Binding:  instanceBinding,
		Data:     s.store.InstanceData(),
	}})
	s.filter.Mask().MarkDirty()
	s.instances = provider
	s.instancesReady = true
	return nil
}

func (s *scene) OnDetach() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.state = StateDisposed
	s.releaseLocked()
	s.mu.Unlock()

	metrics.InstancesBuilt.Set(0)
	metrics.VisibleInstances.Set(0)
	s.finishLoad(ErrDisposed)
	s.log.Info("layer detached")
}

// releaseLocked frees every GPU resource through the renderer and drops all references.
func (s *scene) releaseLocked() {
	if s.r != nil {
		s.r.Release()
		s.r = nil
	}
	s.cam = nil
	s.sphere = nil
	s.instances = nil
	s.instancesReady = false
	s.pendingUpload = false
	if s.ownsLoader {
		s.loader.Close()
	}
}

func (s *scene) Dispose() error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return nil
	}
	h := s.host
	attached := s.state == StateAttached
	s.mu.Unlock()

	if attached && h != nil {
		err := h.RemoveLayer(host.LayerID)
		// OnDetach is idempotent; calling it here covers a host that no longer held the layer.
		s.OnDetach()
		if err != nil && !errors.Is(err, host.ErrLayerNotFound) {
			return err
		}
		return nil
	}

	s.mu.Lock()
	s.state = StateDisposed
	s.releaseLocked()
	s.mu.Unlock()
	s.finishLoad(ErrDisposed)
	return nil
}

func (s *scene) SetThreshold(t float64) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return contractViolation("set threshold after dispose")
	}
	if t == s.threshold {
		s.mu.Unlock()
		return nil
	}
	s.threshold = t
	// recomputed under the scene lock so concurrent setters cannot apply out of order
	if s.filter != nil {
		s.filter.SetThreshold(t)
		metrics.VisibleInstances.Set(float64(s.filter.Mask().VisibleCount()))
	}
	h := s.host
	s.mu.Unlock()

	s.log.Debug("threshold changed", "threshold", t)
	if h != nil {
		h.TriggerRepaint()
	}
	return nil
}

func (s *scene) SetLayerVisible(visible bool) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return contractViolation("set layer visibility after dispose")
	}
	if visible == s.visible {
		s.mu.Unlock()
		return nil
	}
	h := s.host
	if h == nil || s.state != StateAttached {
		s.visible = visible
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := h.SetLayoutVisibility(host.LayerID, visible); err != nil {
		return err
	}
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	h.TriggerRepaint()
	return nil
}

func (s *scene) WaitForData(ctx context.Context) error {
	select {
	case <-s.loadDone:
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *scene) InstanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Count()
}

func (s *scene) MaskSnapshot() []uint32 {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()
	return filter.Mask().Snapshot()
}

func (s *scene) Store() *instance.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *scene) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *scene) HandleID() uuid.UUID {
	return s.id
}

func (s *scene) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

func (s *scene) LayerVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *scene) disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateDisposed
}
