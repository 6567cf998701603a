package scene

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/host"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quakeCSV = `Longitude,Latitude,Depth_km,MLy
-118.5,54.3,5.0,1.0
-119.1,55.0,3.2,2.0
not-a-number,55.0,3.2,2.5
-117.9,53.8,7.1,3.0
`

type stringSource struct {
	body    string
	err     error
	release chan struct{}
}

func (s *stringSource) Name() string { return "memory" }
func (s *stringSource) Kind() string { return "test" }

func (s *stringSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

// fakeContext records what layers push through the host's graphics context.
type fakeContext struct {
	mu          sync.Mutex
	groups      []string
	meshes      int
	pipelines   int
	writes      []bind_group_provider.BufferWrite
	draws       []uint32
	meshErr     error
	pipelineErr error
}

func (f *fakeContext) Resize(int, int) error               { return nil }
func (f *fakeContext) Size() (int, int)                    { return 1280, 720 }
func (f *fakeContext) SetPresentMode(renderer.PresentMode) {}
func (f *fakeContext) SetClearColor([4]float64)            {}
func (f *fakeContext) BeginFrame() error                   { return nil }
func (f *fakeContext) EndFrame() error                     { return nil }
func (f *fakeContext) Present()                            {}
func (f *fakeContext) Release()                            {}

func (f *fakeContext) RegisterRenderPipeline(pipeline.Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipelines++
	return f.pipelineErr
}

func (f *fakeContext) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meshes++
	return f.meshErr
}

func (f *fakeContext) InitBindGroup(p bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, p.Label())
	return nil
}

func (f *fakeContext) WriteBuffers(w []bind_group_provider.BufferWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, w...)
}

func (f *fakeContext) DrawCall(_ pipeline.Pipeline, _ bind_group_provider.BindGroupProvider, n uint32, _ []bind_group_provider.BindGroupProvider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws = append(f.draws, n)
	return nil
}

func (f *fakeContext) drawCount() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.draws...)
}

func (f *fakeContext) writesTo(binding int, size int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.writes {
		if w.Binding == binding && len(w.Data) == size {
			n++
		}
	}
	return n
}

// countingRenderer counts Release calls on the real renderer it wraps.
type countingRenderer struct {
	renderer.Renderer
	releases int
}

func (c *countingRenderer) Release() {
	c.releases++
	c.Renderer.Release()
}

type fixture struct {
	ctx       *fakeContext
	host      host.Map
	renderers []*countingRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := &fakeContext{}
	return &fixture{
		ctx:  ctx,
		host: host.NewMap(ctx, host.WithLogger(logger.Discard())),
	}
}

func (f *fixture) newScene(src loader.Source, opts ...SceneBuilderOption) Scene {
	factory := func(ctx renderer.Context, label string) (renderer.Renderer, error) {
		r, err := renderer.NewRenderer(ctx, renderer.WithLabel(label))
		if err != nil {
			return nil, err
		}
		cr := &countingRenderer{Renderer: r}
		f.renderers = append(f.renderers, cr)
		return cr, nil
	}
	base := []SceneBuilderOption{
		WithLogger(logger.Discard()),
		WithRendererFactory(factory),
	}
	return NewScene(src, append(base, opts...)...)
}

func waitForData(t *testing.T, s Scene) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.WaitForData(ctx)
}

func TestScene_AttachLoadAndDraw(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})

	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))

	assert.Equal(t, StateAttached, s.State())
	assert.Equal(t, []string{host.LayerID}, f.host.Layers())
	assert.Equal(t, 3, s.InstanceCount())
	assert.Equal(t, []uint32{1, 1, 1}, s.MaskSnapshot())
	assert.Equal(t, 1, f.ctx.pipelines)
	assert.Equal(t, 1, f.ctx.meshes)

	require.NoError(t, f.host.Frame())

	assert.Equal(t, []uint32{3}, f.ctx.drawCount())
	assert.Equal(t, 1, f.ctx.writesTo(instanceBinding, 3*80))
	assert.Equal(t, 1, f.ctx.writesTo(maskBinding, 3*4))
	assert.Equal(t, 1, f.ctx.writesTo(lightBinding, 144))
	assert.True(t, f.host.NeedsRepaint())

	require.NoError(t, f.host.Frame())
	assert.Equal(t, []uint32{3, 3}, f.ctx.drawCount())
	assert.Equal(t, 1, f.ctx.writesTo(maskBinding, 3*4), "a clean mask is not re-uploaded")
}

func TestScene_ThresholdMask(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))

	require.NoError(t, s.SetThreshold(1.5))
	assert.Equal(t, []uint32{0, 1, 1}, s.MaskSnapshot())

	require.NoError(t, s.SetThreshold(0))
	assert.Equal(t, []uint32{1, 1, 1}, s.MaskSnapshot())

	require.NoError(t, s.SetThreshold(5))
	assert.Equal(t, []uint32{0, 0, 0}, s.MaskSnapshot())
	assert.Equal(t, 3, s.InstanceCount())

	require.NoError(t, f.host.Frame())
	assert.Equal(t, []uint32{3}, f.ctx.drawCount(), "hidden instances are still drawn and collapsed in the shader")
}

func TestScene_ThresholdBeforeData(t *testing.T) {
	f := newFixture(t)
	src := &stringSource{body: quakeCSV, release: make(chan struct{})}
	s := f.newScene(src)

	require.NoError(t, s.SetThreshold(2))
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, f.host.Frame())
	assert.Empty(t, f.ctx.drawCount())
	assert.Nil(t, s.MaskSnapshot())

	close(src.release)
	require.NoError(t, waitForData(t, s))

	assert.Equal(t, 2.0, s.Threshold())
	assert.Equal(t, []uint32{0, 1, 1}, s.MaskSnapshot())
}

func TestScene_SetThresholdUnchangedIsNoOp(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))
	require.NoError(t, f.host.Frame())

	require.NoError(t, s.SetThreshold(0))
	require.NoError(t, f.host.Frame())

	assert.Equal(t, 1, f.ctx.writesTo(maskBinding, 3*4))
}

func TestScene_LayerVisibilityLeavesMask(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))
	require.NoError(t, s.SetThreshold(1.5))
	before := s.MaskSnapshot()

	require.NoError(t, s.SetLayerVisible(false))

	v, err := f.host.LayoutVisibility(host.LayerID)
	require.NoError(t, err)
	assert.Equal(t, host.LayoutNone, v)
	assert.False(t, s.LayerVisible())
	assert.Equal(t, before, s.MaskSnapshot())
	assert.Equal(t, 3, s.InstanceCount())

	require.NoError(t, f.host.Frame())
	assert.Empty(t, f.ctx.drawCount())

	require.NoError(t, s.SetLayerVisible(true))
	v, err = f.host.LayoutVisibility(host.LayerID)
	require.NoError(t, err)
	assert.Equal(t, host.LayoutVisible, v)
	assert.Equal(t, before, s.MaskSnapshot())
}

func TestScene_VisibilityBeforeAttach(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})

	require.NoError(t, s.SetLayerVisible(false))
	require.NoError(t, s.Attach(f.host))

	v, err := f.host.LayoutVisibility(host.LayerID)
	require.NoError(t, err)
	assert.Equal(t, host.LayoutNone, v)
	require.NoError(t, s.Dispose())
}

// racingHost runs beforeAdd between the scene's pre-attach checks and the layer registration.
type racingHost struct {
	host.Map
	beforeAdd func()
}

func (h *racingHost) AddLayer(layer host.CustomLayer, beforeID string) error {
	h.beforeAdd()
	return h.Map.AddLayer(layer, beforeID)
}

func TestScene_VisibilityChangedDuringAttach(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	h := &racingHost{Map: f.host, beforeAdd: func() {
		require.NoError(t, s.SetLayerVisible(false))
	}}

	require.NoError(t, s.Attach(h))

	v, err := f.host.LayoutVisibility(host.LayerID)
	require.NoError(t, err)
	assert.Equal(t, host.LayoutNone, v)
	assert.False(t, s.LayerVisible())
	require.NoError(t, s.Dispose())
}

func TestScene_DetachResetsInstanceGauges(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))
	require.Equal(t, 3.0, testutil.ToFloat64(metrics.InstancesBuilt))
	require.Equal(t, 3.0, testutil.ToFloat64(metrics.VisibleInstances))

	require.NoError(t, s.Dispose())

	assert.Zero(t, testutil.ToFloat64(metrics.InstancesBuilt))
	assert.Zero(t, testutil.ToFloat64(metrics.VisibleInstances))
}

func TestScene_ContractViolations(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))

	assert.ErrorIs(t, s.Attach(f.host), ErrHostContractViolation)

	other := f.newScene(&stringSource{body: quakeCSV})
	assert.ErrorIs(t, other.Attach(f.host), ErrHostContractViolation)
	assert.Equal(t, StateUninitialized, other.State())

	require.NoError(t, s.Dispose())
	assert.ErrorIs(t, s.Attach(f.host), ErrHostContractViolation)
	assert.ErrorIs(t, s.SetThreshold(3), ErrHostContractViolation)
	assert.ErrorIs(t, s.SetLayerVisible(false), ErrHostContractViolation)
}

func TestScene_DisposeTwiceReleasesOnce(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))
	require.NoError(t, waitForData(t, s))
	require.NoError(t, f.host.Frame())

	require.NoError(t, s.Dispose())
	require.NoError(t, s.Dispose())

	require.Len(t, f.renderers, 1)
	assert.Equal(t, 1, f.renderers[0].releases)
	assert.True(t, f.renderers[0].Released())
	assert.Equal(t, StateDisposed, s.State())
	assert.False(t, f.host.HasLayer(host.LayerID))

	require.NoError(t, f.host.Frame())
	assert.Equal(t, []uint32{3}, f.ctx.drawCount())
}

func TestScene_DisposeBeforeData(t *testing.T) {
	f := newFixture(t)
	src := &stringSource{body: quakeCSV, release: make(chan struct{})}
	s := f.newScene(src)
	require.NoError(t, s.Attach(f.host))

	require.NoError(t, s.Dispose())
	close(src.release)

	assert.ErrorIs(t, waitForData(t, s), ErrDisposed)
	assert.Zero(t, s.InstanceCount())
	assert.Nil(t, s.Store())
	require.Len(t, f.renderers, 1)
	assert.Equal(t, 1, f.renderers[0].releases)
}

func TestScene_DisposeBeforeAttach(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})

	require.NoError(t, s.Dispose())

	assert.Equal(t, StateDisposed, s.State())
	assert.ErrorIs(t, waitForData(t, s), ErrDisposed)
	assert.Empty(t, f.renderers)
}

func TestScene_HostReleaseDetachesLayer(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{body: quakeCSV})
	require.NoError(t, s.Attach(f.host))

	f.host.Release()

	assert.Equal(t, StateDisposed, s.State())
	require.NoError(t, s.Dispose())
	assert.Equal(t, 1, f.renderers[0].releases)
}

func TestScene_LoadFailureKeepsMapUsable(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(&stringSource{err: errors.New("connection refused")})
	require.NoError(t, s.Attach(f.host))

	err := waitForData(t, s)

	assert.True(t, loader.IsLoadError(err))
	assert.Equal(t, StateAttached, s.State())
	assert.Zero(t, s.InstanceCount())
	require.NoError(t, f.host.Frame())
	assert.Empty(t, f.ctx.drawCount())
}

func TestScene_NoSource(t *testing.T) {
	f := newFixture(t)
	s := f.newScene(nil)
	require.NoError(t, s.Attach(f.host))

	assert.ErrorIs(t, waitForData(t, s), ErrNoSource)
}

func TestScene_ResourceAcquisitionWithoutContext(t *testing.T) {
	h := host.NewMap(nil, host.WithLogger(logger.Discard()))
	s := NewScene(&stringSource{body: quakeCSV}, WithLogger(logger.Discard()))

	err := s.Attach(h)

	assert.ErrorIs(t, err, ErrResourceAcquisition)
	assert.ErrorIs(t, err, renderer.ErrContextUnavailable)
	var rae *ResourceAcquisitionError
	require.ErrorAs(t, err, &rae)
	assert.Equal(t, "renderer", rae.Resource)
	assert.False(t, h.HasLayer(host.LayerID))
	assert.Equal(t, StateUninitialized, s.State())
}

func TestScene_PartialAcquisitionIsReleased(t *testing.T) {
	f := newFixture(t)
	f.ctx.meshErr = errors.New("out of memory")
	s := f.newScene(&stringSource{body: quakeCSV})

	err := s.Attach(f.host)

	assert.ErrorIs(t, err, ErrResourceAcquisition)
	require.Len(t, f.renderers, 1)
	assert.Equal(t, 1, f.renderers[0].releases)
	assert.False(t, f.host.HasLayer(host.LayerID))
	assert.Zero(t, f.ctx.pipelines)
}

func TestScene_WaitForDataHonoursContext(t *testing.T) {
	f := newFixture(t)
	src := &stringSource{body: quakeCSV, release: make(chan struct{})}
	s := f.newScene(src)
	require.NoError(t, s.Attach(f.host))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.WaitForData(ctx), context.Canceled)

	close(src.release)
	require.NoError(t, waitForData(t, s))
}

func TestScene_Identity(t *testing.T) {
	a := NewScene(nil, WithLogger(logger.Discard()))
	b := NewScene(nil, WithLogger(logger.Discard()))

	assert.Equal(t, host.LayerID, a.ID())
	assert.NotEqual(t, a.HandleID(), b.HandleID())
	assert.True(t, a.LayerVisible())
	assert.Zero(t, a.Threshold())
	require.NoError(t, a.Dispose())
	require.NoError(t, b.Dispose())
}
