package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContext struct {
	registered  []string
	registerErr error
	meshInits   int
	groupInits  int
	writes      int
	draws       []uint32
}

func (f *fakeContext) Resize(int, int) error                            { return nil }
func (f *fakeContext) Size() (int, int)                                 { return 800, 600 }
func (f *fakeContext) SetPresentMode(PresentMode)                       {}
func (f *fakeContext) SetClearColor([4]float64)                         {}
func (f *fakeContext) BeginFrame() error                                { return nil }
func (f *fakeContext) EndFrame() error                                  { return nil }
func (f *fakeContext) Present()                                         {}
func (f *fakeContext) Release()                                         {}
func (f *fakeContext) WriteBuffers(w []bind_group_provider.BufferWrite) { f.writes += len(w) }

func (f *fakeContext) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, p.PipelineKey())
	return nil
}

func (f *fakeContext) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	f.meshInits++
	return nil
}

func (f *fakeContext) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor, map[int]uint64) error {
	f.groupInits++
	return nil
}

func (f *fakeContext) DrawCall(_ pipeline.Pipeline, _ bind_group_provider.BindGroupProvider, n uint32, _ []bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, n)
	return nil
}

func TestNewRenderer_NilContext(t *testing.T) {
	r, err := NewRenderer(nil)

	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrContextUnavailable)
}

func TestRenderer_RegisterPipelinesCachesByKey(t *testing.T) {
	ctx := &fakeContext{}
	r, err := NewRenderer(ctx, WithLabel("earthquake"))
	require.NoError(t, err)

	p := pipeline.NewPipeline("points")
	require.NoError(t, r.RegisterPipelines(p, pipeline.NewPipeline("points")))

	assert.Equal(t, []string{"points"}, ctx.registered)
	assert.Equal(t, p, r.Pipeline("points"))
	assert.Nil(t, r.Pipeline("missing"))
}

func TestRenderer_RegisterPipelinesError(t *testing.T) {
	cause := errors.New("shader compile failed")
	r, err := NewRenderer(&fakeContext{registerErr: cause}, WithLabel("earthquake"))
	require.NoError(t, err)

	err = r.RegisterPipelines(pipeline.NewPipeline("points"))

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "earthquake")
	assert.Nil(t, r.Pipeline("points"))
}

func TestRenderer_DrawCall(t *testing.T) {
	ctx := &fakeContext{}
	r, err := NewRenderer(ctx)
	require.NoError(t, err)
	require.NoError(t, r.RegisterPipelines(pipeline.NewPipeline("points")))
	mesh := bind_group_provider.NewBindGroupProvider("sphere")

	assert.ErrorIs(t, r.DrawCall("unknown", mesh, 3, nil), ErrPipelineNotFound)
	assert.NoError(t, r.DrawCall("points", mesh, 0, nil))
	assert.NoError(t, r.DrawCall("points", mesh, 3, nil))

	assert.Equal(t, []uint32{3}, ctx.draws)
}

func TestRenderer_ReleaseFreesTrackedProviders(t *testing.T) {
	ctx := &fakeContext{}
	r, err := NewRenderer(ctx)
	require.NoError(t, err)

	mesh := bind_group_provider.NewBindGroupProvider("sphere")
	group := bind_group_provider.NewBindGroupProvider("camera")
	require.NoError(t, r.InitMeshBuffers(mesh, []byte{1}, []byte{0, 0, 0, 0}, 1))
	require.NoError(t, r.InitBindGroup(group, wgpu.BindGroupLayoutDescriptor{}, nil))
	require.NoError(t, r.InitBindGroup(group, wgpu.BindGroupLayoutDescriptor{}, nil))

	r.Release()
	r.Release()

	assert.True(t, r.Released())
	assert.True(t, mesh.Released())
	assert.True(t, group.Released())
	assert.Equal(t, 1, ctx.meshInits)
	assert.Equal(t, 2, ctx.groupInits)
}

func TestRenderer_AfterRelease(t *testing.T) {
	ctx := &fakeContext{}
	r, err := NewRenderer(ctx)
	require.NoError(t, err)
	require.NoError(t, r.RegisterPipelines(pipeline.NewPipeline("points")))
	r.Release()

	mesh := bind_group_provider.NewBindGroupProvider("sphere")
	assert.ErrorIs(t, r.RegisterPipelines(pipeline.NewPipeline("other")), ErrContextReleased)
	assert.ErrorIs(t, r.InitMeshBuffers(mesh, nil, nil, 0), ErrContextReleased)
	assert.ErrorIs(t, r.DrawCall("points", mesh, 1, nil), ErrContextReleased)
	r.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: mesh, Data: []byte{1}}})

	assert.Zero(t, ctx.writes)
	assert.Empty(t, ctx.draws)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "frame", Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageVertex},
			{Binding: 0, Visibility: wgpu.ShaderStageVertex},
		}},
		1: {Label: "instances", Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "frame", Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
			{Binding: 2, Visibility: wgpu.ShaderStageFragment},
		}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)

	require.Len(t, merged, 2)
	entries := merged[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[1].Visibility)
	assert.Equal(t, uint32(2), entries[2].Binding)
	assert.Equal(t, vertex[1], merged[1])
	// inputs are not mutated
	assert.Equal(t, wgpu.ShaderStageVertex, vertex[0].Entries[0].Visibility)
}
