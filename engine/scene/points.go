package scene

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/instance"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/model"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PointPipelineKey is the renderer cache key of the point marker pipeline.
const PointPipelineKey = "earthquake_points"

// Bind group slots of the point pipeline.
const (
	frameGroup    = 0
	instanceGroup = 1
)

// Binding indexes within each group.
const (
	cameraBinding   = 0
	lightBinding    = 1
	instanceBinding = 0
	maskBinding     = 1
)

const maskStride = 4

//go:embed assets/points.wgsl
var pointShaderSource string

// pointIncludes registers the struct sources the point shader pulls in.
func pointIncludes() map[string]string {
	return map[string]string{
		"camera_uniform": camera.GPUCameraUniformSource,
		"light":          light.GPULightSource,
		"point_instance": instance.GPUPointInstanceSource,
		"vertex":         model.GPUVertexSource,
	}
}

// frameGroupLayout describes group 0: the camera uniform and the light uniform.
func frameGroupLayout() wgpu.BindGroupLayoutDescriptor {
	cameraSize := (&camera.GPUCameraUniform{}).Size()
	lightSize := (&light.GPULightUniform{}).Size()
	return wgpu.BindGroupLayoutDescriptor{
		Label: "earthquake frame",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    cameraBinding,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(cameraSize),
				},
			},
			{
				Binding:    lightBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(lightSize),
				},
			},
		},
	}
}

// instanceGroupLayout describes group 1: the instance storage buffer and the visibility mask.
func instanceGroupLayout() wgpu.BindGroupLayoutDescriptor {
	instanceSize := (&instance.GPUPointInstance{}).Size()
	return wgpu.BindGroupLayoutDescriptor{
		Label: "earthquake instances",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    instanceBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: uint64(instanceSize),
				},
			},
			{
				Binding:    maskBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: maskStride,
				},
			},
		},
	}
}

// instanceBufferSizes sizes the group 1 buffers for n instances.
func instanceBufferSizes(n int) map[int]uint64 {
	n = max(n, 1)
	return map[int]uint64{
		instanceBinding: uint64(n * (&instance.GPUPointInstance{}).Size()),
		maskBinding:     uint64(n * maskStride),
	}
}

// newPointPipeline compiles the point shader for both stages and wraps it in a depth-tested pipeline.
// Back faces are kept: the host matrix flips Y, which flips the winding seen on screen.
func newPointPipeline(key string) (pipeline.Pipeline, error) {
	layouts := []shader.ShaderBuilderOption{
		shader.WithIncludes(pointIncludes()),
		shader.WithBindGroupLayout(frameGroup, frameGroupLayout()),
		shader.WithBindGroupLayout(instanceGroup, instanceGroupLayout()),
	}

	vs, err := shader.NewShader(key+"_vs", shader.ShaderTypeVertex, pointShaderSource,
		append(layouts, shader.WithVertexLayouts(model.VertexLayout()))...)
	if err != nil {
		return nil, fmt.Errorf("point vertex shader: %w", err)
	}
	fs, err := shader.NewShader(key+"_fs", shader.ShaderTypeFragment, pointShaderSource, layouts...)
	if err != nil {
		return nil, fmt.Errorf("point fragment shader: %w", err)
	}

	return pipeline.NewPipeline(key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithDepth(true, true),
		pipeline.WithCullMode(wgpu.CullModeNone),
	), nil
}
