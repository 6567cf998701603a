package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option applied to a Shader during construction via NewShader.
type ShaderBuilderOption func(*shader)

// WithIncludes sets the registry include directives are expanded from.
//
// Parameters:
//   - includes: include name to WGSL source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the include registry
func WithIncludes(includes map[string]string) ShaderBuilderOption {
	return func(s *shader) {
		s.includes = includes
	}
}

// WithEntryPoint names the entry function explicitly instead of locating it by stage attribute.
//
// Parameters:
//   - name: the entry function name
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}

// WithBindGroupLayout declares the layout of one bind group used by this stage.
//
// Parameters:
//   - group: the bind group index
//   - desc: the layout descriptor for that group
//
// Returns:
//   - ShaderBuilderOption: a function that registers the layout
func WithBindGroupLayout(group int, desc wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) {
		s.bindGroupLayoutDescriptors[group] = desc
	}
}

// WithVertexLayouts sets the vertex buffer layouts consumed by a vertex stage, in slot order.
//
// Parameters:
//   - layouts: the vertex buffer layouts
//
// Returns:
//   - ShaderBuilderOption: a function that sets the vertex layouts
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexLayouts = append(s.vertexLayouts, layouts...)
	}
}
