package model

import "github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"

// ModelBuilderOption is a function that configures a Model during construction.
type ModelBuilderOption func(*model)

// WithName sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices packs the vertices and derives the vertex count and bounding radius from them.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertex option to a model
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = MarshalVertices(vertices)
		m.vertexCount = len(vertices)
		m.boundingRadius = ComputeBoundingRadius(vertices)
	}
}

// WithIndices packs the triangle indices and sets the index count.
//
// Parameters:
//   - indices: the triangle indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the index option to a model
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indexData = MarshalIndices(indices)
		m.indexCount = len(indices)
	}
}

// WithMeshProvider sets a provider that already holds uploaded buffers for this mesh.
//
// Parameters:
//   - provider: the mesh provider
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh provider option to a model
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.meshProvider = provider
	}
}

// WithBoundingRadius overrides the bounding radius derived from the vertices.
//
// Parameters:
//   - radius: the bounding radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
