package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
)

// model is the implementation of the Model interface.
type model struct {
	mu                    sync.Mutex
	name                  string
	meshProvider          bind_group_provider.BindGroupProvider
	boundingRadius        float32
	vertexCount           int
	vertexData, indexData []byte
	indexCount            int
}

// Model is a CPU-side mesh ready for upload. After a renderer uploads it, the mesh provider
// holds its vertex and index buffers and the CPU copies can be dropped.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// MeshProvider retrieves the BindGroupProvider holding the uploaded vertex and index buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider, or nil before upload
	MeshProvider() bind_group_provider.BindGroupProvider

	// SetMeshProvider stores the provider created when the mesh was uploaded.
	//
	// Parameters:
	//   - provider: the mesh provider
	SetMeshProvider(provider bind_group_provider.BindGroupProvider)

	// VertexData retrieves the packed vertex bytes.
	//
	// Returns:
	//   - []byte: the vertex data, or nil once released
	VertexData() []byte

	// IndexData retrieves the packed uint32 index bytes.
	//
	// Returns:
	//   - []byte: the index data, or nil once released
	IndexData() []byte

	// IndexCount returns the number of indices drawn per instance.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexCount returns the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// BoundingRadius returns the distance from the origin to the farthest vertex.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// ReleaseCPUData drops the CPU copies of the vertex and index data. Counts are kept.
	ReleaseCPUData()
}

var _ Model = &model{}

// NewModel creates a new Model with the given options.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshProvider
}

func (m *model) SetMeshProvider(provider bind_group_provider.BindGroupProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meshProvider = provider
}

func (m *model) VertexData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexData
}

func (m *model) IndexData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) VertexCount() int {
	return m.vertexCount
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) ReleaseCPUData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vertexData = nil
	m.indexData = nil
}
