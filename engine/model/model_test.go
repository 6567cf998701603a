package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSphere_Counts(t *testing.T) {
	vertices, indices := BuildSphere(1, 32, 32)

	assert.Len(t, vertices, 33*33)
	// Pole rings contribute one triangle per segment, inner rings two.
	assert.Len(t, indices, (32*2+32*30*2)*3)
	for _, idx := range indices {
		require.Less(t, int(idx), len(vertices))
	}
}

func TestBuildSphere_UnitNormals(t *testing.T) {
	vertices, _ := BuildSphere(2, 8, 6)

	for _, v := range vertices {
		n := v.Normal
		length := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		assert.InDelta(t, 1, length, 1e-5)
		assert.InDelta(t, 2*n[2], v.Position[2], 1e-5)
	}
	assert.InDelta(t, 2, vertices[0].Position[2], 1e-6)
	assert.InDelta(t, -2, vertices[len(vertices)-1].Position[2], 1e-6)
}

func TestBuildSphere_ClampsSegments(t *testing.T) {
	vertices, indices := BuildSphere(1, 0, 0)

	assert.Len(t, vertices, 3*4)
	assert.Len(t, indices, 3*2*3)
}

func TestNewSphereModel(t *testing.T) {
	m := NewSphereModel(DefaultSphereWidthSegments, DefaultSphereHeightSegments)

	assert.Equal(t, "sphere", m.Name())
	assert.Equal(t, 33*33, m.VertexCount())
	assert.Len(t, m.VertexData(), m.VertexCount()*24)
	assert.Len(t, m.IndexData(), m.IndexCount()*4)
	assert.InDelta(t, 1, m.BoundingRadius(), 1e-5)
	assert.Nil(t, m.MeshProvider())

	m.ReleaseCPUData()
	assert.Nil(t, m.VertexData())
	assert.Nil(t, m.IndexData())
	assert.NotZero(t, m.IndexCount())
}

func TestGPUVertex_Marshal(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 0, 1}}

	buf := v.Marshal()

	require.Len(t, buf, v.Size())
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[20:])))
}

func TestVertexLayout_MatchesVertex(t *testing.T) {
	layout := VertexLayout()

	assert.Equal(t, uint64((&GPUVertex{}).Size()), layout.ArrayStride)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, uint64(12), layout.Attributes[1].Offset)
	assert.Contains(t, GPUVertexSource, "@location(1) normal")
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint32{7, 1 << 20})

	require.Len(t, buf, 8)
	assert.Equal(t, uint32(1<<20), binary.LittleEndian.Uint32(buf[4:]))
}
