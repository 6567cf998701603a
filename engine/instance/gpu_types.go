package instance

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointInstanceSource is the canonical WGSL definition of the PointInstance struct.
// Matches GPUPointInstance layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/point_instance.wgsl
var GPUPointInstanceSource string

// GPUPointInstance is the GPU-aligned representation of one point marker in the instance storage buffer.
// Size: 80 bytes (std430 / WGSL aligned).
type GPUPointInstance struct {
	Model     [16]float32 // offset  0: translation * uniform scale (mat4x4<f32>)
	Color     [3]float32  // offset 64: class color (vec3<f32>)
	Magnitude float32     // offset 76: source magnitude (f32)
}

// Size returns the size of the GPUPointInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUPointInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalInto writes the instance into buf, which must hold at least Size bytes.
func (g *GPUPointInstance) MarshalInto(buf []byte) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.Magnitude))
}

// Marshal serializes the GPUPointInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUPointInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.MarshalInto(buf)
	return buf
}
