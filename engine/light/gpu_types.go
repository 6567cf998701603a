package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxLights is the number of light slots in the light uniform. Enabled lights beyond it are
// dropped when the uniform is packed.
const MaxLights = 4

// GPULightSource is the canonical WGSL definition of the DirectionalLight and LightUniform
// structs. Matches GPULight (32 bytes) and GPULightUniform (144 bytes) exactly.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of one directional light.
// Size: 32 bytes.
type GPULight struct {
	Direction [3]float32 // offset  0: normalized travel direction
	Intensity float32    // offset 12
	Color     [3]float32 // offset 16: linear RGB
	_pad      float32    // offset 28
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalInto writes the light into buf, which must hold at least Size bytes.
//
// Parameters:
//   - buf: the destination
func (g *GPULight) MarshalInto(buf []byte) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Direction[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[28:], 0)
}

// GPULightUniform is the light uniform bound next to the camera: an ambient term, the active
// light count and a fixed array of light slots.
// Size: 144 bytes.
type GPULightUniform struct {
	Ambient [3]float32          // offset  0
	Count   uint32              // offset 12
	Lights  [MaxLights]GPULight // offset 16
}

// NewLightUniform packs the enabled lights, in order, into a uniform.
//
// Parameters:
//   - ambient: the ambient RGB term added to every fragment
//   - lights: the candidate lights; disabled ones are skipped
//
// Returns:
//   - GPULightUniform: the packed uniform
func NewLightUniform(ambient [3]float32, lights ...Light) GPULightUniform {
	u := GPULightUniform{Ambient: ambient}
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		if int(u.Count) == MaxLights {
			break
		}
		u.Lights[u.Count] = l.GPU()
		u.Count++
	}
	return u
}

// Size returns the size of the GPULightUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (u *GPULightUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer
func (u *GPULightUniform) Marshal() []byte {
	buf := make([]byte, u.Size())
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(u.Ambient[i]))
	}
	binary.LittleEndian.PutUint32(buf[12:], u.Count)
	for i := range u.Lights {
		u.Lights[i].MarshalInto(buf[16+i*32:])
	}
	return buf
}
