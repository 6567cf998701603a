package model

import "math"

// Default tessellation of the point marker sphere.
const (
	DefaultSphereWidthSegments  = 32
	DefaultSphereHeightSegments = 32
)

// BuildSphere generates a UV sphere centered on the origin with its poles on the Z axis.
// Rings touching a pole emit a single triangle per segment instead of a degenerate quad.
//
// Parameters:
//   - radius: the sphere radius
//   - widthSegments: number of segments around the equator, clamped to at least 3
//   - heightSegments: number of rings from pole to pole, clamped to at least 2
//
// Returns:
//   - []GPUVertex: (heightSegments+1)*(widthSegments+1) vertices
//   - []uint32: triangle indices with counter-clockwise winding seen from outside
func BuildSphere(radius float32, widthSegments, heightSegments int) ([]GPUVertex, []uint32) {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	vertices := make([]GPUVertex, 0, (heightSegments+1)*(widthSegments+1))
	for r := 0; r <= heightSegments; r++ {
		phi := math.Pi * float64(r) / float64(heightSegments)
		for s := 0; s <= widthSegments; s++ {
			theta := 2.0 * math.Pi * float64(s) / float64(widthSegments)
			n := [3]float32{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Sin(phi) * math.Sin(theta)),
				float32(math.Cos(phi)),
			}
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
			})
		}
	}

	stride := widthSegments + 1
	indices := make([]uint32, 0, widthSegments*(heightSegments-1)*6)
	for r := range heightSegments {
		for s := range widthSegments {
			a := uint32(r*stride + s)
			b := uint32(r*stride + s + 1)
			c := uint32((r+1)*stride + s)
			d := uint32((r+1)*stride + s + 1)

			if r != 0 {
				indices = append(indices, a, c, b)
			}
			if r != heightSegments-1 {
				indices = append(indices, b, c, d)
			}
		}
	}
	return vertices, indices
}

// NewSphereModel builds a model holding a unit sphere. Point instances scale it to their radius.
//
// Parameters:
//   - widthSegments: number of segments around the equator
//   - heightSegments: number of rings from pole to pole
//   - options: variadic list of ModelBuilderOption functions applied after the mesh is set
//
// Returns:
//   - Model: the sphere model
func NewSphereModel(widthSegments, heightSegments int, options ...ModelBuilderOption) Model {
	vertices, indices := BuildSphere(1, widthSegments, heightSegments)
	opts := []ModelBuilderOption{
		WithName("sphere"),
		WithVertices(vertices),
		WithIndices(indices),
	}
	return NewModel(append(opts, options...)...)
}
