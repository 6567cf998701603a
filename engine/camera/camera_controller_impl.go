package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// TileSize is the pixel width of the world at zoom 0.
	TileSize = 512.0

	// DefaultFov is the vertical field of view, in radians, of the map perspective.
	DefaultFov = 0.6435011087932844

	// MinZoom and MaxZoom bound SetZoom.
	MinZoom = 0.0
	MaxZoom = 22.0

	// MaxPitch bounds SetPitch, in degrees.
	MaxPitch = 85.0

	// maxMercatorLatitude keeps the mercator y coordinate finite.
	maxMercatorLatitude = 85.051129
)

// webGPUDepth remaps OpenGL clip depth [-w, w] to the WebGPU range [0, w].
var webGPUDepth = mgl64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// mapControllerImpl is the single implementation of MapController.
// The center is held in mercator units so panning is linear in screen space.
type mapControllerImpl struct {
	mu sync.Mutex

	centerX, centerY float64
	zoom             float64
	pitch            float64 // degrees
	bearing          float64 // degrees
	fov              float64 // radians

	zoomSpeed float64
	panSpeed  float64
}

var _ MapController = &mapControllerImpl{}

// NewMapController creates a MapController looking straight down at (0, 0) from zoom 0.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - MapController: the newly created controller
func NewMapController(options ...MapControllerOption) MapController {
	mc := &mapControllerImpl{
		centerX:   0.5,
		centerY:   0.5,
		fov:       DefaultFov,
		zoomSpeed: 1.0,
		panSpeed:  1.0,
	}
	for _, option := range options {
		option(mc)
	}
	return mc
}

func (mc *mapControllerImpl) Center() (lon, lat float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return projection.Unproject(projection.LocalPosition{X: mc.centerX, Y: mc.centerY})
}

func (mc *mapControllerImpl) SetCenter(lon, lat float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.setCenter(lon, lat)
}

// setCenter must be called with mc.mu held.
func (mc *mapControllerImpl) setCenter(lon, lat float64) {
	lat = clamp(lat, -maxMercatorLatitude, maxMercatorLatitude)
	p := projection.Project(wrapDegrees(lon), lat, 0)
	mc.centerX, mc.centerY = p.X, p.Y
}

func (mc *mapControllerImpl) Zoom() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.zoom
}

func (mc *mapControllerImpl) SetZoom(zoom float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.zoom = clamp(zoom, MinZoom, MaxZoom)
}

func (mc *mapControllerImpl) ZoomBy(delta float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.zoom = clamp(mc.zoom+delta*mc.zoomSpeed, MinZoom, MaxZoom)
}

func (mc *mapControllerImpl) WorldSize() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.worldSize()
}

func (mc *mapControllerImpl) worldSize() float64 {
	return TileSize * math.Pow(2, mc.zoom)
}

func (mc *mapControllerImpl) Pitch() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.pitch
}

func (mc *mapControllerImpl) SetPitch(degrees float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.pitch = clamp(degrees, 0, MaxPitch)
}

func (mc *mapControllerImpl) Tilt(delta float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.pitch = clamp(mc.pitch+delta, 0, MaxPitch)
}

func (mc *mapControllerImpl) Bearing() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.bearing
}

func (mc *mapControllerImpl) SetBearing(degrees float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.bearing = wrapDegrees(degrees)
}

func (mc *mapControllerImpl) Rotate(delta float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.bearing = wrapDegrees(mc.bearing + delta)
}

func (mc *mapControllerImpl) Pan(dx, dy float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	// screen drag rotated back into the north-up frame, then pixels to mercator units
	b := mgl64.DegToRad(mc.bearing)
	cos, sin := math.Cos(b), math.Sin(b)
	wx := (dx*cos + dy*sin) * mc.panSpeed / mc.worldSize()
	wy := (-dx*sin + dy*cos) * mc.panSpeed / mc.worldSize()

	mc.centerX -= wx
	mc.centerY -= wy
	mc.centerX -= math.Floor(mc.centerX)
	lon, lat := projection.Unproject(projection.LocalPosition{X: mc.centerX, Y: clamp(mc.centerY, 0, 1)})
	mc.setCenter(lon, lat)
}

func (mc *mapControllerImpl) PanSpeed() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.panSpeed
}

func (mc *mapControllerImpl) ZoomSpeed() float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.zoomSpeed
}

// ViewProjection follows the slippy-map camera model: the camera sits cameraToCenter pixels
// from the center along the pitched view axis, the world is laid out in pixels at the current
// world size, and mercator units are scaled up to pixels on all three axes.
func (mc *mapControllerImpl) ViewProjection(width, height int) [16]float32 {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if width <= 0 || height <= 0 {
		return toFloat32(mgl64.Ident4())
	}
	w, h := float64(width), float64(height)
	worldSize := mc.worldSize()
	pitch := mgl64.DegToRad(mc.pitch)
	cameraToCenter := 0.5 / math.Tan(mc.fov/2) * h

	// distance to the far edge of the ground plane visible at the top of the viewport
	far := cameraToCenter * 100
	halfFov := mc.fov / 2
	if denom := math.Sin(math.Pi/2 - pitch - halfFov); denom > 0.01 {
		topHalf := math.Sin(halfFov) * cameraToCenter / denom
		far = (math.Cos(math.Pi/2-pitch)*topHalf + cameraToCenter) * 1.01
	}
	near := h / 50

	m := webGPUDepth.
		Mul4(mgl64.Perspective(mc.fov, w/h, near, far)).
		Mul4(mgl64.Scale3D(1, -1, 1)).
		Mul4(mgl64.Translate3D(0, 0, -cameraToCenter)).
		Mul4(mgl64.HomogRotate3DX(pitch)).
		Mul4(mgl64.HomogRotate3DZ(-mgl64.DegToRad(mc.bearing))).
		Mul4(mgl64.Translate3D(-mc.centerX*worldSize, -mc.centerY*worldSize, 0)).
		Mul4(mgl64.Scale3D(worldSize, worldSize, worldSize))
	return toFloat32(m)
}

func toFloat32(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// wrapDegrees maps any angle into [-180, 180).
func wrapDegrees(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
