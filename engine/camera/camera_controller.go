package camera

// MapController owns the map view state (center, zoom, pitch and bearing) and turns it into
// the mercator-to-clip matrix handed to custom layers. It combines the zoom, tilt/rotate and
// pan controls a slippy map needs.
type MapController interface {
	mapOrbitController
	mapPanController

	// Center returns the geographic point at the middle of the viewport.
	//
	// Returns:
	//   - lon, lat: degrees
	Center() (lon, lat float64)

	// SetCenter moves the viewport center. Latitude is clamped to the mercator limit and
	// longitude is wrapped into [-180, 180).
	//
	// Parameters:
	//   - lon, lat: degrees
	SetCenter(lon, lat float64)

	// Zoom returns the current zoom level.
	//
	// Returns:
	//   - float64: the zoom level
	Zoom() float64

	// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom].
	//
	// Parameters:
	//   - zoom: the new zoom level
	SetZoom(zoom float64)

	// ZoomBy changes the zoom level by delta scaled by ZoomSpeed. Positive zooms in.
	//
	// Parameters:
	//   - delta: scroll amount
	ZoomBy(delta float64)

	// WorldSize returns the width of the whole world in pixels at the current zoom (512 * 2^zoom).
	//
	// Returns:
	//   - float64: world size in pixels
	WorldSize() float64

	// ViewProjection builds the column-major matrix mapping mercator units to WebGPU clip space
	// for a viewport of the given size.
	//
	// Parameters:
	//   - width, height: viewport size in pixels
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjection(width, height int) [16]float32
}

// mapOrbitController tilts and rotates the view around the center.
type mapOrbitController interface {
	// Pitch returns the tilt away from straight down, in degrees.
	//
	// Returns:
	//   - float64: pitch in degrees
	Pitch() float64

	// SetPitch sets the tilt, clamped to [0, MaxPitch].
	//
	// Parameters:
	//   - degrees: the new pitch
	SetPitch(degrees float64)

	// Tilt changes the pitch by delta degrees, clamped like SetPitch.
	//
	// Parameters:
	//   - delta: degrees to add
	Tilt(delta float64)

	// Bearing returns the clockwise rotation from north, in degrees within [-180, 180).
	//
	// Returns:
	//   - float64: bearing in degrees
	Bearing() float64

	// SetBearing sets the rotation from north, wrapped into [-180, 180).
	//
	// Parameters:
	//   - degrees: the new bearing
	SetBearing(degrees float64)

	// Rotate changes the bearing by delta degrees.
	//
	// Parameters:
	//   - delta: degrees to add
	Rotate(delta float64)
}

// mapPanController drags the map in screen space.
type mapPanController interface {
	// Pan moves the map so the content under the cursor follows a drag of (dx, dy) pixels.
	//
	// Parameters:
	//   - dx, dy: drag distance in screen pixels, y down
	Pan(dx, dy float64)

	// PanSpeed returns the multiplier applied to drag distances.
	//
	// Returns:
	//   - float64: pan multiplier
	PanSpeed() float64

	// ZoomSpeed returns the multiplier applied to ZoomBy deltas.
	//
	// Returns:
	//   - float64: zoom multiplier
	ZoomSpeed() float64
}
