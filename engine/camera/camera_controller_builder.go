package camera

// MapControllerOption is a functional option for configuring a MapController.
type MapControllerOption func(*mapControllerImpl)

// WithCenter sets the initial viewport center.
//
// Parameters:
//   - lon, lat: degrees
//
// Returns:
//   - MapControllerOption: functional option to set the center
func WithCenter(lon, lat float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.setCenter(lon, lat)
	}
}

// WithZoom sets the initial zoom level.
//
// Parameters:
//   - zoom: the zoom level, clamped to [MinZoom, MaxZoom]
//
// Returns:
//   - MapControllerOption: functional option to set the zoom
func WithZoom(zoom float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.zoom = clamp(zoom, MinZoom, MaxZoom)
	}
}

// WithPitch sets the initial tilt in degrees.
//
// Parameters:
//   - degrees: the pitch, clamped to [0, MaxPitch]
//
// Returns:
//   - MapControllerOption: functional option to set the pitch
func WithPitch(degrees float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.pitch = clamp(degrees, 0, MaxPitch)
	}
}

// WithBearing sets the initial rotation from north in degrees.
//
// Parameters:
//   - degrees: the bearing
//
// Returns:
//   - MapControllerOption: functional option to set the bearing
func WithBearing(degrees float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.bearing = wrapDegrees(degrees)
	}
}

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - MapControllerOption: functional option to set the field of view
func WithFov(fov float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.fov = fov
	}
}

// WithZoomSpeed sets the multiplier applied to ZoomBy deltas.
//
// Parameters:
//   - speed: zoom multiplier
//
// Returns:
//   - MapControllerOption: functional option to set the zoom speed
func WithZoomSpeed(speed float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the multiplier applied to Pan distances.
//
// Parameters:
//   - speed: pan multiplier
//
// Returns:
//   - MapControllerOption: functional option to set the pan speed
func WithPanSpeed(speed float64) MapControllerOption {
	return func(mc *mapControllerImpl) {
		mc.panSpeed = speed
	}
}
