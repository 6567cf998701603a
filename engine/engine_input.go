package engine

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/host"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

const (
	// keyPanPixels is how far one arrow key press pans, in screen pixels.
	keyPanPixels = 60.0

	// keyZoomSteps is the zoom change of one -/= press, in scroll notches.
	keyZoomSteps = 2.0

	// rotateDegreesPerPixel and tiltDegreesPerPixel convert right-drag deltas into camera angles.
	rotateDegreesPerPixel = 0.3
	tiltDegreesPerPixel   = 0.2
)

func (e *engine) handleKeyDown(keyCode uint32) {
	cam := e.m.Controller()

	switch keyCode {
	case common.KeyRightBracket:
		e.logThreshold(e.StepThreshold(1))
	case common.KeyLeftBracket:
		e.logThreshold(e.StepThreshold(-1))
	case common.KeyV:
		visible, err := e.ToggleLayer()
		if err != nil {
			e.log.Warn("toggle layer", "error", err)
			return
		}
		e.log.Info("layer visibility", "visible", visible)
	case common.KeyR:
		if err := e.Reload(); err != nil {
			e.log.Error("reload", "error", err)
		}
	case common.KeyP:
		if e.profilingEnabled.Load() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	case common.KeyH:
		cam.SetCenter(host.DefaultCenterLon, host.DefaultCenterLat)
		cam.SetZoom(host.DefaultZoom)
		cam.SetPitch(host.DefaultPitch)
		cam.SetBearing(0)
	case common.KeyLeft:
		cam.Pan(keyPanPixels, 0)
	case common.KeyRight:
		cam.Pan(-keyPanPixels, 0)
	case common.KeyUp:
		cam.Pan(0, keyPanPixels)
	case common.KeyDown:
		cam.Pan(0, -keyPanPixels)
	case common.KeyEqual:
		cam.ZoomBy(keyZoomSteps)
	case common.KeyMinus:
		cam.ZoomBy(-keyZoomSteps)
	case common.KeyLeftShift, common.KeyRightShift:
		e.shift = true
		return
	default:
		return
	}
	e.m.TriggerRepaint()
}

func (e *engine) handleKeyUp(keyCode uint32) {
	if common.IsShift(keyCode) {
		e.shift = false
	}
}

func (e *engine) logThreshold(t float64, err error) {
	if err != nil {
		e.log.Warn("set threshold", "error", err)
		return
	}
	e.log.Info("magnitude threshold", "threshold", t)
}

func (e *engine) handleScroll(delta float32) {
	e.m.Controller().ZoomBy(float64(delta))
	e.m.TriggerRepaint()
}

// handleDrag pans with the left or middle button and rotates and tilts with the right
// button or shift plus left.
func (e *engine) handleDrag(button window.MouseButton, dx, dy float64) {
	cam := e.m.Controller()
	if button == window.MouseButtonRight || (button == window.MouseButtonLeft && e.shift) {
		cam.Rotate(dx * rotateDegreesPerPixel)
		cam.Tilt(-dy * tiltDegreesPerPixel)
	} else {
		cam.Pan(dx, dy)
	}
	e.m.TriggerRepaint()
}

func (e *engine) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		// minimized
		return
	}
	if err := e.m.Resize(width, height); err != nil {
		e.log.Error("resize surface", "width", width, "height", height, "error", err)
	}
}
