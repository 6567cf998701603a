package window

// MouseButton identifies the button that started a drag.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonRight:
		return "right"
	case MouseButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// dragTracker turns press, move and release events into per-move cursor deltas.
// Only the first pressed button drives a drag; other buttons are ignored until it is released.
type dragTracker struct {
	active       bool
	button       MouseButton
	lastX, lastY float64
}

func (d *dragTracker) press(button MouseButton, x, y float64) {
	if d.active {
		return
	}
	d.active = true
	d.button = button
	d.lastX, d.lastY = x, y
}

func (d *dragTracker) release(button MouseButton) {
	if d.active && d.button == button {
		d.active = false
	}
}

// move records the cursor position and returns the delta since the previous event.
// ok is false when no drag is active or the cursor did not move.
func (d *dragTracker) move(x, y float64) (button MouseButton, dx, dy float64, ok bool) {
	if !d.active {
		return 0, 0, 0, false
	}
	dx, dy = x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	if dx == 0 && dy == 0 {
		return d.button, 0, 0, false
	}
	return d.button, dx, dy, true
}
