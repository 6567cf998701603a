package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragTracker_NoDragWithoutPress(t *testing.T) {
	var d dragTracker
	_, _, _, ok := d.move(10, 10)
	assert.False(t, ok)
}

func TestDragTracker_ReportsDeltas(t *testing.T) {
	var d dragTracker
	d.press(MouseButtonLeft, 100, 100)

	b, dx, dy, ok := d.move(110, 95)
	assert.True(t, ok)
	assert.Equal(t, MouseButtonLeft, b)
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, -5.0, dy)

	_, dx, dy, ok = d.move(111, 95)
	assert.True(t, ok)
	assert.Equal(t, 1.0, dx)
	assert.Equal(t, 0.0, dy)

	_, _, _, ok = d.move(111, 95)
	assert.False(t, ok, "no movement, no delta")
}

func TestDragTracker_FirstButtonWins(t *testing.T) {
	var d dragTracker
	d.press(MouseButtonRight, 0, 0)
	d.press(MouseButtonLeft, 50, 50)

	b, dx, _, ok := d.move(5, 0)
	assert.True(t, ok)
	assert.Equal(t, MouseButtonRight, b)
	assert.Equal(t, 5.0, dx)

	d.release(MouseButtonLeft)
	_, _, _, ok = d.move(6, 0)
	assert.True(t, ok, "releasing another button keeps the drag")

	d.release(MouseButtonRight)
	_, _, _, ok = d.move(20, 0)
	assert.False(t, ok)
}

func TestMouseButton_String(t *testing.T) {
	assert.Equal(t, "left", MouseButtonLeft.String())
	assert.Equal(t, "middle", MouseButtonMiddle.String())
	assert.Equal(t, "unknown", MouseButton(9).String())
}
