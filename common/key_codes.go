package common

// Key codes delivered by the window's key callbacks. Printable keys use their ASCII
// value and the rest follow GLFW numbering.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace        = 32  // Spacebar (ASCII)
	KeyMinus        = 45  // - (ASCII)
	KeyEqual        = 61  // = (ASCII)
	KeyLeftBracket  = 91  // [ (ASCII)
	KeyRightBracket = 93  // ] (ASCII)
	KeyH            = 72  // H key (ASCII)
	KeyP            = 80  // P key (ASCII)
	KeyR            = 82  // R key (ASCII)
	KeyV            = 86  // V key (ASCII)
	KeyEsc          = 256 // Escape key (GLFW)

	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// Modifier keys.
const (
	KeyLeftShift  = 340 // Left Shift (GLFW)
	KeyRightShift = 344 // Right Shift (GLFW)
)

// IsShift reports whether keyCode is either shift key.
func IsShift(keyCode uint32) bool {
	return keyCode == KeyLeftShift || keyCode == KeyRightShift
}
