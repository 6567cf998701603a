package window

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
)

const (
	DefaultTitle  = "Earthquakes"
	DefaultWidth  = 1280
	DefaultHeight = 720

	// DefaultIdleWait keeps an idle window responsive to background repaint requests
	// without spinning a core.
	DefaultIdleWait = 16 * time.Millisecond
)

// WindowBuilderOption is a functional option for configuring a Window in NewWindow.
type WindowBuilderOption func(w *quakeWindow)

// WithTitle sets the initial title bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *quakeWindow) {
		w.title = title
	}
}

// WithSize sets the requested client area size. On high-DPI displays the framebuffer
// reported by Width and Height may be larger.
//
// Parameters:
//   - width: requested width in screen coordinates
//   - height: requested height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *quakeWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize sets the smallest size the user can resize the window to.
//
// Parameters:
//   - width: minimum width in screen coordinates
//   - height: minimum height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *quakeWindow) {
		w.minWidth = width
		w.minHeight = height
	}
}

// WithResizable controls whether the user can resize the window.
//
// Parameters:
//   - resizable: false to fix the window size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *quakeWindow) {
		w.resizable = resizable
	}
}

// WithIdleWait sets how long the event loop blocks waiting for input before running the
// update callback anyway. Zero polls without blocking.
//
// Parameters:
//   - d: the maximum wait per loop iteration
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithIdleWait(d time.Duration) WindowBuilderOption {
	return func(w *quakeWindow) {
		if d >= 0 {
			w.idleWait = d
		}
	}
}

// WithLogger sets the logger used for window lifecycle messages.
func WithLogger(l *slog.Logger) WindowBuilderOption {
	return func(w *quakeWindow) {
		if l != nil {
			w.log = l
		}
	}
}

func defaultLogger() *slog.Logger {
	return logger.L().With("component", "window")
}
