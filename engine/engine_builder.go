package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine presents into and takes input from.
// Without a window the engine is headless and Run returns ErrNoWindow.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithProfiling enables or disables periodic frame statistics.
//
// Parameters:
//   - enabled: if true, the profiler reports after every interval of rendered frames
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default one-second profiler.
//
// Parameters:
//   - p: the profiler to tick after each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithFitToData recenters the map camera on the loaded points after every successful load.
//
// Parameters:
//   - fit: true to follow the data
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFitToData(fit bool) EngineBuilderOption {
	return func(e *engine) {
		e.fitToData = fit
	}
}

// WithLogger sets the logger for frame, input and load messages.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

func defaultLogger() *slog.Logger {
	return logger.L().With("component", "engine")
}
