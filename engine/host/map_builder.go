package host

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
)

// MapBuilderOption is a function that configures a Map during construction.
type MapBuilderOption func(*mapImpl)

// WithStyle sets the style URL. An empty style keeps DefaultStyle.
//
// Parameters:
//   - style: the style URL
//
// Returns:
//   - MapBuilderOption: a function that applies the style option to a map
func WithStyle(style string) MapBuilderOption {
	return func(m *mapImpl) {
		if style != "" {
			m.style = style
		}
	}
}

// WithAccessToken injects the map access token.
//
// Parameters:
//   - token: the access token
//
// Returns:
//   - MapBuilderOption: a function that applies the token option to a map
func WithAccessToken(token string) MapBuilderOption {
	return func(m *mapImpl) {
		m.accessToken = token
	}
}

// WithController replaces the default map camera.
//
// Parameters:
//   - controller: the camera controller
//
// Returns:
//   - MapBuilderOption: a function that applies the controller option to a map
func WithController(controller camera.MapController) MapBuilderOption {
	return func(m *mapImpl) {
		m.controller = controller
	}
}

// WithProjector replaces the projection handed to layers through Host.Project.
//
// Parameters:
//   - p: the projector
//
// Returns:
//   - MapBuilderOption: a function that applies the projector option to a map
func WithProjector(p projection.Projector) MapBuilderOption {
	return func(m *mapImpl) {
		if p != nil {
			m.projector = p
		}
	}
}

// WithBackground sets the color frames are cleared to.
//
// Parameters:
//   - rgba: linear RGBA in [0, 1]
//
// Returns:
//   - MapBuilderOption: a function that applies the background option to a map
func WithBackground(rgba [4]float64) MapBuilderOption {
	return func(m *mapImpl) {
		m.background = rgba
	}
}

// WithLogger sets the logger used for layer registry events.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - MapBuilderOption: a function that applies the logger option to a map
func WithLogger(l *slog.Logger) MapBuilderOption {
	return func(m *mapImpl) {
		m.log = l
	}
}

func defaultLogger() *slog.Logger {
	return logger.L().With("component", "host")
}
