package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
)

// contextConfig collects the construction-time settings of a Context.
type contextConfig struct {
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
	clearColor           [4]float64
	log                  *slog.Logger
}

func defaultContextConfig() *contextConfig {
	return &contextConfig{
		presentMode: PresentModeVSync,
		sampleCount: MSAA4x,
		clearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
		log:         logger.L(),
	}
}

// ContextBuilderOption is a functional option applied to a Context during construction via NewContext.
type ContextBuilderOption func(*contextConfig)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - ContextBuilderOption: a function that applies the present mode option to a context
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *contextConfig) {
		c.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the main render pass.
// When not specified, the default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - ContextBuilderOption: a function that applies the MSAA option to a context
func WithMSAA(count MSAASampleCount) ContextBuilderOption {
	return func(c *contextConfig) {
		c.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU fallback adapter. This requires a
// software Vulkan ICD such as SwiftShader or lavapipe to be installed.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - ContextBuilderOption: a function that applies the fallback adapter option to a context
func WithForceSoftwareRenderer(force bool) ContextBuilderOption {
	return func(c *contextConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithClearColor sets the background color the render pass is cleared to each frame.
//
// Parameters:
//   - rgba: linear RGBA in [0, 1]
//
// Returns:
//   - ContextBuilderOption: a function that applies the clear color option to a context
func WithClearColor(rgba [4]float64) ContextBuilderOption {
	return func(c *contextConfig) {
		c.clearColor = rgba
	}
}

// WithContextLogger sets the logger used for device and surface diagnostics.
//
// Parameters:
//   - l: the slog.Logger to use
//
// Returns:
//   - ContextBuilderOption: a function that applies the logger option to a context
func WithContextLogger(l *slog.Logger) ContextBuilderOption {
	return func(c *contextConfig) {
		if l != nil {
			c.log = l
		}
	}
}
