package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-quake/engine/instance"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
)

// DefaultAmbient lifts the faces the two key lights miss so marker colors stay readable.
var DefaultAmbient = [3]float32{0.25, 0.25, 0.25}

// DefaultLights returns the two white key lights of the point layer, shining from the
// north-west and south-east diagonals in the ground plane.
//
// Returns:
//   - []light.Light: the default lights
func DefaultLights() []light.Light {
	return []light.Light{
		light.NewDirectionalLight(light.WithSourcePosition(-10, 10, 0), light.WithHexColor(0xffffff), light.WithIntensity(1)),
		light.NewDirectionalLight(light.WithSourcePosition(10, -10, 0), light.WithHexColor(0xffffff), light.WithIntensity(1)),
	}
}

func defaultRendererFactory(ctx renderer.Context, label string) (renderer.Renderer, error) {
	return renderer.NewRenderer(ctx, renderer.WithLabel(label))
}

func defaultLogger() *slog.Logger {
	return logger.L().With("component", "scene")
}

// SceneBuilderOption is a function that configures a Scene during construction.
type SceneBuilderOption func(*scene)

// WithLoader sets the loader used for the point source. The scene does not close a loader it
// was given. When not set, the scene creates a CSV loader and closes it on dispose.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: a function that applies the loader option to a scene
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.loader = l
	}
}

// WithRendererFactory replaces the function that creates the layer's renderer.
//
// Parameters:
//   - f: the renderer factory
//
// Returns:
//   - SceneBuilderOption: a function that applies the factory option to a scene
func WithRendererFactory(f RendererFactory) SceneBuilderOption {
	return func(s *scene) {
		if f != nil {
			s.newRenderer = f
		}
	}
}

// WithBeforeLayerID sets the layer the point layer is inserted beneath.
//
// Parameters:
//   - id: the before-layer id; empty adds the layer on top
//
// Returns:
//   - SceneBuilderOption: a function that applies the before-layer option to a scene
func WithBeforeLayerID(id string) SceneBuilderOption {
	return func(s *scene) {
		s.beforeID = id
	}
}

// WithThreshold sets the initial magnitude threshold.
//
// Parameters:
//   - t: the minimum visible magnitude
//
// Returns:
//   - SceneBuilderOption: a function that applies the threshold option to a scene
func WithThreshold(t float64) SceneBuilderOption {
	return func(s *scene) {
		s.threshold = t
	}
}

// WithLights replaces the default lights. At most light.MaxLights enabled lights are used.
//
// Parameters:
//   - lights: the directional lights
//
// Returns:
//   - SceneBuilderOption: a function that applies the lights option to a scene
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = lights
	}
}

// WithAmbient sets the ambient color added to every fragment.
//
// Parameters:
//   - rgb: the ambient color
//
// Returns:
//   - SceneBuilderOption: a function that applies the ambient option to a scene
func WithAmbient(rgb [3]float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = rgb
	}
}

// WithSphereSegments sets the tessellation of the marker sphere.
//
// Parameters:
//   - width: segments around the equator
//   - height: rings from pole to pole
//
// Returns:
//   - SceneBuilderOption: a function that applies the tessellation option to a scene
func WithSphereSegments(width, height int) SceneBuilderOption {
	return func(s *scene) {
		s.widthSegments = width
		s.heightSegments = height
	}
}

// WithStoreOptions forwards options to instance.Build. The host projection is applied first,
// so a WithProjector here overrides it.
//
// Parameters:
//   - opts: the store options
//
// Returns:
//   - SceneBuilderOption: a function that applies the store options to a scene
func WithStoreOptions(opts ...instance.StoreBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithLogger sets the logger. When not set, the package logger is used.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SceneBuilderOption: a function that applies the logger option to a scene
func WithLogger(l *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.log = l
	}
}
