package host

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
)

const (
	// LayerID is the stable id of the earthquake point layer.
	LayerID = "earthquake"

	// DefaultBeforeLayerID is the style layer the point layer is inserted beneath.
	DefaultBeforeLayerID = "waterway-label"

	// LayoutVisible and LayoutNone are the two values of a layer's visibility layout property.
	LayoutVisible = "visible"
	LayoutNone    = "none"
)

var (
	// ErrLayerExists is returned by AddLayer when a layer with the same id is already registered.
	ErrLayerExists = errors.New("host: layer already exists")

	// ErrLayerNotFound is returned when a layer id is not registered.
	ErrLayerNotFound = errors.New("host: layer not found")

	// ErrHostReleased is returned by operations issued against a released host.
	ErrHostReleased = errors.New("host: map released")
)

// CustomLayer is a layer whose drawing is delegated to client code. The host calls OnAttach
// once when the layer is added, OnFrame on its render goroutine for every frame the layer is
// visible, and OnDetach once when the layer is removed.
type CustomLayer interface {
	// ID returns the layer id used by the host registry.
	//
	// Returns:
	//   - string: the layer id
	ID() string

	// OnAttach acquires the layer's GPU resources. An error aborts the AddLayer call and the
	// layer is not registered.
	//
	// Parameters:
	//   - h: the host the layer is being added to
	//
	// Returns:
	//   - error: a resource acquisition error, or nil
	OnAttach(h Host) error

	// OnFrame draws the layer into the host's open render pass.
	//
	// Parameters:
	//   - viewProj: the column-major matrix from mercator units to clip space for this frame
	OnFrame(viewProj [16]float32)

	// OnDetach releases every resource acquired in OnAttach.
	OnDetach()
}

// Host is the contract a map engine offers to custom layers.
type Host interface {
	projection.Projector

	// AddLayer registers layer before the layer beforeID, or on top when beforeID is empty or
	// not registered, then calls layer.OnAttach.
	//
	// Parameters:
	//   - layer: the layer to add
	//   - beforeID: the id of the layer to insert beneath
	//
	// Returns:
	//   - error: ErrLayerExists, the OnAttach error, or nil
	AddLayer(layer CustomLayer, beforeID string) error

	// RemoveLayer unregisters the layer and calls its OnDetach.
	//
	// Parameters:
	//   - id: the layer id
	//
	// Returns:
	//   - error: ErrLayerNotFound if id is not registered
	RemoveLayer(id string) error

	// HasLayer reports whether a layer id is registered.
	//
	// Parameters:
	//   - id: the layer id
	//
	// Returns:
	//   - bool: true if registered
	HasLayer(id string) bool

	// TriggerRepaint schedules another frame.
	TriggerRepaint()

	// SetLayoutVisibility sets the visibility layout property of a layer to LayoutVisible or LayoutNone.
	//
	// Parameters:
	//   - id: the layer id
	//   - visible: true for LayoutVisible
	//
	// Returns:
	//   - error: ErrLayerNotFound if id is not registered
	SetLayoutVisibility(id string, visible bool) error

	// LayoutVisibility returns the visibility layout property of a layer.
	//
	// Parameters:
	//   - id: the layer id
	//
	// Returns:
	//   - string: LayoutVisible or LayoutNone
	//   - error: ErrLayerNotFound if id is not registered
	LayoutVisibility(id string) (string, error)

	// GraphicsContext returns the host-owned graphics context layers render through.
	//
	// Returns:
	//   - renderer.Context: the context, or nil if the host has no GPU
	GraphicsContext() renderer.Context
}

func layoutValue(visible bool) string {
	if visible {
		return LayoutVisible
	}
	return LayoutNone
}
