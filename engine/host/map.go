package host

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/projection"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
)

const (
	// DefaultStyle is the map style URL used when none is configured.
	DefaultStyle = "mapbox://styles/mapbox/dark-v11"

	// DefaultCenterLon and DefaultCenterLat frame western Canada, where the sample data lives.
	DefaultCenterLon = -118.543
	DefaultCenterLat = 54.3492

	DefaultZoom  = 3.0
	DefaultPitch = 60.0
)

// DefaultBackground approximates the dark style's background color as linear RGBA.
var DefaultBackground = [4]float64{0.035, 0.035, 0.045, 1.0}

// layerEntry is one registered custom layer and its visibility layout property.
type layerEntry struct {
	layer   CustomLayer
	visible bool
}

// mapImpl is the implementation of the Map interface.
type mapImpl struct {
	mu sync.Mutex

	ctx        renderer.Context
	controller camera.MapController
	projector  projection.Projector

	style       string
	accessToken string
	background  [4]float64

	layers   []*layerEntry
	repaint  bool
	released bool

	log *slog.Logger
}

// Map is a minimal map host: it owns the graphics context and the map camera, keeps an ordered
// registry of custom layers, and renders them on demand. Base map tiles are not drawn; frames
// clear to the style background and then draw custom layers bottom to top.
type Map interface {
	Host

	// Controller returns the map camera.
	//
	// Returns:
	//   - camera.MapController: the camera controller
	Controller() camera.MapController

	// Style returns the configured style URL.
	//
	// Returns:
	//   - string: the style URL
	Style() string

	// AccessToken returns the injected map access token.
	//
	// Returns:
	//   - string: the token, possibly empty
	AccessToken() string

	// Layers returns the registered layer ids, bottom to top.
	//
	// Returns:
	//   - []string: the layer ids
	Layers() []string

	// NeedsRepaint reports whether a frame has been requested since the last Frame.
	//
	// Returns:
	//   - bool: true if a repaint is pending
	NeedsRepaint() bool

	// Frame renders one frame: it opens the render pass, calls OnFrame on every visible layer in
	// order with the camera's view-projection matrix, then submits and presents. The pending
	// repaint flag is cleared before layers draw, so a layer calling TriggerRepaint keeps the
	// map animating.
	//
	// Returns:
	//   - error: ErrHostReleased, or an error from the graphics context
	Frame() error

	// Resize resizes the graphics context and schedules a repaint.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error from the graphics context
	Resize(width, height int) error

	// Release detaches every layer from the top down and releases the graphics context.
	// Safe to call more than once.
	Release()
}

var _ Map = &mapImpl{}

// NewMap creates a map host over ctx. A nil ctx gives a host that keeps its registry and camera
// working but cannot render, which is what layers see when no GPU is available.
//
// Parameters:
//   - ctx: the graphics context the map owns from now on
//   - options: variadic list of MapBuilderOption functions
//
// Returns:
//   - Map: the new map host
func NewMap(ctx renderer.Context, options ...MapBuilderOption) Map {
	m := &mapImpl{
		ctx:        ctx,
		projector:  projection.Mercator{},
		style:      DefaultStyle,
		background: DefaultBackground,
		repaint:    true,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.controller == nil {
		m.controller = camera.NewMapController(
			camera.WithCenter(DefaultCenterLon, DefaultCenterLat),
			camera.WithZoom(DefaultZoom),
			camera.WithPitch(DefaultPitch),
		)
	}
	if m.log == nil {
		m.log = defaultLogger()
	}
	if m.ctx != nil {
		m.ctx.SetClearColor(m.background)
	}
	return m
}

func (m *mapImpl) Project(longitude, latitude, altitudeMeters float64) projection.LocalPosition {
	return m.projector.Project(longitude, latitude, altitudeMeters)
}

func (m *mapImpl) GraphicsContext() renderer.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	return m.ctx
}

func (m *mapImpl) Controller() camera.MapController {
	return m.controller
}

func (m *mapImpl) Style() string {
	return m.style
}

func (m *mapImpl) AccessToken() string {
	return m.accessToken
}

func (m *mapImpl) AddLayer(layer CustomLayer, beforeID string) error {
	if layer == nil {
		return errors.New("host: nil layer")
	}
	id := layer.ID()

	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return ErrHostReleased
	}
	if m.indexLocked(id) >= 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrLayerExists, id)
	}
	entry := &layerEntry{layer: layer, visible: true}
	if at := m.indexLocked(beforeID); beforeID != "" && at >= 0 {
		m.layers = slices.Insert(m.layers, at, entry)
	} else {
		m.layers = append(m.layers, entry)
	}
	m.mu.Unlock()

	// OnAttach runs unlocked because layers call back into the host while attaching.
	if err := layer.OnAttach(m); err != nil {
		m.mu.Lock()
		if at := m.indexLocked(id); at >= 0 {
			m.layers = slices.Delete(m.layers, at, at+1)
		}
		m.mu.Unlock()
		return err
	}

	m.log.Debug("layer added", "layer", id, "before", beforeID)
	m.TriggerRepaint()
	return nil
}

func (m *mapImpl) RemoveLayer(id string) error {
	m.mu.Lock()
	at := m.indexLocked(id)
	if at < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	entry := m.layers[at]
	m.layers = slices.Delete(m.layers, at, at+1)
	m.repaint = true
	m.mu.Unlock()

	entry.layer.OnDetach()
	m.log.Debug("layer removed", "layer", id)
	return nil
}

func (m *mapImpl) HasLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked(id) >= 0
}

func (m *mapImpl) Layers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.layers))
	for i, e := range m.layers {
		ids[i] = e.layer.ID()
	}
	return ids
}

func (m *mapImpl) TriggerRepaint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repaint = true
}

func (m *mapImpl) NeedsRepaint() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repaint
}

func (m *mapImpl) SetLayoutVisibility(id string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := m.indexLocked(id)
	if at < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	if m.layers[at].visible != visible {
		m.layers[at].visible = visible
		m.repaint = true
	}
	return nil
}

func (m *mapImpl) LayoutVisibility(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := m.indexLocked(id)
	if at < 0 {
		return "", fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	return layoutValue(m.layers[at].visible), nil
}

func (m *mapImpl) Frame() error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return ErrHostReleased
	}
	ctx := m.ctx
	visible := make([]CustomLayer, 0, len(m.layers))
	for _, e := range m.layers {
		if e.visible {
			visible = append(visible, e.layer)
		}
	}
	m.repaint = false
	m.mu.Unlock()

	if ctx == nil {
		return renderer.ErrContextUnavailable
	}
	if err := ctx.BeginFrame(); err != nil {
		// no layer ran, so nothing asked for the next frame
		m.TriggerRepaint()
		return fmt.Errorf("host: begin frame: %w", err)
	}
	viewProj := m.controller.ViewProjection(ctx.Size())
	for _, layer := range visible {
		layer.OnFrame(viewProj)
	}
	if err := ctx.EndFrame(); err != nil {
		return fmt.Errorf("host: end frame: %w", err)
	}
	ctx.Present()
	return nil
}

func (m *mapImpl) Resize(width, height int) error {
	m.mu.Lock()
	ctx := m.ctx
	m.repaint = true
	m.mu.Unlock()
	if ctx == nil {
		return nil
	}
	return ctx.Resize(width, height)
}

func (m *mapImpl) Release() {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	m.released = true
	layers := m.layers
	m.layers = nil
	ctx := m.ctx
	m.ctx = nil
	m.mu.Unlock()

	for i := len(layers) - 1; i >= 0; i-- {
		layers[i].layer.OnDetach()
	}
	if ctx != nil {
		ctx.Release()
	}
}

func (m *mapImpl) indexLocked(id string) int {
	return slices.IndexFunc(m.layers, func(e *layerEntry) bool {
		return e.layer.ID() == id
	})
}
