package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/host"
	"github.com/Carmen-Shannon/oxy-quake/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// SceneFactory builds a fresh, unattached earthquake scene. It is called once at startup
// and again on every reload.
type SceneFactory func() (scene.Scene, error)

// Engine drives the viewer: it renders the map whenever a repaint is pending, maps window
// input onto the camera and the scene controls, and owns shutdown of the scene, map and window.
//
// Key bindings:
//
//	[ / ]          lower / raise the magnitude threshold by one step
//	V              toggle the earthquake layer
//	R              reload the data source
//	H              reset the view
//	P              toggle the profiler
//	arrows         pan
//	- / =          zoom out / in
//	Esc            quit
type Engine interface {
	// Window returns the window the map is presented into, or nil when headless.
	Window() window.Window

	// Map returns the map host.
	Map() host.Map

	// Scene returns the currently attached earthquake scene, or nil after a failed reload.
	Scene() scene.Scene

	// StepThreshold moves the magnitude threshold by steps increments of scene.ThresholdStep,
	// clamped to the allowed range.
	//
	// Parameters:
	//   - steps: the number of steps, negative to lower the threshold
	//
	// Returns:
	//   - float64: the threshold now applied
	//   - error: an error from the scene, or nil
	StepThreshold(steps int) (float64, error)

	// ToggleLayer flips the earthquake layer visibility.
	//
	// Returns:
	//   - bool: the visibility now applied
	//   - error: an error from the scene, or nil
	ToggleLayer() (bool, error)

	// Reload disposes the current scene and attaches a new one from the factory, carrying the
	// threshold and visibility over.
	//
	// Returns:
	//   - error: an error from the factory or from Attach; the engine is then left without a scene
	Reload() error

	// EnableProfiler turns on periodic frame statistics.
	EnableProfiler()

	// DisableProfiler turns off periodic frame statistics.
	DisableProfiler()

	// RenderIfNeeded renders one map frame when a repaint is pending.
	//
	// Returns:
	//   - bool: true if a frame was attempted
	RenderIfNeeded() bool

	// Run runs the window event loop on the calling goroutine until the window closes, then
	// shuts everything down. It must be called from the goroutine that created the window.
	//
	// Returns:
	//   - error: ErrNoWindow when headless, or nil
	Run() error

	// Quit asks Run to return. Safe to call from any goroutine and more than once.
	Quit()

	// Close disposes the scene and releases the map. Safe to call more than once.
	Close()
}

// engine implements the Engine interface.
type engine struct {
	mu sync.Mutex

	window   window.Window
	m        host.Map
	newScene SceneFactory
	current  scene.Scene

	// threshold and visible survive reloads.
	threshold float64
	visible   bool

	shift bool

	// fitToData recenters the camera on each successful load.
	fitToData bool

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	log          *slog.Logger
	lastFrameErr string

	baseTitle  string
	titleDirty atomic.Bool

	// failed is the scene whose load failed, if any.
	failed scene.Scene

	// ctx is cancelled by Quit and bounds every load wait.
	ctx       context.Context
	cancel    context.CancelFunc
	quitOnce  sync.Once
	closeOnce sync.Once
	loads     sync.WaitGroup
}

var _ Engine = &engine{}

// NewEngine creates the first scene, attaches it to m and wires the window callbacks.
//
// Parameters:
//   - m: the map host the scene is attached to
//   - newScene: builds each scene
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine with its scene attached
//   - error: an error from the factory or from Attach
func NewEngine(m host.Map, newScene SceneFactory, options ...EngineBuilderOption) (Engine, error) {
	if m == nil || newScene == nil {
		return nil, fmt.Errorf("engine: map and scene factory are required")
	}
	e := &engine{
		m:         m,
		newScene:  newScene,
		visible:   true,
		threshold: scene.MinThreshold,
		log:       defaultLogger(),
		baseTitle: window.DefaultTitle,
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.log))
	}

	s, err := e.newScene()
	if err != nil {
		e.cancel()
		return nil, fmt.Errorf("engine: create scene: %w", err)
	}
	e.threshold = s.Threshold()
	e.visible = s.LayerVisible()
	if err := s.Attach(m); err != nil {
		e.cancel()
		_ = s.Dispose()
		return nil, fmt.Errorf("engine: attach scene: %w", err)
	}
	e.current = s
	e.watchLoad(s)

	if e.window != nil {
		e.bindWindow()
	}
	e.titleDirty.Store(true)
	return e, nil
}

func (e *engine) bindWindow() {
	w := e.window
	e.baseTitle = common.Coalesce(w.Title(), window.DefaultTitle)
	w.SetUpdateCallback(e.update)
	w.SetResizeCallback(e.handleResize)
	w.SetScrollCallback(e.handleScroll)
	w.SetKeyDownCallback(e.handleKeyDown)
	w.SetKeyUpCallback(e.handleKeyUp)
	w.SetDragCallback(e.handleDrag)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Map() host.Map {
	return e.m
}

func (e *engine) Scene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *engine) StepThreshold(steps int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := scene.ClampThreshold(e.threshold + float64(steps)*scene.ThresholdStep)
	if e.current != nil {
		if err := e.current.SetThreshold(t); err != nil {
			return e.threshold, err
		}
	}
	e.threshold = t
	e.titleDirty.Store(true)
	return t, nil
}

func (e *engine) ToggleLayer() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	visible := !e.visible
	if e.current != nil {
		if err := e.current.SetLayerVisible(visible); err != nil {
			return e.visible, err
		}
	}
	e.visible = visible
	e.titleDirty.Store(true)
	return visible, nil
}

func (e *engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.titleDirty.Store(true)

	if old := e.current; old != nil {
		e.current = nil
		if err := old.Dispose(); err != nil {
			e.log.Warn("dispose scene before reload", "scene", old.HandleID(), "error", err)
		}
	}

	s, err := e.newScene()
	if err != nil {
		return fmt.Errorf("engine: create scene: %w", err)
	}
	if err := errors.Join(s.SetThreshold(e.threshold), s.SetLayerVisible(e.visible)); err != nil {
		_ = s.Dispose()
		return fmt.Errorf("engine: configure scene: %w", err)
	}
	if err := s.Attach(e.m); err != nil {
		_ = s.Dispose()
		return fmt.Errorf("engine: attach scene: %w", err)
	}
	e.current = s
	e.watchLoad(s)
	e.log.Info("scene reloaded", "scene", s.HandleID())
	return nil
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) RenderIfNeeded() bool {
	if !e.m.NeedsRepaint() {
		return false
	}
	if err := e.m.Frame(); err != nil {
		// the same failure repeats every frame, so only log when it changes
		if msg := err.Error(); msg != e.lastFrameErr {
			e.lastFrameErr = msg
			e.log.Warn("frame failed", "error", err)
		}
		return true
	}
	e.lastFrameErr = ""
	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}
	return true
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.window.ProcessMessages()
	e.Close()
	if err := e.window.Close(); err != nil {
		e.log.Debug("close window", "error", err)
	}
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.cancel()
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Close() {
	e.closeOnce.Do(func() {
		e.Quit()

		e.mu.Lock()
		s := e.current
		e.current = nil
		e.mu.Unlock()

		if s != nil {
			if err := s.Dispose(); err != nil {
				e.log.Warn("dispose scene", "scene", s.HandleID(), "error", err)
			}
		}
		e.loads.Wait()
		e.m.Release()
		e.log.Info("engine stopped")
	})
}

// update runs on the window goroutine once per event loop iteration.
func (e *engine) update() {
	e.RenderIfNeeded()
	if e.titleDirty.Swap(false) {
		e.window.SetTitle(e.statusLine())
	}
}

// watchLoad logs the outcome of a scene's data load without blocking the caller.
// A failed load leaves the map running without points.
func (e *engine) watchLoad(s scene.Scene) {
	e.loads.Add(1)
	go func() {
		defer e.loads.Done()
		defer e.titleDirty.Store(true)

		err := s.WaitForData(e.ctx)
		switch {
		case err == nil:
			e.log.Info("earthquakes loaded", "scene", s.HandleID(), "instances", s.InstanceCount())
			if e.fitToData {
				e.centerOn(s)
			}
		case errors.Is(err, scene.ErrDisposed), errors.Is(err, context.Canceled):
			e.log.Debug("load abandoned", "scene", s.HandleID(), "error", err)
		default:
			e.log.Error("earthquake data unavailable, showing the map without points", "scene", s.HandleID(), "error", err)
			e.mu.Lock()
			e.failed = s
			e.mu.Unlock()
		}
	}()
}

// centerOn moves the camera to the middle of the scene's data, keeping zoom and pitch.
func (e *engine) centerOn(s scene.Scene) {
	store := s.Store()
	if store.Count() == 0 {
		return
	}
	c := store.Bound().Center()
	e.m.Controller().SetCenter(c.Lon(), c.Lat())
	e.m.TriggerRepaint()
	e.log.Debug("camera centered on data", "lon", c.Lon(), "lat", c.Lat())
}

// statusLine renders the title bar text from the current scene state.
func (e *engine) statusLine() string {
	e.mu.Lock()
	s, threshold, visible := e.current, e.threshold, e.visible
	failed := s != nil && s == e.failed
	e.mu.Unlock()

	layer := "on"
	if !visible {
		layer = "off"
	}
	status := fmt.Sprintf("%s | M >= %.1f | layer %s", e.baseTitle, threshold, layer)
	if s == nil {
		return status + " | no data"
	}

	if failed {
		return status + " | load failed"
	}
	mask := s.MaskSnapshot()
	if mask == nil {
		return status + " | loading"
	}
	shown := 0
	for _, v := range mask {
		shown += int(v)
	}
	return fmt.Sprintf("%s | %d of %d shown", status, shown, len(mask))
}
