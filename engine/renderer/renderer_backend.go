package renderer

import "errors"

// ContextBackendType identifies the GPU backend implementation used by a Context.
type ContextBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based graphics context.
	BackendTypeWGPU ContextBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May tear.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

var (
	// ErrContextUnavailable is returned when a GPU instance, adapter, device or surface cannot be acquired.
	ErrContextUnavailable = errors.New("renderer: graphics context unavailable")

	// ErrContextReleased is returned by operations issued against a Context after Release.
	ErrContextReleased = errors.New("renderer: graphics context released")

	// ErrNoActiveFrame is returned when a draw is issued outside BeginFrame/EndFrame.
	ErrNoActiveFrame = errors.New("renderer: no active frame")

	// ErrFrameInProgress is returned by BeginFrame when the previous frame has not been presented.
	ErrFrameInProgress = errors.New("renderer: previous frame not yet presented")

	// ErrPipelineNotFound is returned by DrawCall when the pipeline key was never registered.
	ErrPipelineNotFound = errors.New("renderer: pipeline not registered")
)
