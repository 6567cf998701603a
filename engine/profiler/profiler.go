package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
)

// Profiler samples frame rate and memory statistics and reports them once per interval,
// both to the log and to the frames-per-second gauge.
type Profiler struct {
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time

	frameCount     int
	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	lastFPS float64
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported. Non-positive values keep the default of one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger statistics are written to.
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProfiler creates a Profiler reporting every second.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - *Profiler: the profiler, with its interval starting now
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		log:      logger.L().With("component", "profiler"),
		interval: time.Second,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick records one rendered frame. When the interval has elapsed it reports FPS, heap usage,
// allocation rate and GC pauses, then starts a new interval.
//
// Returns:
//   - bool: true if statistics were reported on this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.interval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	p.lastFPS = fps
	metrics.FramesPerSecond.Set(fps)

	runtime.ReadMemStats(&p.memStats)
	allocRate := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / mib / elapsed.Seconds()
	lastPause, maxPause := p.gcPauses()

	p.log.Info("frame stats",
		"fps", round2(fps),
		"heap_mb", round2(float64(p.memStats.Alloc)/mib),
		"alloc_mb_per_s", round2(allocRate),
		"gc", p.memStats.NumGC,
		"gc_last_pause", lastPause,
		"gc_max_pause", maxPause,
		"sys_mb", round2(float64(p.memStats.Sys)/mib),
	)

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// FPS returns the frame rate measured over the last completed interval.
func (p *Profiler) FPS() float64 {
	return p.lastFPS
}

// gcPauses returns the latest GC pause and the longest pause since the previous report.
// PauseNs is a ring of the last 256 pauses.
func (p *Profiler) gcPauses() (last, longest time.Duration) {
	count := p.memStats.NumGC
	if count == 0 {
		return 0, 0
	}
	last = time.Duration(p.memStats.PauseNs[(count-1)%256])

	start := p.lastGCCount
	if count-start > 256 {
		start = count - 256
	}
	for i := start; i < count; i++ {
		longest = max(longest, time.Duration(p.memStats.PauseNs[i%256]))
	}
	return last, longest
}

const mib = 1024 * 1024

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
