package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestProfiler(buf *bytes.Buffer) (*Profiler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	p.now = clock.now
	p.lastTime = clock.t
	return p, clock
}

func TestProfiler_ReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	p, clock := newTestProfiler(&buf)

	for range 29 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Empty(t, buf.String())

	clock.t = clock.t.Add(710 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 30.0, p.FPS(), 0.001)
	assert.InDelta(t, 30.0, testutil.ToFloat64(metrics.FramesPerSecond), 0.001)
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "fps=30")

	clock.t = clock.t.Add(10 * time.Millisecond)
	assert.False(t, p.Tick(), "a new interval starts after reporting")
}

func TestWithInterval(t *testing.T) {
	p := NewProfiler(WithInterval(250 * time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, p.interval)

	p = NewProfiler(WithInterval(-1))
	assert.Equal(t, time.Second, p.interval)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 2.0, round2(1.999))
}
