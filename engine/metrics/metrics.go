package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsLoadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quake_rows_loaded_total",
		Help: "Total number of point records accepted from data sources",
	})
	RowsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quake_rows_dropped_total",
		Help: "Total number of rows dropped because a required field could not be parsed",
	})
	LoadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quake_load_failures_total",
		Help: "Total number of failed loads by source kind",
	}, []string{"source"})
	LoadDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quake_load_duration_seconds",
		Help:    "Time spent fetching and parsing a data source",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	SourceCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quake_source_cache_hits_total",
		Help: "Total source cache hits",
	})
	SourceCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quake_source_cache_misses_total",
		Help: "Total source cache misses",
	})
	InstancesBuilt = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quake_instances",
		Help: "Number of point instances in the current scene",
	})
	VisibleInstances = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quake_visible_instances",
		Help: "Number of point instances passing the magnitude threshold",
	})
	FramesRenderedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quake_frames_rendered_total",
		Help: "Total number of frames the point layer was asked to draw",
	})
	FramesPerSecond = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quake_frames_per_second",
		Help: "Host frame rate sampled by the profiler",
	})
)

func init() {
	prometheus.MustRegister(RowsLoadedTotal)
	prometheus.MustRegister(RowsDroppedTotal)
	prometheus.MustRegister(LoadFailuresTotal)
	prometheus.MustRegister(LoadDurationSeconds)
	prometheus.MustRegister(SourceCacheHitsTotal)
	prometheus.MustRegister(SourceCacheMissesTotal)
	prometheus.MustRegister(InstancesBuilt)
	prometheus.MustRegister(VisibleInstances)
	prometheus.MustRegister(FramesRenderedTotal)
	prometheus.MustRegister(FramesPerSecond)
}

// Handler exposes the registered collectors for scraping on /metrics.
func Handler() http.Handler { return promhttp.Handler() }
