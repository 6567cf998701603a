package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/config"
	"github.com/Carmen-Shannon/oxy-quake/engine"
	"github.com/Carmen-Shannon/oxy-quake/engine/host"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

const redisKeyPrefix = "quake:src:"

func main() {
	if err := run(); err != nil {
		slog.Error("quakes exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info("starting",
		"source", cfg.DataSource,
		"style", cfg.MapStyle,
		"token", cfg.MaskedToken(),
		"vsync", cfg.VSync,
	)

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	var srcCache loader.Cache
	if cache := openCache(cfg, log); cache != nil {
		defer cache.Close()
		srcCache = cache
	}

	win, err := window.NewWindow(
		window.WithTitle(window.DefaultTitle),
		window.WithSize(cfg.WindowWidth, cfg.WindowHeight),
		window.WithLogger(log.With("component", "window")),
	)
	if err != nil {
		return err
	}

	presentMode := renderer.PresentModeVSync
	if !cfg.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	gfx, err := renderer.NewContext(renderer.BackendTypeWGPU, win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(host.DefaultBackground),
		renderer.WithContextLogger(log.With("component", "renderer")),
	)
	if err != nil {
		_ = win.Close()
		return fmt.Errorf("graphics: %w", err)
	}

	m := host.NewMap(gfx,
		host.WithStyle(cfg.MapStyle),
		host.WithAccessToken(cfg.AccessToken),
		host.WithLogger(log.With("component", "host")),
	)

	// one loader serves every reload; scenes given a loader leave it open on dispose
	ld := loader.NewLoader(loader.BackendTypeCSV, loader.WithLogger(log.With("component", "loader")))
	defer ld.Close()

	newScene := func() (scene.Scene, error) {
		return scene.NewScene(newSource(cfg, srcCache, log),
			scene.WithLoader(ld),
			scene.WithLogger(log.With("component", "scene")),
		), nil
	}

	eng, err := engine.NewEngine(m, newScene,
		engine.WithWindow(win),
		engine.WithProfiling(cfg.Profile),
		engine.WithFitToData(true),
		engine.WithLogger(log.With("component", "engine")),
	)
	if err != nil {
		m.Release()
		_ = win.Close()
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		eng.Quit()
	}()

	return eng.Run()
}

// newSource picks an HTTP or file source for the configured data location.
func newSource(cfg config.Config, cache loader.Cache, log *slog.Logger) loader.Source {
	if !cfg.IsRemoteSource() {
		return loader.NewFileSource(cfg.DataSource)
	}
	opts := []loader.HTTPSourceOption{
		loader.WithAccessToken(cfg.AccessToken),
		loader.WithSourceLogger(log.With("component", "source")),
	}
	if cache != nil {
		opts = append(opts, loader.WithCache(cache, cfg.RedisTTL))
	}
	return loader.NewHTTPSource(cfg.DataSource, opts...)
}

// openCache connects the source cache when configured. An unreachable Redis disables caching
// rather than failing startup.
func openCache(cfg config.Config, log *slog.Logger) *loader.RedisCache {
	if cfg.RedisAddr == "" || !cfg.IsRemoteSource() {
		return nil
	}
	cache := loader.OpenRedisCache(cfg.RedisAddr, cfg.RedisPassword, redisKeyPrefix)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, source cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = cache.Close()
		return nil
	}
	log.Info("source cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
	return cache
}

func serveMetrics(addr string, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	return srv
}
