package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/inspector"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/skinning"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/world"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/tracing"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	var configPath string
	var inspect bool
	var gpu bool
	flag.StringVar(&configPath, "config", "", "Configuration file path, empty uses the defaults")
	flag.BoolVar(&inspect, "inspect", false, "Open the interactive pose inspector")
	flag.BoolVar(&gpu, "gpu", false, "Upload skinning palettes to a headless GPU device")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	if inspect {
		// the inspector owns the terminal and shows per-task poses
		cfg.LogLevel = "error"
		cfg.PosePool.DebugRecording = true
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := tracing.Init(cfg.Tracing.ServiceName, version, cfg.Tracing.JaegerEndpoint); err != nil {
		logger.L.Warn("Failed to initialize tracing", zap.Error(err))
	} else if cfg.Tracing.JaegerEndpoint != "" {
		logger.L.Info("Tracing initialized", zap.String("endpoint", cfg.Tracing.JaegerEndpoint))
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr)

	skel, err := cfg.Skeleton.Build()
	if err != nil {
		logger.L.Fatal("Failed to build skeleton", zap.Error(err))
	}

	options := []world.WorldBuilderOption{
		world.WithWorkers(cfg.World.Workers),
		world.WithPoolConfig(cfg.PosePool),
	}
	if cfg.World.Profiling {
		options = append(options, world.WithProfiler(profiler.NewProfiler()))
	}
	if gpu {
		dev, err := skinning.NewHeadlessDevice(false)
		if err != nil {
			logger.L.Fatal("Failed to create GPU device", zap.Error(err))
		}
		defer dev.Release()
		options = append(options, world.WithDevice(dev.Device()))
		logger.L.Info("GPU palette upload enabled")
	}
	w := world.NewWorld(options...)
	defer w.Shutdown()

	clips := newDemoClips(skel)
	for i := range cfg.World.Characters {
		g, err := newDemoGraph(clips, i)
		if err != nil {
			logger.L.Fatal("Failed to build animation graph", zap.Error(err))
		}
		if _, err := w.AddCharacter(fmt.Sprintf("character-%02d", i), skel, g); err != nil {
			logger.L.Fatal("Failed to add character", zap.Error(err))
		}
	}

	interval := time.Duration(float64(time.Second) / cfg.World.TickRate)
	logger.L.Info("Animation world started",
		zap.String("version", version),
		zap.Int("characters", cfg.World.Characters),
		zap.Int("bones", skel.BoneCount()),
		zap.Int("workers", cfg.World.Workers),
		zap.Duration("interval", interval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if inspect {
		p := tea.NewProgram(inspector.New(w, interval), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(os.Stderr, "Error running inspector: %v\n", err)
		}
	} else if err := run(ctx, w, cfg.World.Frames, interval); err != nil {
		logger.L.Error("Animation world stopped", zap.Error(err))
	}

	logger.L.Info("Shutting down", zap.Uint64("frames", w.FrameCount()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.L.Warn("Error during metrics server shutdown", zap.Error(err))
		}
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("Error during tracing shutdown", zap.Error(err))
	}
}

// run steps the world on a fixed tick until the frame limit is reached or ctx is cancelled.
// A frame limit of 0 runs until cancellation.
func run(ctx context.Context, w world.World, frames int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deltaTime := float32(interval.Seconds())
	for frames == 0 || w.FrameCount() < uint64(frames) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := w.Update(ctx, deltaTime); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}

// startMetricsServer serves Prometheus metrics on addr. Returns nil when addr is empty.
func startMetricsServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.L.Info("Metrics server started", zap.String("addr", addr))
	return srv
}
