package world

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// WorldBuilderOption is a functional option for configuring a World during construction.
type WorldBuilderOption func(*world)

// WithWorkers is an option builder that sets how many workers evaluate characters in parallel.
//
// Parameters:
//   - workers: the worker count, values <= 0 keep the default of NumCPU - 1
//
// Returns:
//   - WorldBuilderOption: a function that applies the worker count to a world
func WithWorkers(workers int) WorldBuilderOption {
	return func(w *world) {
		if workers > 0 {
			w.workers = workers
		}
	}
}

// WithPoolConfig is an option builder that sets the pose buffer pool configuration of new characters.
//
// Parameters:
//   - cfg: the pose pool configuration
//
// Returns:
//   - WorldBuilderOption: a function that applies the pool configuration to a world
func WithPoolConfig(cfg config.PosePoolConfig) WorldBuilderOption {
	return func(w *world) {
		w.poolConfig = cfg
	}
}

// WithLogger is an option builder that sets the world's logger.
//
// Parameters:
//   - l: the logger, nil keeps the global logger
//
// Returns:
//   - WorldBuilderOption: a function that applies the logger to a world
func WithLogger(l *zap.Logger) WorldBuilderOption {
	return func(w *world) {
		if l != nil {
			w.log = l
		}
	}
}

// WithProfiler is an option builder that reports every update's duration to a profiler.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - WorldBuilderOption: a function that applies the profiler to a world
func WithProfiler(p *profiler.Profiler) WorldBuilderOption {
	return func(w *world) {
		w.profiler = p
	}
}

// WithDevice is an option builder that gives every character a GPU palette buffer on the device,
// written after each update.
//
// Parameters:
//   - device: the GPU device, nil keeps palettes on the CPU
//
// Returns:
//   - WorldBuilderOption: a function that applies the device to a world
func WithDevice(device *wgpu.Device) WorldBuilderOption {
	return func(w *world) {
		w.device = device
	}
}
