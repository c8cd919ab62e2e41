package task

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"go.uber.org/zap"
)

// PoseBufferPoolBuilderOption is a functional option for configuring a PoseBufferPool during construction.
type PoseBufferPoolBuilderOption func(*poseBufferPool)

// WithInitialBufferCount is an option builder that sets how many buffers each collection starts with.
// Negative values are ignored.
//
// Parameters:
//   - count: the initial buffer count, at most MaxPoseBuffers
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the initial buffer count to a pool
func WithInitialBufferCount(count int) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		if count >= 0 {
			p.initialBuffers = count
		}
	}
}

// WithGrowAmount is an option builder that sets how many buffers a full collection grows by.
// Values <= 0 keep DefaultGrowAmount.
//
// Parameters:
//   - amount: the number of buffers added per growth
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the grow amount to a pool
func WithGrowAmount(amount int) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		if amount > 0 {
			p.growAmount = amount
		}
	}
}

// WithDebugRecording is an option builder that enables or disables debug pose recording.
//
// Parameters:
//   - enabled: whether RecordPose copies poses
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the recording flag to a pool
func WithDebugRecording(enabled bool) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		p.debug.setEnabled(enabled)
	}
}

// WithLogger is an option builder that sets the logger used for growth and contract violation reports.
//
// Parameters:
//   - l: the logger, nil keeps the global logger
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the logger to a pool
func WithLogger(l *zap.Logger) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithLabel is an option builder that tags every log entry of the pool with a name, usually its owner's.
//
// Parameters:
//   - label: the pool label
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the label to a pool
func WithLabel(label string) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		p.label = label
	}
}

// WithConfig is an option builder that applies a pose pool configuration section.
// Zero sizes keep the defaults.
//
// Parameters:
//   - cfg: the pose pool configuration
//
// Returns:
//   - PoseBufferPoolBuilderOption: a function that applies the configuration to a pool
func WithConfig(cfg config.PosePoolConfig) PoseBufferPoolBuilderOption {
	return func(p *poseBufferPool) {
		if cfg.InitialBuffers > 0 {
			p.initialBuffers = cfg.InitialBuffers
		}
		WithGrowAmount(cfg.GrowAmount)(p)
		WithDebugRecording(cfg.DebugRecording)(p)
	}
}
