package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"gopkg.in/yaml.v3"
)

// MaxPoseBuffers mirrors the pose buffer pool's per-collection slot ceiling.
const MaxPoseBuffers = 255

// Config represents the animation runtime configuration
type Config struct {
	// Log level: debug, info, warn or error
	LogLevel string `yaml:"log_level"`

	// Address the Prometheus metrics endpoint listens on, empty disables it
	MetricsAddr string `yaml:"metrics_addr"`

	// Tracing configuration
	Tracing TracingConfig `yaml:"tracing"`

	// Pose buffer pool configuration, applied to every character's pool
	PosePool PosePoolConfig `yaml:"pose_pool"`

	// Animation world configuration
	World WorldConfig `yaml:"world"`

	// Skeleton shared by the simulated characters
	Skeleton SkeletonConfig `yaml:"skeleton"`
}

// TracingConfig represents tracing configuration
type TracingConfig struct {
	// Jaeger collector endpoint, empty disables tracing
	JaegerEndpoint string `yaml:"jaeger_endpoint"`

	// Service name reported with every span
	ServiceName string `yaml:"service_name"`
}

// PosePoolConfig represents pose buffer pool configuration
type PosePoolConfig struct {
	// Number of transient, cached and debug buffers allocated up front
	InitialBuffers int `yaml:"initial_buffers"`

	// Number of buffers added to a collection when it runs out of free slots
	GrowAmount int `yaml:"grow_amount"`

	// Record every task result into debug buffers for inspection
	DebugRecording bool `yaml:"debug_recording"`
}

// WorldConfig represents animation world configuration
type WorldConfig struct {
	// Number of workers evaluating characters in parallel
	Workers int `yaml:"workers"`

	// Number of simulated characters
	Characters int `yaml:"characters"`

	// Update rate in frames per second
	TickRate float64 `yaml:"tick_rate"`

	// Number of frames to simulate, 0 runs until interrupted
	Frames int `yaml:"frames"`

	// Enable the frame profiler
	Profiling bool `yaml:"profiling"`
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML data, applying defaults and validation
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set default values
	setDefaults(&cfg)

	// Validate configuration
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is provided
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	return validateConfig(cfg)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if err := cfg.PosePool.Validate(); err != nil {
		return err
	}

	if cfg.World.Workers <= 0 {
		return fmt.Errorf("world.workers must be greater than 0")
	}
	if cfg.World.Characters <= 0 {
		return fmt.Errorf("world.characters must be greater than 0")
	}
	if cfg.World.TickRate <= 0 {
		return fmt.Errorf("world.tick_rate must be greater than 0")
	}
	if cfg.World.Frames < 0 {
		return fmt.Errorf("world.frames must not be negative")
	}

	if _, err := cfg.Skeleton.Build(); err != nil {
		return fmt.Errorf("skeleton: %w", err)
	}

	return nil
}

// Validate checks the pool sizes against the slot ceiling
func (c PosePoolConfig) Validate() error {
	if c.InitialBuffers < 0 || c.InitialBuffers > MaxPoseBuffers {
		return fmt.Errorf("pose_pool.initial_buffers must be between 0 and %d", MaxPoseBuffers)
	}
	if c.GrowAmount <= 0 || c.GrowAmount > MaxPoseBuffers {
		return fmt.Errorf("pose_pool.grow_amount must be between 1 and %d", MaxPoseBuffers)
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	cfg.LogLevel = common.Coalesce(cfg.LogLevel, "info")
	cfg.Tracing.ServiceName = common.Coalesce(cfg.Tracing.ServiceName, "oxy-anim")

	cfg.PosePool.InitialBuffers = common.Coalesce(cfg.PosePool.InitialBuffers, 32)
	cfg.PosePool.GrowAmount = common.Coalesce(cfg.PosePool.GrowAmount, 8)

	cfg.World.Workers = common.Coalesce(cfg.World.Workers, max(runtime.NumCPU()-1, 1))
	cfg.World.Characters = common.Coalesce(cfg.World.Characters, 16)
	cfg.World.TickRate = common.Coalesce(cfg.World.TickRate, 60)

	if len(cfg.Skeleton.Bones) == 0 {
		cfg.Skeleton = DefaultSkeleton()
	}
}
