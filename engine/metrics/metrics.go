package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pose buffer pool metrics
	PoseBufferGrowths = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oxy_anim_pose_buffer_growths_total",
		Help: "Total number of pose buffer pool growth events",
	}, []string{"collection"})

	PoseBuffersPeak = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oxy_anim_pose_buffers_peak",
		Help:    "Peak number of transient pose buffers in use during a frame",
		Buckets: prometheus.LinearBuckets(0, 8, 16),
	})

	CachedPosesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy_anim_cached_poses_live",
		Help: "Number of cached pose buffers currently allocated",
	})

	PosesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy_anim_poses_recorded_total",
		Help: "Total number of poses copied into debug recording buffers",
	})

	ContractViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oxy_anim_contract_violations_total",
		Help: "Total number of pose pool and task system contract violations",
	}, []string{"op"})

	// Task system metrics
	TasksExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy_anim_tasks_executed_total",
		Help: "Total number of animation tasks executed",
	})

	// World metrics
	WorldCharacters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy_anim_world_characters",
		Help: "Number of characters registered in animation worlds",
	})

	WorldFrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oxy_anim_world_frame_duration_seconds",
		Help:    "Animation world update duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
	})

	// Skinning metrics
	SkinningBytesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy_anim_skinning_bytes_uploaded_total",
		Help: "Total number of skinning palette bytes written to GPU buffers",
	})
)

// IncContractViolation increments the contract violation counter
func IncContractViolation(op string) {
	ContractViolations.WithLabelValues(op).Inc()
}

// IncPoseBufferGrowth increments the growth counter for a pool collection
func IncPoseBufferGrowth(collection string) {
	PoseBufferGrowths.WithLabelValues(collection).Inc()
}
