package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"go.uber.org/zap"
)

// Stats is one reporting interval's worth of frame and memory statistics.
type Stats struct {
	FPS float64

	// AvgFrame and MaxFrame are the average and worst world update durations reported through Tick.
	AvgFrame time.Duration
	MaxFrame time.Duration

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64

	GCCount   uint32
	LastPause time.Duration
	MaxPause  time.Duration
}

// Profiler tracks frame rate, update cost and memory statistics for performance monitoring.
// Stats are logged at a configurable interval.
type Profiler struct {
	log            *zap.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount int
	frameTotal time.Duration
	frameMax   time.Duration
	lastTime   time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options applied to the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	if p.log == nil {
		p.log = logger.Named("profiler")
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the time the frame's animation update took.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - frameTime: the duration of this frame's update
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(frameTime time.Duration) bool {
	p.frameCount++
	p.frameTotal += frameTime
	p.frameMax = max(p.frameMax, frameTime)

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		FPS:      float64(p.frameCount) / elapsed.Seconds(),
		AvgFrame: p.frameTotal / time.Duration(p.frameCount),
		MaxFrame: p.frameMax,
		HeapMB:   float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:    float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:  p.memStats.NumGC,
	}

	// TotalAlloc only grows, so its delta is the allocation churn of the interval
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if s.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		s.LastPause = time.Duration(p.memStats.PauseNs[(s.GCCount-1)%256])

		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPause = max(s.MaxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.log.Info("frame stats",
		zap.Float64("fps", s.FPS),
		zap.Duration("avg_frame", s.AvgFrame),
		zap.Duration("max_frame", s.MaxFrame),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb_s", s.AllocRateMB),
		zap.Uint32("gc_count", s.GCCount),
		zap.Duration("gc_last_pause", s.LastPause),
		zap.Duration("gc_max_pause", s.MaxPause),
		zap.Float64("sys_mb", s.SysMB),
	)

	p.last = s
	p.frameCount = 0
	p.frameTotal = 0
	p.frameMax = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the statistics of the most recently completed interval.
func (p *Profiler) Last() Stats {
	return p.last
}
