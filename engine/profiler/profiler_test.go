package profiler

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProfiler_Tick(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	clock := time.Unix(0, 0)
	p := NewProfiler(
		WithInterval(time.Second),
		WithLogger(zap.New(core)),
		withClock(func() time.Time { return clock }),
	)

	for i := 0; i < 9; i++ {
		clock = clock.Add(100 * time.Millisecond)
		if p.Tick(2 * time.Millisecond) {
			t.Fatalf("tick %d: reported before the interval elapsed", i)
		}
	}

	clock = clock.Add(100 * time.Millisecond)
	if !p.Tick(6 * time.Millisecond) {
		t.Fatalf("expected a report once the interval elapsed")
	}

	s := p.Last()
	if s.FPS != 10 {
		t.Errorf("expected 10 fps, got %v", s.FPS)
	}
	if s.AvgFrame != 2400*time.Microsecond || s.MaxFrame != 6*time.Millisecond {
		t.Errorf("unexpected frame times avg %v max %v", s.AvgFrame, s.MaxFrame)
	}
	if logs.FilterMessage("frame stats").Len() != 1 {
		t.Errorf("expected one frame stats entry, got %d", logs.Len())
	}

	clock = clock.Add(10 * time.Millisecond)
	if p.Tick(time.Millisecond) {
		t.Errorf("counters should restart after a report")
	}
}
