package tracing

import (
	"context"
	"testing"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	if err := Init("oxy-anim", "test", ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Tracer != nil {
		t.Fatalf("expected tracing to stay disabled")
	}

	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, "frame")
	if spanCtx != ctx {
		t.Errorf("expected the original context when tracing is disabled")
	}
	if span.SpanContext().IsValid() {
		t.Errorf("expected a non-recording span")
	}
	span.End()

	if err := Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
