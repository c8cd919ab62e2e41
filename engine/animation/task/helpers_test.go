package task

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

func testSkeleton(t *testing.T) *model.Skeleton {
	t.Helper()
	s, err := model.NewSkeleton([]model.Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform},
		{Name: "spine", ParentIndex: 0, LocalTransform: model.Transform{Translation: [3]float32{0, 1, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}},
		{Name: "head", ParentIndex: 1, LocalTransform: model.Transform{Translation: [3]float32{0, 0.5, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	return s
}

// expectViolation runs fn and fails the test unless it panics with a contract violation for op.
func expectViolation(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("expected a %s contract violation, got none", op)
			return
		}
		err, ok := r.(error)
		if !ok {
			t.Errorf("expected a contract violation, got %v", r)
			return
		}
		var cv *ContractViolation
		if !errors.As(err, &cv) {
			t.Errorf("expected a *ContractViolation, got %T: %v", r, r)
			return
		}
		if cv.Op != op {
			t.Errorf("expected op %q, got %q (%s)", op, cv.Op, cv.Detail)
		}
	}()
	fn()
}

// expectPanic runs fn and fails the test unless it panics.
func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic", name)
		}
	}()
	fn()
}
