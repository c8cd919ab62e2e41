package graph

import (
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

func testSkeleton(t *testing.T) *model.Skeleton {
	t.Helper()
	s, err := model.NewSkeleton([]model.Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform},
		{Name: "arm", ParentIndex: 0, LocalTransform: model.Transform{Translation: [3]float32{1, 0, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	return s
}

// slideClip moves the arm from x 0 to x 4 over 4 seconds.
func slideClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "slide",
		Duration: 4,
		Channels: []model.AnimationChannel{{
			BoneIndex: 1,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 4, Value: [3]float32{4, 0, 0}},
			},
		}},
	}
}

func armX(ts task.TaskSystem) float32 {
	return ts.Pose().Transform(1).Translation[0]
}

func nearly(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestNewGraph_Validation(t *testing.T) {
	shared := NewClipNode(slideClip(), true)
	blend := &BlendNode{Source: &PoseNode{}, Target: &PoseNode{}}
	cyclic := &BlendNode{Source: &PoseNode{}}
	cyclic.Target = cyclic

	tests := []struct {
		Name string
		Root Node
		Want string
	}{
		{"nil root", nil, "root node is required"},
		{"shared node", &BlendNode{Source: shared, Target: shared}, "more than one parent"},
		{"cycle", cyclic, "cycle"},
		{"nil child", &CachedPoseNode{}, "nil child"},
	}
	for _, c := range tests {
		_, err := NewGraph(c.Root)
		if err == nil || !strings.Contains(err.Error(), c.Want) {
			t.Errorf("%s: expected error containing %q, got %v", c.Name, c.Want, err)
		}
	}

	if _, err := NewGraph(blend); err != nil {
		t.Errorf("distinct pose nodes should validate: %v", err)
	}
}

func TestGraph_ClipAdvancesEveryFrame(t *testing.T) {
	ts := task.NewTaskSystem(testSkeleton(t))
	clip := NewClipNode(slideClip(), true)
	g, err := NewGraph(clip)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	g.Evaluate(ts, 1)
	if !nearly(armX(ts), 1) {
		t.Errorf("frame 1: expected arm x 1, got %v", armX(ts))
	}
	g.Evaluate(ts, 1)
	if !nearly(armX(ts), 2) || !nearly(clip.Time(), 2) {
		t.Errorf("frame 2: expected arm x 2 at time 2, got %v at %v", armX(ts), clip.Time())
	}

	clip.SetTime(3.5)
	g.Evaluate(ts, 1)
	if !nearly(clip.Time(), 0.5) {
		t.Errorf("expected looping time 0.5, got %v", clip.Time())
	}
}

func TestGraph_Blend(t *testing.T) {
	ts := task.NewTaskSystem(testSkeleton(t))
	g, err := NewGraph(&BlendNode{Source: &PoseNode{}, Target: &PoseNode{Zero: true}, Weight: 0.25})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	g.Evaluate(ts, 1.0/60)
	if !nearly(armX(ts), 0.75) {
		t.Errorf("expected arm x 0.75, got %v", armX(ts))
	}
	if ts.TaskCount() != 3 {
		t.Errorf("expected 3 tasks, got %d", ts.TaskCount())
	}
}

func TestGraph_CachedPoseFeedback(t *testing.T) {
	ts := task.NewTaskSystem(testSkeleton(t))
	cache := &CachedPoseNode{Input: NewClipNode(slideClip(), false)}
	// output the previous frame's clip pose
	root := &BlendNode{Source: &CachedPoseReadNode{Source: cache}, Target: cache, Weight: 0}
	g, err := NewGraph(root)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	g.Evaluate(ts, 1)
	if !cache.ID().IsValid() {
		t.Fatalf("expected the cached pose to be created on first evaluation")
	}
	if ts.Pose().State() != pose.StatePose || !nearly(armX(ts), 1) {
		t.Errorf("frame 1: expected the reference pose x 1, got %v", armX(ts))
	}

	g.Evaluate(ts, 1)
	if !nearly(armX(ts), 1) {
		t.Errorf("frame 2: expected the frame 1 clip pose x 1, got %v", armX(ts))
	}
	g.Evaluate(ts, 1)
	if !nearly(armX(ts), 2) {
		t.Errorf("frame 3: expected the frame 2 clip pose x 2, got %v", armX(ts))
	}

	id := cache.ID()
	g.Shutdown(ts)
	if cache.ID().IsValid() {
		t.Errorf("shutdown should clear the cached pose id")
	}
	if got := ts.Pool().Stats().PendingDestroys; got != 1 {
		t.Errorf("expected the cached pose queued for destruction, got %d", got)
	}
	ts.Reset()
	defer func() {
		if recover() == nil {
			t.Errorf("destroyed cached pose should no longer resolve")
		}
	}()
	ts.Pool().GetCachedPoseBuffer(id)
}
