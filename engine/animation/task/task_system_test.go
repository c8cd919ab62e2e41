package task

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// traceTask appends its name to a log when executed. Without dependencies it produces the
// reference pose, otherwise it passes its first dependency through.
type traceTask struct {
	name  string
	deps  []TaskIndex
	stage TaskUpdateStage
	log   *[]string
}

func (t *traceTask) Name() string              { return t.name }
func (t *traceTask) Dependencies() []TaskIndex { return t.deps }
func (t *traceTask) Stage() TaskUpdateStage    { return t.stage }

func (t *traceTask) Execute(ctx *TaskContext) {
	*t.log = append(*t.log, t.name)
	if len(t.deps) == 0 {
		idx, buf := ctx.GetNewPoseBuffer()
		buf.Pose.Reset(pose.TypeReferencePose)
		ctx.MarkTaskComplete(idx)
		return
	}
	idx, _ := ctx.TransferDependencyPoseBuffer(0)
	ctx.MarkTaskComplete(idx)
}

// funcTask runs an arbitrary function as its body.
type funcTask struct {
	deps []TaskIndex
	fn   func(ctx *TaskContext)
}

func (t *funcTask) Name() string              { return "func" }
func (t *funcTask) Dependencies() []TaskIndex { return t.deps }
func (t *funcTask) Stage() TaskUpdateStage    { return StageAny }
func (t *funcTask) Execute(ctx *TaskContext)  { t.fn(ctx) }

func testClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "lean",
		Duration: 1,
		Channels: []model.AnimationChannel{{
			BoneIndex: 1,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 1, 0}},
				{Time: 1, Value: [3]float32{2, 1, 0}},
			},
		}},
	}
}

func runFrame(ts TaskSystem, dt float32) {
	ts.UpdatePrePhysics(dt)
	ts.UpdatePostPhysics(dt)
}

func TestTaskSystem_NoTasksOutputsReferencePose(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t))
	ts.Pose().SetTranslation(1, [3]float32{7, 7, 7})

	ts.Reset()
	runFrame(ts, 1.0/60)

	if ts.Pose().State() != pose.StateReferencePose {
		t.Errorf("expected the reference pose, got %s", ts.Pose().State())
	}
	if ts.Pose().Transform(1).Translation != [3]float32{0, 1, 0} {
		t.Errorf("expected bind pose translation, got %v", ts.Pose().Transform(1).Translation)
	}
}

func TestTaskSystem_SampleAndBlend(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t), WithPoolOptions(WithInitialBufferCount(2)))

	ts.Reset()
	ref := ts.RegisterTask(ReferencePoseTask{})
	sample := ts.RegisterTask(&SampleTask{Clip: testClip(), Time: 0.5})
	ts.RegisterTask(NewBlendTask(ref, sample, 0.5))
	runFrame(ts, 1.0/60)

	got := ts.Pose().Transform(1).Translation[0]
	if math.Abs(float64(got-0.5)) > 1e-5 {
		t.Errorf("expected blended spine x 0.5, got %v", got)
	}
	if ts.Pose().State() != pose.StatePose {
		t.Errorf("expected a set pose, got %s", ts.Pose().State())
	}
	if inUse := ts.Pool().Stats().TransientInUse; inUse != 0 {
		t.Errorf("expected every buffer returned after the frame, %d in use", inUse)
	}
}

func TestTaskSystem_PhysicsStages(t *testing.T) {
	var log []string
	ts := NewTaskSystem(testSkeleton(t))

	ts.Reset()
	ts.RegisterTask(&traceTask{name: "a", log: &log})
	b := ts.RegisterTask(&traceTask{name: "b", stage: StagePostPhysics, log: &log})
	ts.RegisterTask(&traceTask{name: "c", deps: []TaskIndex{b}, log: &log})
	ts.RegisterTask(&traceTask{name: "d", stage: StagePrePhysics, log: &log})

	if !ts.HasPhysicsDependency() {
		t.Fatalf("expected a physics dependency")
	}

	ts.UpdatePrePhysics(0.1)
	if len(log) != 2 || log[0] != "a" || log[1] != "d" {
		t.Fatalf("expected a and d before physics, got %v", log)
	}

	ts.UpdatePostPhysics(0.1)
	if len(log) != 4 || log[2] != "b" || log[3] != "c" {
		t.Fatalf("expected b then c after physics, got %v", log)
	}

	ts.Reset()
	if ts.TaskCount() != 0 || ts.HasPhysicsDependency() {
		t.Errorf("reset should clear registered tasks")
	}
	if inUse := ts.Pool().Stats().TransientInUse; inUse != 0 {
		t.Errorf("reset should reclaim buffers of tasks without dependents, %d in use", inUse)
	}
}

func TestTaskSystem_RegistrationContract(t *testing.T) {
	var log []string
	tests := []struct {
		Name  string
		Build func(ts TaskSystem)
	}{
		{"unregistered dependency", func(ts TaskSystem) {
			ts.RegisterTask(&traceTask{name: "x", deps: []TaskIndex{3}, log: &log})
		}},
		{"second dependent", func(ts TaskSystem) {
			a := ts.RegisterTask(&traceTask{name: "a", log: &log})
			ts.RegisterTask(&traceTask{name: "b", deps: []TaskIndex{a}, log: &log})
			ts.RegisterTask(&traceTask{name: "c", deps: []TaskIndex{a}, log: &log})
		}},
		{"pre-physics after post-physics", func(ts TaskSystem) {
			a := ts.RegisterTask(&traceTask{name: "a", stage: StagePostPhysics, log: &log})
			ts.RegisterTask(&traceTask{name: "b", deps: []TaskIndex{a}, stage: StagePrePhysics, log: &log})
		}},
		{"inherited post-physics", func(ts TaskSystem) {
			a := ts.RegisterTask(&traceTask{name: "a", stage: StagePostPhysics, log: &log})
			b := ts.RegisterTask(&traceTask{name: "b", deps: []TaskIndex{a}, log: &log})
			ts.RegisterTask(&traceTask{name: "c", deps: []TaskIndex{b}, stage: StagePrePhysics, log: &log})
		}},
		{"registration after execution", func(ts TaskSystem) {
			ts.UpdatePrePhysics(0)
			ts.RegisterTask(ReferencePoseTask{})
		}},
		{"too many tasks", func(ts TaskSystem) {
			for i := 0; i <= MaxTasks; i++ {
				ts.RegisterTask(ReferencePoseTask{})
			}
		}},
	}

	for _, c := range tests {
		ts := NewTaskSystem(testSkeleton(t))
		ts.Reset()
		t.Run(c.Name, func(t *testing.T) {
			expectViolation(t, OpRegisterTask, func() { c.Build(ts) })
		})
	}
}

func TestTaskSystem_UpdateSequenceContract(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t))
	ts.Reset()
	expectViolation(t, OpUpdateSequence, func() { ts.UpdatePostPhysics(0) })

	ts.Reset()
	ts.UpdatePrePhysics(0)
	expectViolation(t, OpUpdateSequence, func() { ts.UpdatePrePhysics(0) })
}

func TestTaskSystem_TaskMustComplete(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t))
	ts.Reset()
	ts.RegisterTask(&funcTask{fn: func(ctx *TaskContext) {}})
	expectViolation(t, OpExecuteTask, func() { ts.UpdatePrePhysics(0) })
}

func TestTaskContext_DependencyOwnership(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t))
	ts.Reset()

	a := ts.RegisterTask(ReferencePoseTask{})
	b := ts.RegisterTask(ZeroPoseTask{})
	var violationOp string
	ts.RegisterTask(&funcTask{deps: []TaskIndex{a, b}, fn: func(ctx *TaskContext) {
		if ctx.DependencyCount() != 2 || ctx.TaskIndex() != 2 {
			t.Errorf("unexpected context state")
		}
		if ctx.AccessDependencyPoseBuffer(1).Pose.State() != pose.StateZeroPose {
			t.Errorf("expected the zero pose from dependency 1")
		}
		ctx.ReleaseDependencyPoseBuffer(1)

		func() {
			defer func() {
				if cv, ok := recover().(*ContractViolation); ok {
					violationOp = cv.Op
				}
			}()
			ctx.AccessDependencyPoseBuffer(1)
		}()

		// dependency 0 is left for the system to release
		idx, buf := ctx.GetNewPoseBuffer()
		buf.CopyFrom(ctx.AccessDependencyPoseBuffer(0))
		ctx.MarkTaskComplete(idx)
	}})

	runFrame(ts, 0)
	if violationOp != OpDependency {
		t.Errorf("expected a dependency violation after release, got %q", violationOp)
	}
	if inUse := ts.Pool().Stats().TransientInUse; inUse != 0 {
		t.Errorf("untouched dependencies should be released, %d in use", inUse)
	}
	if ts.Pose().State() != pose.StateReferencePose {
		t.Errorf("expected the copied reference pose, got %s", ts.Pose().State())
	}
}

func TestTaskSystem_CachedPoseAcrossFrames(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t))
	id := ts.Pool().CreateCachedPoseBuffer()
	clip := testClip()

	frame := func(time float32) (previous model.Transform) {
		ts.Reset()
		ts.RegisterTask(&CachedPoseReadTask{ID: id})
		sample := ts.RegisterTask(&SampleTask{Clip: clip, Time: time})
		ts.RegisterTask(NewCachedPoseWriteTask(sample, id))
		// the read result has no dependent, so it is inspected through the pool before the frame ends
		ts.UpdatePrePhysics(0)
		previous = ts.Pool().PoseBuffer(PoseBufferIndex(0)).Pose.Transform(1)
		ts.UpdatePostPhysics(0)
		return previous
	}

	if got := frame(0.25); got.Translation != [3]float32{0, 1, 0} {
		t.Errorf("unwritten cache should read as the reference pose, got %v", got.Translation)
	}
	if got := frame(0.75); math.Abs(float64(got.Translation[0]-0.5)) > 1e-5 {
		t.Errorf("expected the previous frame's sample x 0.5, got %v", got.Translation)
	}
	if got := ts.Pose().Transform(1).Translation[0]; math.Abs(float64(got-1.5)) > 1e-5 {
		t.Errorf("expected the current sample x 1.5 as output, got %v", got)
	}
}

func TestTaskSystem_RecordsTaskResults(t *testing.T) {
	ts := NewTaskSystem(testSkeleton(t), WithPoolOptions(WithDebugRecording(true)))
	ts.Reset()
	ref := ts.RegisterTask(ReferencePoseTask{})
	zero := ts.RegisterTask(ZeroPoseTask{})
	blend := ts.RegisterTask(NewBlendTask(ref, zero, 1))
	runFrame(ts, 0)

	if !ts.Pool().IsDebugRecordingEnabled() {
		t.Skip("debug recording is compiled out")
	}
	if got := ts.Pool().RecordedPoseCount(); got != 3 {
		t.Fatalf("expected 3 recorded poses, got %d", got)
	}
	if rec, ok := ts.RecordedTaskPose(ref); !ok || rec.Pose.State() != pose.StateReferencePose {
		t.Errorf("expected the reference task result to be recorded")
	}
	if rec, ok := ts.RecordedTaskPose(blend); !ok || rec.Pose.Transform(1) != model.IdentityTransform {
		t.Errorf("expected the blend result to be recorded")
	}
	if _, ok := ts.RecordedTaskPose(TaskIndex(9)); ok {
		t.Errorf("unknown task should have no recording")
	}
}

func TestNewTaskSystem_Options(t *testing.T) {
	expectPanic(t, "nil skeleton", func() { NewTaskSystem(nil) })

	other := NewPoseBufferPool(testSkeleton(t))
	expectPanic(t, "foreign pool", func() { NewTaskSystem(testSkeleton(t), WithPool(other)) })

	skel := testSkeleton(t)
	pool := NewPoseBufferPool(skel)
	ts := NewTaskSystem(skel, WithPool(pool), WithTaskCapacity(4))
	if ts.Pool() != pool || ts.Skeleton() != skel {
		t.Errorf("expected the injected pool to be used")
	}
}

func TestTaskSystem_CloseReclaimsPool(t *testing.T) {
	baseline := testutil.ToFloat64(metrics.CachedPosesLive)

	ts := NewTaskSystem(testSkeleton(t))
	id := ts.Pool().CreateCachedPoseBuffer()
	ts.Reset()
	write := NewCachedPoseWriteTask(ts.RegisterTask(ReferencePoseTask{}), id)
	ts.RegisterTask(write)
	ts.UpdatePrePhysics(0)
	ts.UpdatePostPhysics(0)

	ts.Close()
	if ts.TaskCount() != 0 {
		t.Errorf("expected no registered tasks, got %d", ts.TaskCount())
	}
	if got := testutil.ToFloat64(metrics.CachedPosesLive); got != baseline {
		t.Errorf("expected the live gauge back at %v, got %v", baseline, got)
	}
	expectViolation(t, OpGetCached, func() { ts.Pool().GetCachedPoseBuffer(id) })
}
