package task

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"go.uber.org/zap"
)

// TaskSystem schedules one character's animation tasks for a frame. Tasks are registered in
// dependency order after Reset, then executed in two passes around the physics step. The result of
// the last registered task becomes the frame's output pose.
//
// A TaskSystem owns its PoseBufferPool and, like the pool, performs no locking.
type TaskSystem interface {
	// Skeleton returns the skeleton the system animates.
	Skeleton() *model.Skeleton

	// Pool returns the pose buffer pool owned by the system.
	Pool() PoseBufferPool

	// Pose returns the output pose written by UpdatePostPhysics.
	Pose() *pose.Pose

	// Reset clears the registered tasks and resets the pool. Must be called at the start of every frame.
	Reset()

	// RegisterTask appends a task to the frame. Panics when a dependency is not yet registered,
	// already has a dependent, or runs after physics while the task must run before it.
	//
	// Parameters:
	//   - t: the task to register
	//
	// Returns:
	//   - TaskIndex: the index dependents use to reference the task
	RegisterTask(t Task) TaskIndex

	// TaskCount returns the number of tasks registered since the last Reset.
	TaskCount() int

	// Task returns a registered task.
	//
	// Parameters:
	//   - idx: the index returned by RegisterTask
	//
	// Returns:
	//   - Task: the registered task
	Task(idx TaskIndex) Task

	// HasPhysicsDependency reports whether any registered task has to wait for the physics step.
	HasPhysicsDependency() bool

	// UpdatePrePhysics executes every task that does not need to wait for physics.
	//
	// Parameters:
	//   - deltaTime: the frame time step in seconds
	UpdatePrePhysics(deltaTime float32)

	// UpdatePostPhysics executes the remaining tasks and copies the final result into the output pose.
	// With no registered task the output pose is reset to the reference pose.
	//
	// Parameters:
	//   - deltaTime: the frame time step in seconds
	UpdatePostPhysics(deltaTime float32)

	// RecordedTaskPose returns the debug copy of a task's result when the pool recorded it.
	//
	// Parameters:
	//   - idx: the task index
	//
	// Returns:
	//   - *PoseBuffer: the recorded pose
	//   - bool: whether the task's result was recorded this frame
	RecordedTaskPose(idx TaskIndex) (*PoseBuffer, bool)

	// Close drops the registered tasks and closes the pool. Call it once the system is discarded so
	// cached poses still alive are reclaimed.
	Close()
}

// update phases of a frame
const (
	phaseRegistering = iota
	phasePrePhysicsDone
	phaseComplete
)

// taskRecord holds a registered task and its per-frame execution state.
type taskRecord struct {
	task  Task
	deps  []TaskIndex
	stage TaskUpdateStage

	result       PoseBufferIndex
	complete     bool
	hasDependent bool
	debugIndex   PoseBufferIndex
}

// taskSystem is the implementation of the TaskSystem interface.
type taskSystem struct {
	skeleton *model.Skeleton
	pool     PoseBufferPool
	log      *zap.Logger

	poolOptions []PoseBufferPoolBuilderOption
	capacity    int

	tasks  []taskRecord
	ctx    TaskContext
	output *pose.Pose
	phase  int

	physicsDependency bool
}

var _ TaskSystem = &taskSystem{}

// NewTaskSystem creates a task system and its pose buffer pool. Panics if the skeleton is nil.
//
// Parameters:
//   - skeleton: the skeleton the system animates
//   - options: functional options for the system and its pool
//
// Returns:
//   - TaskSystem: the new task system
func NewTaskSystem(skeleton *model.Skeleton, options ...TaskSystemBuilderOption) TaskSystem {
	if skeleton == nil {
		panic("task: NewTaskSystem requires a non-nil Skeleton")
	}

	ts := &taskSystem{
		skeleton: skeleton,
		capacity: 16,
		output:   pose.NewPose(skeleton, pose.TypeReferencePose),
	}

	for _, option := range options {
		option(ts)
	}

	if ts.log == nil {
		ts.log = logger.Named("task_system")
	}
	if ts.pool == nil {
		ts.pool = NewPoseBufferPool(skeleton, ts.poolOptions...)
	} else if ts.pool.Skeleton() != skeleton {
		panic("task: NewTaskSystem pool is bound to a different Skeleton")
	}

	ts.tasks = make([]taskRecord, 0, ts.capacity)
	ts.ctx.system = ts
	return ts
}

func (ts *taskSystem) Skeleton() *model.Skeleton {
	return ts.skeleton
}

func (ts *taskSystem) Pool() PoseBufferPool {
	return ts.pool
}

func (ts *taskSystem) Pose() *pose.Pose {
	return ts.output
}

func (ts *taskSystem) Reset() {
	clear(ts.tasks)
	ts.tasks = ts.tasks[:0]
	ts.phase = phaseRegistering
	ts.physicsDependency = false
	ts.pool.Reset()
}

func (ts *taskSystem) RegisterTask(t Task) TaskIndex {
	if ts.phase != phaseRegistering {
		violate(ts.log, OpRegisterTask, "task %q registered after the frame started executing", t.Name())
	}
	if len(ts.tasks) >= MaxTasks {
		violate(ts.log, OpRegisterTask, "more than %d tasks registered", MaxTasks)
	}

	idx := len(ts.tasks)
	stage := t.Stage()
	deps := t.Dependencies()
	for _, dep := range deps {
		if int(dep) >= idx {
			violate(ts.log, OpRegisterTask, "task %q depends on unregistered task %d", t.Name(), dep)
		}
		depRecord := &ts.tasks[dep]
		if depRecord.hasDependent {
			violate(ts.log, OpRegisterTask, "task %q depends on task %d which already has a dependent", t.Name(), dep)
		}
		depRecord.hasDependent = true

		if depRecord.stage == StagePostPhysics {
			if stage == StagePrePhysics {
				violate(ts.log, OpRegisterTask, "pre-physics task %q depends on post-physics task %d", t.Name(), dep)
			}
			stage = StagePostPhysics
		}
	}

	if stage == StagePostPhysics {
		ts.physicsDependency = true
	}

	ts.tasks = append(ts.tasks, taskRecord{
		task:       t,
		deps:       deps,
		stage:      stage,
		result:     InvalidPoseBufferIndex,
		debugIndex: InvalidPoseBufferIndex,
	})
	return TaskIndex(idx)
}

func (ts *taskSystem) TaskCount() int {
	return len(ts.tasks)
}

func (ts *taskSystem) Task(idx TaskIndex) Task {
	if int(idx) >= len(ts.tasks) {
		violate(ts.log, OpAccess, "task %d is not registered", idx)
	}
	return ts.tasks[idx].task
}

func (ts *taskSystem) HasPhysicsDependency() bool {
	return ts.physicsDependency
}

func (ts *taskSystem) UpdatePrePhysics(deltaTime float32) {
	if ts.phase != phaseRegistering {
		violate(ts.log, OpUpdateSequence, "UpdatePrePhysics called twice in a frame")
	}
	ts.phase = phasePrePhysicsDone
	ts.run(deltaTime, StagePrePhysics)
}

func (ts *taskSystem) UpdatePostPhysics(deltaTime float32) {
	if ts.phase != phasePrePhysicsDone {
		violate(ts.log, OpUpdateSequence, "UpdatePostPhysics called without a preceding UpdatePrePhysics")
	}
	ts.phase = phaseComplete
	ts.run(deltaTime, StagePostPhysics)

	if len(ts.tasks) == 0 {
		ts.output.Reset(pose.TypeReferencePose)
		return
	}

	final := &ts.tasks[len(ts.tasks)-1]
	ts.output.CopyFrom(ts.pool.PoseBuffer(final.result).Pose)
	ts.pool.ReleasePoseBuffer(final.result)
	final.result = InvalidPoseBufferIndex
}

func (ts *taskSystem) RecordedTaskPose(idx TaskIndex) (*PoseBuffer, bool) {
	if int(idx) >= len(ts.tasks) || !ts.tasks[idx].debugIndex.IsValid() {
		return nil, false
	}
	return ts.pool.GetRecordedPose(ts.tasks[idx].debugIndex), true
}

func (ts *taskSystem) Close() {
	clear(ts.tasks)
	ts.tasks = ts.tasks[:0]
	ts.phase = phaseRegistering
	ts.physicsDependency = false
	ts.pool.Close()
}

// run executes the pending tasks allowed in the given pass, in registration order.
func (ts *taskSystem) run(deltaTime float32, pass TaskUpdateStage) {
	ts.ctx.deltaTime = deltaTime
	recording := ts.pool.IsDebugRecordingEnabled()

	executed := 0
	for i := range ts.tasks {
		rec := &ts.tasks[i]
		if rec.complete {
			continue
		}
		if pass == StagePrePhysics && rec.stage == StagePostPhysics {
			continue
		}

		ts.ctx.begin(i, rec.deps)
		rec.task.Execute(&ts.ctx)
		if !ts.ctx.complete {
			violate(ts.log, OpExecuteTask, "task %d (%s) returned without marking itself complete", i, rec.task.Name())
		}
		ts.ctx.finish()

		rec.result = ts.ctx.result
		rec.complete = true
		if recording {
			rec.debugIndex = ts.pool.RecordPose(rec.result)
		}
		executed++
	}

	if executed > 0 {
		metrics.TasksExecuted.Add(float64(executed))
	}
}
