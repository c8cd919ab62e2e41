package task

// TaskIndex addresses a task registered with a TaskSystem during the current frame.
type TaskIndex uint8

const (
	// InvalidTaskIndex is the reserved index that never addresses a task.
	InvalidTaskIndex TaskIndex = 255

	// MaxTasks is the number of tasks a TaskSystem accepts per frame.
	MaxTasks = 255
)

// IsValid reports whether the index can address a task.
func (i TaskIndex) IsValid() bool {
	return i != InvalidTaskIndex
}

// TaskUpdateStage constrains when a task runs relative to the physics step.
type TaskUpdateStage uint8

const (
	// StageAny tasks run as early as their dependencies allow.
	StageAny TaskUpdateStage = iota

	// StagePrePhysics tasks must run before physics.
	StagePrePhysics

	// StagePostPhysics tasks run after physics, usually because they read physics results.
	StagePostPhysics
)

func (s TaskUpdateStage) String() string {
	switch s {
	case StagePrePhysics:
		return "pre-physics"
	case StagePostPhysics:
		return "post-physics"
	default:
		return "any"
	}
}

// Task is one operation of a frame's animation graph. Tasks are registered in dependency order;
// each dependency's result buffer is handed to exactly one dependent.
type Task interface {
	// Name returns a short description used in logs and debug tooling.
	Name() string

	// Dependencies returns the tasks whose results this task consumes, in the order the task
	// addresses them through the TaskContext.
	Dependencies() []TaskIndex

	// Stage returns when the task may run.
	Stage() TaskUpdateStage

	// Execute runs the task. It must call ctx.MarkTaskComplete with the buffer holding its result.
	//
	// Parameters:
	//   - ctx: the execution context, valid only for the duration of the call
	Execute(ctx *TaskContext)
}
