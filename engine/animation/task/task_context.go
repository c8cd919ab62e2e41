package task

import "github.com/Carmen-Shannon/oxy-anim/engine/model"

// dependency buffer states tracked while a task executes
const (
	depHeld uint8 = iota
	depTransferred
	depReleased
)

// TaskContext is handed to Task.Execute. It gives the task access to the pool and to the result
// buffers of its dependencies. A TaskSystem reuses one context for every task it runs.
type TaskContext struct {
	system    *taskSystem
	task      int
	deltaTime float32

	deps     []TaskIndex
	depState []uint8
	result   PoseBufferIndex
	complete bool
}

// Pool returns the pose buffer pool of the running task system.
func (c *TaskContext) Pool() PoseBufferPool {
	return c.system.pool
}

// Skeleton returns the skeleton every pose of the task system is bound to.
func (c *TaskContext) Skeleton() *model.Skeleton {
	return c.system.skeleton
}

// DeltaTime returns the frame time step in seconds.
func (c *TaskContext) DeltaTime() float32 {
	return c.deltaTime
}

// TaskIndex returns the index of the running task.
func (c *TaskContext) TaskIndex() TaskIndex {
	return TaskIndex(c.task)
}

// DependencyCount returns the number of dependencies of the running task.
func (c *TaskContext) DependencyCount() int {
	return len(c.deps)
}

// GetNewPoseBuffer requests a transient buffer from the pool.
//
// Returns:
//   - PoseBufferIndex: the index to pass to MarkTaskComplete or to release
//   - *PoseBuffer: the acquired buffer
func (c *TaskContext) GetNewPoseBuffer() (PoseBufferIndex, *PoseBuffer) {
	idx := c.system.pool.RequestPoseBuffer()
	return idx, c.system.pool.PoseBuffer(idx)
}

// AccessDependencyPoseBuffer returns the result buffer of a dependency without taking ownership.
// Unless transferred or released, the buffer is released after the task completes.
//
// Parameters:
//   - i: the position of the dependency in the task's Dependencies
//
// Returns:
//   - *PoseBuffer: the dependency's result
func (c *TaskContext) AccessDependencyPoseBuffer(i int) *PoseBuffer {
	return c.system.pool.PoseBuffer(c.dependencyResult(i))
}

// TransferDependencyPoseBuffer takes ownership of a dependency's result buffer, usually to write
// the task's own result into it in place.
//
// Parameters:
//   - i: the position of the dependency in the task's Dependencies
//
// Returns:
//   - PoseBufferIndex: the transferred buffer index
//   - *PoseBuffer: the transferred buffer
func (c *TaskContext) TransferDependencyPoseBuffer(i int) (PoseBufferIndex, *PoseBuffer) {
	idx := c.dependencyResult(i)
	c.depState[i] = depTransferred
	return idx, c.system.pool.PoseBuffer(idx)
}

// ReleaseDependencyPoseBuffer returns a dependency's result buffer to the pool before the task completes.
//
// Parameters:
//   - i: the position of the dependency in the task's Dependencies
func (c *TaskContext) ReleaseDependencyPoseBuffer(i int) {
	idx := c.dependencyResult(i)
	c.depState[i] = depReleased
	c.system.pool.ReleasePoseBuffer(idx)
}

// MarkTaskComplete sets the running task's result. Must be called exactly once per execution.
//
// Parameters:
//   - idx: the transient buffer holding the task's result
func (c *TaskContext) MarkTaskComplete(idx PoseBufferIndex) {
	if c.complete {
		violate(c.system.log, OpExecuteTask, "task %d marked complete twice", c.task)
	}
	if !idx.IsValid() || !c.system.pool.PoseBuffer(idx).IsInUse() {
		violate(c.system.log, OpExecuteTask, "task %d completed with buffer %d which is not in use", c.task, idx)
	}
	c.result = idx
	c.complete = true
}

func (c *TaskContext) dependencyResult(i int) PoseBufferIndex {
	if i < 0 || i >= len(c.deps) {
		violate(c.system.log, OpDependency, "task %d has no dependency %d", c.task, i)
	}
	if c.depState[i] != depHeld {
		violate(c.system.log, OpDependency, "task %d already gave up dependency %d", c.task, i)
	}
	return c.system.tasks[c.deps[i]].result
}

// begin prepares the context for a task.
func (c *TaskContext) begin(task int, deps []TaskIndex) {
	c.task = task
	c.deps = deps
	c.depState = c.depState[:0]
	for range deps {
		c.depState = append(c.depState, depHeld)
	}
	c.result = InvalidPoseBufferIndex
	c.complete = false
}

// finish releases the dependency buffers the task left untouched.
func (c *TaskContext) finish() {
	for i, state := range c.depState {
		if state != depHeld {
			continue
		}
		idx := c.system.tasks[c.deps[i]].result
		if idx != c.result {
			c.system.pool.ReleasePoseBuffer(idx)
		}
	}
}
