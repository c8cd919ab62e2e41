package task

import "go.uber.org/zap"

// TaskSystemBuilderOption is a functional option for configuring a TaskSystem during construction.
type TaskSystemBuilderOption func(*taskSystem)

// WithPool is an option builder that makes the TaskSystem use an existing pool instead of creating one.
// The pool must be bound to the system's skeleton.
//
// Parameters:
//   - pool: the pose buffer pool
//
// Returns:
//   - TaskSystemBuilderOption: a function that applies the pool to a task system
func WithPool(pool PoseBufferPool) TaskSystemBuilderOption {
	return func(ts *taskSystem) {
		ts.pool = pool
	}
}

// WithPoolOptions is an option builder that forwards options to the pool the TaskSystem creates.
// Ignored when WithPool is used.
//
// Parameters:
//   - options: the pool options
//
// Returns:
//   - TaskSystemBuilderOption: a function that applies the pool options to a task system
func WithPoolOptions(options ...PoseBufferPoolBuilderOption) TaskSystemBuilderOption {
	return func(ts *taskSystem) {
		ts.poolOptions = append(ts.poolOptions, options...)
	}
}

// WithTaskCapacity is an option builder that preallocates room for the expected number of tasks per frame.
//
// Parameters:
//   - capacity: the expected task count, values <= 0 keep the default
//
// Returns:
//   - TaskSystemBuilderOption: a function that applies the task capacity to a task system
func WithTaskCapacity(capacity int) TaskSystemBuilderOption {
	return func(ts *taskSystem) {
		if capacity > 0 {
			ts.capacity = min(capacity, MaxTasks)
		}
	}
}

// WithTaskSystemLogger is an option builder that sets the logger used for contract violation reports.
//
// Parameters:
//   - l: the logger, nil keeps the global logger
//
// Returns:
//   - TaskSystemBuilderOption: a function that applies the logger to a task system
func WithTaskSystemLogger(l *zap.Logger) TaskSystemBuilderOption {
	return func(ts *taskSystem) {
		if l != nil {
			ts.log = l
		}
	}
}
