// Package graph contains the runtime animation graph. A graph is a tree of nodes that register
// tasks with a task.TaskSystem every frame; the system then executes them against pooled pose
// buffers and produces the character's pose.
package graph
