package graph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
)

// Graph evaluates a tree of nodes against a character's task system.
type Graph interface {
	// Root returns the node producing the graph's output pose.
	Root() Node

	// Evaluate runs one frame: it resets the task system, registers the node tree, then executes the
	// pre- and post-physics passes. The first call initializes every node.
	//
	// Parameters:
	//   - ts: the task system to register with
	//   - deltaTime: the frame time step in seconds
	Evaluate(ts task.TaskSystem, deltaTime float32)

	// Shutdown releases the resources nodes acquired at initialization, such as cached poses.
	// Cached poses are reclaimed by the pool's next Reset.
	//
	// Parameters:
	//   - ts: the task system the graph was evaluated with
	Shutdown(ts task.TaskSystem)
}

// graph is the implementation of the Graph interface.
type graph struct {
	root        Node
	ctx         Context
	initialized bool
}

var _ Graph = &graph{}

// NewGraph validates the node tree below root and creates a graph for it. A node may have at most
// one parent and the tree must not contain cycles.
//
// Parameters:
//   - root: the node producing the output pose
//
// Returns:
//   - Graph: the graph
//   - error: an error describing the first invalid node
func NewGraph(root Node) (Graph, error) {
	if root == nil {
		return nil, fmt.Errorf("graph: root node is required")
	}
	if err := validate(root); err != nil {
		return nil, err
	}
	return &graph{root: root}, nil
}

func (g *graph) Root() Node {
	return g.root
}

func (g *graph) Evaluate(ts task.TaskSystem, deltaTime float32) {
	g.ctx.Tasks = ts
	g.ctx.DeltaTime = deltaTime
	if !g.initialized {
		g.root.Initialize(&g.ctx)
		g.initialized = true
	}

	ts.Reset()
	g.root.Register(&g.ctx)
	ts.UpdatePrePhysics(deltaTime)
	ts.UpdatePostPhysics(deltaTime)
}

func (g *graph) Shutdown(ts task.TaskSystem) {
	if !g.initialized {
		return
	}
	g.ctx.Tasks = ts
	g.root.Shutdown(&g.ctx)
	g.initialized = false
}

// validate walks the tree depth first, rejecting nil children, shared nodes and cycles.
func validate(root Node) error {
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[Node]int)

	var walk func(n Node, path string) error
	walk = func(n Node, path string) error {
		switch state[n] {
		case visiting:
			return fmt.Errorf("graph: cycle through %s", path)
		case visited:
			return fmt.Errorf("graph: %s is referenced by more than one parent", path)
		}
		state[n] = visiting
		for i, child := range n.Children() {
			childPath := fmt.Sprintf("%s/%d:%T", path, i, child)
			if child == nil {
				return fmt.Errorf("graph: %s has a nil child %d", path, i)
			}
			if err := walk(child, childPath); err != nil {
				return err
			}
		}
		state[n] = visited
		return nil
	}

	return walk(root, fmt.Sprintf("%T", root))
}
