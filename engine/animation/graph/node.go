package graph

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// Context is passed to nodes while they initialize, register and shut down.
type Context struct {
	// Tasks is the task system of the character being evaluated.
	Tasks task.TaskSystem

	// DeltaTime is the frame time step in seconds.
	DeltaTime float32
}

// Node is one operation of a runtime graph. Nodes keep per-instance state, so graphs hold them by pointer.
type Node interface {
	// Children returns the nodes whose results this node consumes.
	Children() []Node

	// Initialize is called once before the node is first registered.
	Initialize(ctx *Context)

	// Register adds the node's tasks to the frame and returns the task producing its result.
	Register(ctx *Context) task.TaskIndex

	// Shutdown releases what Initialize acquired.
	Shutdown(ctx *Context)
}

// PoseNode outputs the skeleton's bind pose, or the identity pose when Zero is set.
type PoseNode struct {
	Zero bool
}

func (n *PoseNode) Children() []Node    { return nil }
func (n *PoseNode) Initialize(*Context) {}
func (n *PoseNode) Shutdown(*Context)   {}

func (n *PoseNode) Register(ctx *Context) task.TaskIndex {
	if n.Zero {
		return ctx.Tasks.RegisterTask(task.ZeroPoseTask{})
	}
	return ctx.Tasks.RegisterTask(task.ReferencePoseTask{})
}

// ClipNode plays an animation clip, advancing its own playback time every frame.
type ClipNode struct {
	Clip  *model.AnimationClip
	Loop  bool
	Speed float32

	time   float32
	sample task.SampleTask
}

// NewClipNode creates a node playing the clip at normal speed.
func NewClipNode(clip *model.AnimationClip, loop bool) *ClipNode {
	return &ClipNode{Clip: clip, Loop: loop, Speed: 1}
}

// Time returns the playback time sampled by the last registration.
func (n *ClipNode) Time() float32 {
	return n.time
}

// SetTime moves the playback cursor.
func (n *ClipNode) SetTime(t float32) {
	n.time = n.Clip.WrapTime(t, n.Loop)
}

func (n *ClipNode) Children() []Node { return nil }

func (n *ClipNode) Initialize(*Context) {
	n.sample = task.SampleTask{Clip: n.Clip, Loop: n.Loop}
}

func (n *ClipNode) Register(ctx *Context) task.TaskIndex {
	n.time = n.Clip.WrapTime(n.time+ctx.DeltaTime*n.Speed, n.Loop)
	n.sample.Time = n.time
	return ctx.Tasks.RegisterTask(&n.sample)
}

func (n *ClipNode) Shutdown(*Context) {}

// BlendNode blends Source towards Target by Weight.
type BlendNode struct {
	Source Node
	Target Node
	Weight float32

	blend task.BlendTask
}

func (n *BlendNode) Children() []Node { return []Node{n.Source, n.Target} }

func (n *BlendNode) Initialize(ctx *Context) {
	n.Source.Initialize(ctx)
	n.Target.Initialize(ctx)
}

func (n *BlendNode) Register(ctx *Context) task.TaskIndex {
	source := n.Source.Register(ctx)
	target := n.Target.Register(ctx)
	n.blend.Set(source, target, n.Weight)
	return ctx.Tasks.RegisterTask(&n.blend)
}

func (n *BlendNode) Shutdown(ctx *Context) {
	n.Source.Shutdown(ctx)
	n.Target.Shutdown(ctx)
}

// CachedPoseNode stores its input's result in a cached pose every frame and passes it through.
// The cached pose outlives the frame, so CachedPoseReadNode can feed it back into the next one.
type CachedPoseNode struct {
	Input Node

	id    task.CachedPoseID
	write task.CachedPoseWriteTask
}

// ID returns the cached pose identity, invalid until the node is initialized and after shutdown.
func (n *CachedPoseNode) ID() task.CachedPoseID {
	return n.id
}

func (n *CachedPoseNode) Children() []Node { return []Node{n.Input} }

func (n *CachedPoseNode) Initialize(ctx *Context) {
	n.id = ctx.Tasks.Pool().CreateCachedPoseBuffer()
	n.Input.Initialize(ctx)
}

func (n *CachedPoseNode) Register(ctx *Context) task.TaskIndex {
	input := n.Input.Register(ctx)
	n.write.Set(input, n.id)
	return ctx.Tasks.RegisterTask(&n.write)
}

func (n *CachedPoseNode) Shutdown(ctx *Context) {
	n.Input.Shutdown(ctx)
	if n.id.IsValid() {
		ctx.Tasks.Pool().DestroyCachedPoseBuffer(n.id)
		n.id = task.InvalidCachedPoseID
	}
}

// CachedPoseReadNode outputs the pose cached by Source. Registered before Source in a frame it reads
// the previous frame's pose; before the first write it outputs the reference pose.
type CachedPoseReadNode struct {
	Source *CachedPoseNode

	read task.CachedPoseReadTask
}

func (n *CachedPoseReadNode) Children() []Node    { return nil }
func (n *CachedPoseReadNode) Initialize(*Context) {}
func (n *CachedPoseReadNode) Shutdown(*Context)   {}

func (n *CachedPoseReadNode) Register(ctx *Context) task.TaskIndex {
	n.read.ID = n.Source.ID()
	return ctx.Tasks.RegisterTask(&n.read)
}
