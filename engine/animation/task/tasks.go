package task

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// ReferencePoseTask produces the skeleton's bind pose.
type ReferencePoseTask struct{}

func (ReferencePoseTask) Name() string              { return "reference pose" }
func (ReferencePoseTask) Dependencies() []TaskIndex { return nil }
func (ReferencePoseTask) Stage() TaskUpdateStage    { return StageAny }

func (ReferencePoseTask) Execute(ctx *TaskContext) {
	idx, buf := ctx.GetNewPoseBuffer()
	buf.Pose.Reset(pose.TypeReferencePose)
	ctx.MarkTaskComplete(idx)
}

// ZeroPoseTask produces a pose with every bone at the identity transform.
type ZeroPoseTask struct{}

func (ZeroPoseTask) Name() string              { return "zero pose" }
func (ZeroPoseTask) Dependencies() []TaskIndex { return nil }
func (ZeroPoseTask) Stage() TaskUpdateStage    { return StageAny }

func (ZeroPoseTask) Execute(ctx *TaskContext) {
	idx, buf := ctx.GetNewPoseBuffer()
	buf.Pose.Reset(pose.TypeZeroPose)
	ctx.MarkTaskComplete(idx)
}

// SampleTask samples a clip on top of the reference pose. Bones without a channel keep their bind pose.
type SampleTask struct {
	Clip *model.AnimationClip
	Time float32
	Loop bool
}

func (t *SampleTask) Name() string              { return "sample " + t.Clip.Name }
func (t *SampleTask) Dependencies() []TaskIndex { return nil }
func (t *SampleTask) Stage() TaskUpdateStage    { return StageAny }

func (t *SampleTask) Execute(ctx *TaskContext) {
	lease := ctx.Pool().Lease()
	defer lease.Release()

	p := lease.Buffer().Pose
	p.Reset(pose.TypeReferencePose)
	t.Clip.Sample(t.Time, t.Loop, p.MutableLocalTransforms())

	ctx.MarkTaskComplete(lease.Detach())
}

// BlendTask blends the results of two tasks, writing into the source's buffer.
type BlendTask struct {
	deps   [2]TaskIndex
	Weight float32
}

// NewBlendTask creates a blend of source towards target.
//
// Parameters:
//   - source: the task whose result is used at weight 0
//   - target: the task whose result is used at weight 1
//   - weight: the blend weight, clamped to [0, 1] when executed
//
// Returns:
//   - *BlendTask: the blend task
func NewBlendTask(source, target TaskIndex, weight float32) *BlendTask {
	t := &BlendTask{}
	t.Set(source, target, weight)
	return t
}

// Set rewires the task so a single instance can be registered again every frame.
func (t *BlendTask) Set(source, target TaskIndex, weight float32) {
	t.deps = [2]TaskIndex{source, target}
	t.Weight = weight
}

func (t *BlendTask) Name() string              { return "blend" }
func (t *BlendTask) Dependencies() []TaskIndex { return t.deps[:] }
func (t *BlendTask) Stage() TaskUpdateStage    { return StageAny }

func (t *BlendTask) Execute(ctx *TaskContext) {
	idx, src := ctx.TransferDependencyPoseBuffer(0)
	tgt := ctx.AccessDependencyPoseBuffer(1)
	src.Pose.Blend(src.Pose, tgt.Pose, t.Weight)
	ctx.MarkTaskComplete(idx)
}

// CachedPoseWriteTask copies its dependency's result into a cached buffer and passes it through.
type CachedPoseWriteTask struct {
	deps [1]TaskIndex
	ID   CachedPoseID
}

// NewCachedPoseWriteTask creates a task writing the input task's result into the cached pose id.
func NewCachedPoseWriteTask(input TaskIndex, id CachedPoseID) *CachedPoseWriteTask {
	t := &CachedPoseWriteTask{}
	t.Set(input, id)
	return t
}

// Set rewires the task so a single instance can be registered again every frame.
func (t *CachedPoseWriteTask) Set(input TaskIndex, id CachedPoseID) {
	t.deps = [1]TaskIndex{input}
	t.ID = id
}

func (t *CachedPoseWriteTask) Name() string              { return "write cached pose" }
func (t *CachedPoseWriteTask) Dependencies() []TaskIndex { return t.deps[:] }
func (t *CachedPoseWriteTask) Stage() TaskUpdateStage    { return StageAny }

func (t *CachedPoseWriteTask) Execute(ctx *TaskContext) {
	idx, buf := ctx.TransferDependencyPoseBuffer(0)
	ctx.Pool().GetCachedPoseBuffer(t.ID).CopyFrom(buf)
	ctx.MarkTaskComplete(idx)
}

// CachedPoseReadTask copies a cached pose into a new buffer. A cached pose that was never written
// reads as the reference pose.
type CachedPoseReadTask struct {
	ID CachedPoseID
}

func (t *CachedPoseReadTask) Name() string              { return "read cached pose" }
func (t *CachedPoseReadTask) Dependencies() []TaskIndex { return nil }
func (t *CachedPoseReadTask) Stage() TaskUpdateStage    { return StageAny }

func (t *CachedPoseReadTask) Execute(ctx *TaskContext) {
	cached := ctx.Pool().GetCachedPoseBuffer(t.ID)
	idx, buf := ctx.GetNewPoseBuffer()
	if cached.Pose.IsPoseSet() {
		buf.CopyFrom(cached)
	} else {
		buf.Pose.Reset(pose.TypeReferencePose)
	}
	ctx.MarkTaskComplete(idx)
}
