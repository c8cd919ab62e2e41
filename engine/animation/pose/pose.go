package pose

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// Type selects what a pose is reset to.
type Type uint8

const (
	// TypeNone marks the pose as unset without touching its transforms.
	TypeNone Type = iota

	// TypeReferencePose resets every bone to the skeleton's bind pose.
	TypeReferencePose

	// TypeZeroPose resets every bone to the identity transform.
	TypeZeroPose
)

// State describes what the transforms of a pose currently hold.
type State uint8

const (
	StateUnset State = iota
	StatePose
	StateReferencePose
	StateZeroPose
)

func (s State) String() string {
	switch s {
	case StatePose:
		return "pose"
	case StateReferencePose:
		return "reference"
	case StateZeroPose:
		return "zero"
	default:
		return "unset"
	}
}

// Pose is a set of per-bone local transforms bound to one Skeleton for its whole lifetime.
// Global (model space) matrices are computed on demand and cached until the next write.
type Pose struct {
	skeleton *model.Skeleton
	local    []model.Transform
	global   [][16]float32

	globalValid bool
	state       State
}

// NewPose allocates a pose for the skeleton and resets it to the given type.
// Panics if the skeleton is nil.
//
// Parameters:
//   - skeleton: the skeleton the pose is bound to
//   - initial: the initial contents of the pose
//
// Returns:
//   - *Pose: the new pose
func NewPose(skeleton *model.Skeleton, initial Type) *Pose {
	if skeleton == nil {
		panic("pose: NewPose requires a non-nil Skeleton")
	}
	p := &Pose{
		skeleton: skeleton,
		local:    make([]model.Transform, skeleton.BoneCount()),
		global:   make([][16]float32, skeleton.BoneCount()),
	}
	p.Reset(initial)
	return p
}

// Skeleton returns the skeleton this pose is bound to.
func (p *Pose) Skeleton() *model.Skeleton {
	return p.skeleton
}

// BoneCount returns the number of bones in the pose.
func (p *Pose) BoneCount() int {
	return len(p.local)
}

// State returns what the pose currently holds.
func (p *Pose) State() State {
	return p.state
}

// IsPoseSet reports whether the pose holds any data.
func (p *Pose) IsPoseSet() bool {
	return p.state != StateUnset
}

// Reset resets the pose. TypeNone only clears the state, leaving stale transforms in place.
//
// Parameters:
//   - t: what to reset the pose to
func (p *Pose) Reset(t Type) {
	switch t {
	case TypeReferencePose:
		for i := range p.local {
			p.local[i] = p.skeleton.Bones[i].LocalTransform
		}
		p.state = StateReferencePose
	case TypeZeroPose:
		for i := range p.local {
			p.local[i] = model.IdentityTransform
		}
		p.state = StateZeroPose
	default:
		p.state = StateUnset
	}
	p.globalValid = false
}

// CopyFrom copies the transforms and state of another pose.
// Panics if the poses are bound to different skeletons.
//
// Parameters:
//   - other: the pose to copy
func (p *Pose) CopyFrom(other *Pose) {
	if p.skeleton != other.skeleton {
		panic("pose: CopyFrom requires poses bound to the same Skeleton")
	}
	copy(p.local, other.local)
	p.state = other.state
	p.globalValid = other.globalValid
	if p.globalValid {
		copy(p.global, other.global)
	}
}

// Transform returns the local transform of a bone.
func (p *Pose) Transform(bone int) model.Transform {
	return p.local[bone]
}

// SetTransform sets the local transform of a bone and marks the pose as set.
func (p *Pose) SetTransform(bone int, t model.Transform) {
	p.local[bone] = t
	p.markWritten()
}

// SetTranslation sets the local translation of a bone.
func (p *Pose) SetTranslation(bone int, t [3]float32) {
	p.local[bone].Translation = t
	p.markWritten()
}

// SetRotation sets the local rotation of a bone.
func (p *Pose) SetRotation(bone int, q [4]float32) {
	p.local[bone].Rotation = q
	p.markWritten()
}

// SetScale sets the local scale of a bone.
func (p *Pose) SetScale(bone int, s [3]float32) {
	p.local[bone].Scale = s
	p.markWritten()
}

// LocalTransforms returns the local transforms. The slice must be treated as read-only,
// use MutableLocalTransforms to write.
func (p *Pose) LocalTransforms() []model.Transform {
	return p.local
}

// MutableLocalTransforms returns the local transforms for in-place writes and marks the pose as set.
func (p *Pose) MutableLocalTransforms() []model.Transform {
	p.markWritten()
	return p.local
}

// Blend writes the per-bone interpolation of source and target into this pose.
// Translation and scale are lerped, rotation is slerped. All three poses must share a skeleton.
//
// Parameters:
//   - source: the pose at weight 0
//   - target: the pose at weight 1
//   - weight: the blend weight, clamped to [0, 1]
func (p *Pose) Blend(source, target *Pose, weight float32) {
	if source.skeleton != p.skeleton || target.skeleton != p.skeleton {
		panic("pose: Blend requires poses bound to the same Skeleton")
	}
	if weight < 0 {
		weight = 0
	} else if weight > 1 {
		weight = 1
	}
	for i := range p.local {
		a, b := source.local[i], target.local[i]
		p.local[i] = model.Transform{
			Translation: common.Lerp3(a.Translation, b.Translation, weight),
			Rotation:    common.QuatSlerp(common.QuatNormalize(a.Rotation), common.QuatNormalize(b.Rotation), weight),
			Scale:       common.Lerp3(a.Scale, b.Scale, weight),
		}
	}
	p.markWritten()
}

// CalculateGlobalTransforms computes the model space matrix of every bone.
// It is a no-op when the cached matrices are still valid.
func (p *Pose) CalculateGlobalTransforms() {
	if p.globalValid {
		return
	}
	var local [16]float32
	for i := range p.local {
		t := &p.local[i]
		common.ComposeTRS(local[:], t.Translation, common.QuatNormalize(t.Rotation), t.Scale)
		parent := p.skeleton.Bones[i].ParentIndex
		if parent < 0 {
			p.global[i] = local
			continue
		}
		common.Mul4(p.global[i][:], p.global[parent][:], local[:])
	}
	p.globalValid = true
}

// GlobalTransform returns the model space matrix of a bone, computing global transforms if needed.
func (p *Pose) GlobalTransform(bone int) [16]float32 {
	p.CalculateGlobalTransforms()
	return p.global[bone]
}

func (p *Pose) markWritten() {
	p.state = StatePose
	p.globalValid = false
}
