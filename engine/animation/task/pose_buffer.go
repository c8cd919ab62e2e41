package task

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/google/uuid"
)

// PoseBufferIndex addresses a slot in one of the pool's buffer collections.
type PoseBufferIndex uint8

const (
	// InvalidPoseBufferIndex is the reserved index that never addresses a slot.
	InvalidPoseBufferIndex PoseBufferIndex = 255

	// MaxPoseBuffers is the slot ceiling of each pool collection. Valid indices are 0 to 254.
	MaxPoseBuffers = 255
)

// IsValid reports whether the index can address a slot.
func (i PoseBufferIndex) IsValid() bool {
	return i != InvalidPoseBufferIndex
}

// CachedPoseID identifies a cached pose buffer for its whole lifetime.
type CachedPoseID struct {
	uuid.UUID
}

// InvalidCachedPoseID is the zero identity, never assigned to a live cached buffer.
var InvalidCachedPoseID = CachedPoseID{}

// NewCachedPoseID generates a fresh random identity.
func NewCachedPoseID() CachedPoseID {
	return CachedPoseID{UUID: uuid.New()}
}

// IsValid reports whether the identity is not the nil UUID.
func (id CachedPoseID) IsValid() bool {
	return id.UUID != uuid.Nil
}

// PoseBuffer wraps a pose bound to the pool's skeleton with an in-use flag.
type PoseBuffer struct {
	// Pose is the buffer's pose. It is bound to the owning pool's skeleton for the buffer's lifetime.
	Pose *pose.Pose

	inUse bool
}

func newPoseBuffer(skeleton *model.Skeleton) *PoseBuffer {
	return &PoseBuffer{Pose: pose.NewPose(skeleton, pose.TypeNone)}
}

// IsInUse reports whether the buffer is currently handed out.
func (b *PoseBuffer) IsInUse() bool {
	return b.inUse
}

// Reset unsets the pose and marks the buffer free.
func (b *PoseBuffer) Reset() {
	b.Pose.Reset(pose.TypeNone)
	b.inUse = false
}

// CopyFrom copies another buffer's pose into this one. Both buffers must be bound to the same skeleton.
func (b *PoseBuffer) CopyFrom(other *PoseBuffer) {
	if b.Pose.Skeleton() != other.Pose.Skeleton() {
		violate(logger.L, OpCopy, "buffers are bound to different skeletons (%d and %d bones)",
			b.Pose.BoneCount(), other.Pose.BoneCount())
	}
	b.Pose.CopyFrom(other.Pose)
}

// CachedPoseBuffer is a pose buffer addressed by identity that survives pool resets.
type CachedPoseBuffer struct {
	PoseBuffer

	id CachedPoseID
}

func newCachedPoseBuffer(skeleton *model.Skeleton) *CachedPoseBuffer {
	return &CachedPoseBuffer{PoseBuffer: PoseBuffer{Pose: pose.NewPose(skeleton, pose.TypeNone)}}
}

// ID returns the buffer's identity, or InvalidCachedPoseID when the slot is free.
func (b *CachedPoseBuffer) ID() CachedPoseID {
	return b.id
}

// Reset frees the slot and clears its identity.
func (b *CachedPoseBuffer) Reset() {
	b.PoseBuffer.Reset()
	b.id = InvalidCachedPoseID
}
