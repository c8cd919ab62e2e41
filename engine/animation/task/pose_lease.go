package task

import "github.com/Carmen-Shannon/oxy-anim/engine/logger"

// noCopy makes go vet's copylocks check flag copies of the struct it is embedded in.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// PoseLease owns one transient buffer and releases it at most once, so a deferred Release covers
// every exit path of the code that requested it. Detach hands the buffer to the caller instead,
// typically to pass it on as a task result. A PoseLease must not be copied.
type PoseLease struct {
	_ noCopy

	pool     PoseBufferPool
	index    PoseBufferIndex
	released bool
}

// Index returns the leased buffer index, or InvalidPoseBufferIndex once released or detached.
func (l *PoseLease) Index() PoseBufferIndex {
	if l.released || l.pool == nil {
		return InvalidPoseBufferIndex
	}
	return l.index
}

// Buffer returns the leased buffer. Panics once the lease has been released or detached.
func (l *PoseLease) Buffer() *PoseBuffer {
	if l.released || l.pool == nil {
		violate(logger.L, OpAccess, "pose lease for buffer %d is no longer held", l.index)
	}
	return l.pool.PoseBuffer(l.index)
}

// Release returns the buffer to the pool. Calling it again, or after Detach, does nothing.
func (l *PoseLease) Release() {
	if l.released || l.pool == nil {
		return
	}
	l.released = true
	l.pool.ReleasePoseBuffer(l.index)
}

// Detach ends the lease without releasing the buffer and returns its index. The caller becomes
// responsible for releasing it.
func (l *PoseLease) Detach() PoseBufferIndex {
	idx := l.Index()
	l.released = true
	return idx
}
