package task

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"go.uber.org/zap"
)

const (
	// DefaultInitialBufferCount is the number of buffers each collection starts with.
	DefaultInitialBufferCount = 32

	// DefaultGrowAmount is the number of buffers added to a collection that runs out of free slots.
	DefaultGrowAmount = 8
)

// Collection names used in growth metrics and log fields.
const (
	collectionTransient = "transient"
	collectionCached    = "cached"
	collectionDebug     = "debug"
)

// PoseBufferPool owns every pose buffer used by one task system. It keeps three independent
// collections, each growing on demand up to MaxPoseBuffers slots:
//   - transient buffers, handed out by index and recycled on every Reset
//   - cached buffers, addressed by a CachedPoseID and kept alive across resets until destroyed
//   - debug buffers, an append-only per-frame log of recorded poses (compiled out with -tags release)
//
// A pool is bound to one skeleton for its whole lifetime and performs no locking; callers must
// serialize access to a given pool. Contract violations panic with a *ContractViolation.
type PoseBufferPool interface {
	// Skeleton returns the skeleton every buffer in the pool is bound to.
	Skeleton() *model.Skeleton

	// Reset starts a new frame. It frees every transient buffer, reclaims the cached buffers whose
	// destruction was requested since the previous Reset, and rewinds the debug recording cursor
	// without scrubbing recorded data. Must be called once per frame before any request.
	Reset()

	// RequestPoseBuffer marks the lowest free transient buffer as in use and returns its index.
	// The transient collection grows when no free buffer is left. Growing past MaxPoseBuffers panics.
	//
	// Returns:
	//   - PoseBufferIndex: the index of the acquired buffer
	RequestPoseBuffer() PoseBufferIndex

	// ReleasePoseBuffer returns a transient buffer to the pool. Panics if the buffer is not in use.
	//
	// Parameters:
	//   - idx: the index returned by RequestPoseBuffer
	ReleasePoseBuffer(idx PoseBufferIndex)

	// PoseBuffer returns the transient buffer at idx. Panics if idx is outside the collection.
	//
	// Parameters:
	//   - idx: the buffer index
	//
	// Returns:
	//   - *PoseBuffer: the buffer, valid until the next Reset
	PoseBuffer(idx PoseBufferIndex) *PoseBuffer

	// Lease requests a transient buffer wrapped in a PoseLease that releases it at most once.
	//
	// Returns:
	//   - PoseLease: the lease owning the acquired buffer
	Lease() PoseLease

	// CreateCachedPoseBuffer acquires the lowest free cached buffer and assigns it a fresh identity.
	// The cached collection grows like the transient one.
	//
	// Returns:
	//   - CachedPoseID: the identity used to address the buffer from now on
	CreateCachedPoseBuffer() CachedPoseID

	// DestroyCachedPoseBuffer requests destruction of a cached buffer. The buffer stays readable
	// until the next Reset, which reclaims its slot. Repeated requests within a frame are ignored.
	// Panics if id is invalid or does not address a live cached buffer.
	//
	// Parameters:
	//   - id: the identity returned by CreateCachedPoseBuffer
	DestroyCachedPoseBuffer(id CachedPoseID)

	// GetCachedPoseBuffer returns the cached buffer addressed by id.
	// Panics if id is invalid or does not address a live cached buffer.
	//
	// Parameters:
	//   - id: the identity returned by CreateCachedPoseBuffer
	//
	// Returns:
	//   - *PoseBuffer: the cached buffer
	GetCachedPoseBuffer(id CachedPoseID) *PoseBuffer

	// RecordPose copies an in-use transient buffer into the next debug buffer.
	// Does nothing when debug recording is disabled or compiled out.
	//
	// Parameters:
	//   - idx: the transient buffer to record
	//
	// Returns:
	//   - PoseBufferIndex: the debug buffer index, or InvalidPoseBufferIndex when nothing was recorded
	RecordPose(idx PoseBufferIndex) PoseBufferIndex

	// GetRecordedPose returns a debug buffer. Panics if idx is outside the debug collection.
	// Buffers past RecordedPoseCount hold data from earlier frames until overwritten.
	//
	// Parameters:
	//   - idx: the index returned by RecordPose
	//
	// Returns:
	//   - *PoseBuffer: the debug buffer
	GetRecordedPose(idx PoseBufferIndex) *PoseBuffer

	// RecordedPoseCount returns the number of poses recorded since the last Reset.
	RecordedPoseCount() int

	// SetDebugRecordingEnabled toggles debug recording. Has no effect in release builds.
	//
	// Parameters:
	//   - enabled: whether RecordPose should copy poses
	SetDebugRecordingEnabled(enabled bool)

	// IsDebugRecordingEnabled reports whether RecordPose copies poses.
	IsDebugRecordingEnabled() bool

	// Stats returns a snapshot of the pool's occupancy.
	Stats() PoolStats

	// Close reclaims every buffer when the pool's owner goes away, including live cached buffers
	// and those pending destruction. Cached identities stop resolving. The pool stays usable and
	// Close may be called more than once.
	Close()
}

// PoolStats is a snapshot of a pool's collections.
type PoolStats struct {
	TransientBuffers int
	TransientInUse   int
	CachedBuffers    int
	CachedInUse      int
	PendingDestroys  int
	DebugBuffers     int
	RecordedPoses    int

	// PeakTransientInUse is the highest number of simultaneously used transient buffers
	// since the last Reset.
	PeakTransientInUse int
}

// poseBufferPool is the implementation of the PoseBufferPool interface.
type poseBufferPool struct {
	skeleton *model.Skeleton
	log      *zap.Logger
	label    string

	initialBuffers int
	growAmount     int

	buffers         []*PoseBuffer
	firstFreeBuffer int
	transientInUse  int
	transientPeak   int

	cached          []*CachedPoseBuffer
	firstFreeCached int
	pendingDestroy  []int

	debug debugRecorder
}

var _ PoseBufferPool = &poseBufferPool{}

// NewPoseBufferPool creates a pool bound to the skeleton. Panics if the skeleton is nil.
//
// Parameters:
//   - skeleton: the skeleton every buffer is bound to
//   - options: functional options applied before the collections are allocated
//
// Returns:
//   - PoseBufferPool: the new pool
func NewPoseBufferPool(skeleton *model.Skeleton, options ...PoseBufferPoolBuilderOption) PoseBufferPool {
	if skeleton == nil {
		panic("task: NewPoseBufferPool requires a non-nil Skeleton")
	}

	p := &poseBufferPool{
		skeleton:       skeleton,
		initialBuffers: DefaultInitialBufferCount,
		growAmount:     DefaultGrowAmount,
		pendingDestroy: make([]int, 0, 4),
	}

	for _, option := range options {
		option(p)
	}

	if p.log == nil {
		p.log = logger.Named("pose_pool")
	}
	if p.label != "" {
		p.log = p.log.With(zap.String("pool", p.label))
	}
	if p.initialBuffers > MaxPoseBuffers {
		panic("task: NewPoseBufferPool initial buffer count exceeds MaxPoseBuffers")
	}

	p.buffers = make([]*PoseBuffer, p.initialBuffers, p.initialBuffers+p.growAmount)
	p.cached = make([]*CachedPoseBuffer, p.initialBuffers)
	for i := 0; i < p.initialBuffers; i++ {
		p.buffers[i] = newPoseBuffer(skeleton)
		p.cached[i] = newCachedPoseBuffer(skeleton)
	}
	p.debug.init(skeleton, p.initialBuffers)

	return p
}

func (p *poseBufferPool) Skeleton() *model.Skeleton {
	return p.skeleton
}

func (p *poseBufferPool) Reset() {
	if p.transientPeak > 0 {
		metrics.PoseBuffersPeak.Observe(float64(p.transientPeak))
	}

	for _, b := range p.buffers {
		b.Reset()
	}
	p.firstFreeBuffer = 0
	p.transientInUse = 0
	p.transientPeak = 0

	for _, slot := range p.pendingDestroy {
		p.log.Debug("reclaiming cached pose", zap.Int("slot", slot), zap.Stringer("id", p.cached[slot].id))
		p.cached[slot].Reset()
		p.firstFreeCached = min(p.firstFreeCached, slot)
		metrics.CachedPosesLive.Dec()
	}
	p.pendingDestroy = p.pendingDestroy[:0]

	p.debug.reset()
}

func (p *poseBufferPool) Close() {
	released := 0
	for _, b := range p.cached {
		if !b.inUse {
			continue
		}
		b.Reset()
		metrics.CachedPosesLive.Dec()
		released++
	}
	p.pendingDestroy = p.pendingDestroy[:0]
	p.firstFreeCached = 0

	for _, b := range p.buffers {
		b.Reset()
	}
	p.firstFreeBuffer = 0
	p.transientInUse = 0
	p.transientPeak = 0

	p.debug.reset()
	p.log.Debug("pool closed", zap.Int("cached_released", released))
}

func (p *poseBufferPool) RequestPoseBuffer() PoseBufferIndex {
	if p.firstFreeBuffer == len(p.buffers) {
		newSize := p.grow(collectionTransient, len(p.buffers))
		for len(p.buffers) < newSize {
			p.buffers = append(p.buffers, newPoseBuffer(p.skeleton))
		}
	}

	idx := p.firstFreeBuffer
	b := p.buffers[idx]
	if b.inUse {
		violate(p.log, OpRequest, "free cursor points at in-use buffer %d", idx)
	}
	b.inUse = true

	p.transientInUse++
	p.transientPeak = max(p.transientPeak, p.transientInUse)

	for p.firstFreeBuffer < len(p.buffers) && p.buffers[p.firstFreeBuffer].inUse {
		p.firstFreeBuffer++
	}

	return PoseBufferIndex(idx)
}

func (p *poseBufferPool) ReleasePoseBuffer(idx PoseBufferIndex) {
	if int(idx) >= len(p.buffers) {
		violate(p.log, OpRelease, "buffer %d is outside the pool (%d buffers)", idx, len(p.buffers))
	}
	b := p.buffers[idx]
	if !b.inUse {
		violate(p.log, OpRelease, "buffer %d is not in use", idx)
	}
	b.inUse = false

	p.transientInUse--
	p.firstFreeBuffer = min(p.firstFreeBuffer, int(idx))
}

func (p *poseBufferPool) PoseBuffer(idx PoseBufferIndex) *PoseBuffer {
	if int(idx) >= len(p.buffers) {
		violate(p.log, OpAccess, "buffer %d is outside the pool (%d buffers)", idx, len(p.buffers))
	}
	return p.buffers[idx]
}

func (p *poseBufferPool) Lease() PoseLease {
	return PoseLease{pool: p, index: p.RequestPoseBuffer()}
}

func (p *poseBufferPool) CreateCachedPoseBuffer() CachedPoseID {
	if p.firstFreeCached == len(p.cached) {
		newSize := p.grow(collectionCached, len(p.cached))
		for len(p.cached) < newSize {
			p.cached = append(p.cached, newCachedPoseBuffer(p.skeleton))
		}
	}

	slot := p.firstFreeCached
	b := p.cached[slot]
	if b.inUse {
		violate(p.log, OpCreateCached, "free cursor points at in-use cached buffer %d", slot)
	}
	b.id = NewCachedPoseID()
	b.inUse = true

	for p.firstFreeCached < len(p.cached) && p.cached[p.firstFreeCached].inUse {
		p.firstFreeCached++
	}

	metrics.CachedPosesLive.Inc()
	p.log.Debug("cached pose created", zap.Int("slot", slot), zap.Stringer("id", b.id))
	return b.id
}

func (p *poseBufferPool) DestroyCachedPoseBuffer(id CachedPoseID) {
	slot := p.findCached(OpDestroyCached, id)
	if slices.Contains(p.pendingDestroy, slot) {
		return
	}
	p.pendingDestroy = append(p.pendingDestroy, slot)
}

func (p *poseBufferPool) GetCachedPoseBuffer(id CachedPoseID) *PoseBuffer {
	return &p.cached[p.findCached(OpGetCached, id)].PoseBuffer
}

func (p *poseBufferPool) RecordPose(idx PoseBufferIndex) PoseBufferIndex {
	if !p.debug.isEnabled() {
		return InvalidPoseBufferIndex
	}
	if int(idx) >= len(p.buffers) || !p.buffers[idx].inUse {
		violate(p.log, OpRecord, "buffer %d is not in use", idx)
	}
	if p.debug.full() {
		p.debug.grow(p.grow(collectionDebug, p.debug.size()))
	}
	return p.debug.record(p.buffers[idx])
}

func (p *poseBufferPool) GetRecordedPose(idx PoseBufferIndex) *PoseBuffer {
	if int(idx) >= p.debug.size() {
		violate(p.log, OpGetRecorded, "debug buffer %d is outside the debug collection (%d buffers)", idx, p.debug.size())
	}
	return p.debug.buffer(idx)
}

func (p *poseBufferPool) RecordedPoseCount() int {
	return p.debug.recorded()
}

func (p *poseBufferPool) SetDebugRecordingEnabled(enabled bool) {
	p.debug.setEnabled(enabled)
}

func (p *poseBufferPool) IsDebugRecordingEnabled() bool {
	return p.debug.isEnabled()
}

func (p *poseBufferPool) Stats() PoolStats {
	cachedInUse := 0
	for _, b := range p.cached {
		if b.inUse {
			cachedInUse++
		}
	}
	return PoolStats{
		TransientBuffers:   len(p.buffers),
		TransientInUse:     p.transientInUse,
		CachedBuffers:      len(p.cached),
		CachedInUse:        cachedInUse,
		PendingDestroys:    len(p.pendingDestroy),
		DebugBuffers:       p.debug.size(),
		RecordedPoses:      p.debug.recorded(),
		PeakTransientInUse: p.transientPeak,
	}
}

// grow returns the size a collection grows to, panicking when it would pass MaxPoseBuffers.
func (p *poseBufferPool) grow(collection string, size int) int {
	newSize := size + p.growAmount
	if newSize > MaxPoseBuffers {
		violate(p.log, OpGrow, "%s collection cannot grow from %d to %d buffers, the limit is %d",
			collection, size, newSize, MaxPoseBuffers)
	}

	metrics.IncPoseBufferGrowth(collection)
	p.log.Debug("pose buffer collection grown",
		zap.String("collection", collection),
		zap.Int("from", size),
		zap.Int("to", newSize),
	)
	return newSize
}

// findCached returns the slot of the live cached buffer with the given identity.
func (p *poseBufferPool) findCached(op string, id CachedPoseID) int {
	if !id.IsValid() {
		violate(p.log, op, "invalid cached pose id")
	}
	for i, b := range p.cached {
		if b.inUse && b.id == id {
			return i
		}
	}
	violate(p.log, op, "unknown cached pose %s", id)
	return -1
}
