//go:build !release

package task

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// debugRecorder holds the debug buffer collection. Recorded data is never scrubbed, only overwritten.
type debugRecorder struct {
	skeleton  *model.Skeleton
	enabled   bool
	buffers   []*PoseBuffer
	firstFree int
}

func (d *debugRecorder) init(skeleton *model.Skeleton, count int) {
	d.skeleton = skeleton
	d.buffers = make([]*PoseBuffer, count)
	for i := range d.buffers {
		d.buffers[i] = newPoseBuffer(skeleton)
	}
}

func (d *debugRecorder) setEnabled(enabled bool) {
	d.enabled = enabled
}

func (d *debugRecorder) isEnabled() bool {
	return d.enabled
}

func (d *debugRecorder) reset() {
	d.firstFree = 0
}

func (d *debugRecorder) size() int {
	return len(d.buffers)
}

func (d *debugRecorder) recorded() int {
	return d.firstFree
}

func (d *debugRecorder) full() bool {
	return d.firstFree == len(d.buffers)
}

func (d *debugRecorder) grow(newSize int) {
	for len(d.buffers) < newSize {
		d.buffers = append(d.buffers, newPoseBuffer(d.skeleton))
	}
}

func (d *debugRecorder) record(src *PoseBuffer) PoseBufferIndex {
	idx := d.firstFree
	d.buffers[idx].CopyFrom(src)
	d.firstFree++
	metrics.PosesRecorded.Inc()
	return PoseBufferIndex(idx)
}

func (d *debugRecorder) buffer(idx PoseBufferIndex) *PoseBuffer {
	return d.buffers[idx]
}
