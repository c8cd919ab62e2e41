//go:build release

package task

import "github.com/Carmen-Shannon/oxy-anim/engine/model"

// debugRecorder is empty in release builds; pools never record poses.
type debugRecorder struct{}

func (debugRecorder) init(*model.Skeleton, int)          {}
func (debugRecorder) setEnabled(bool)                    {}
func (debugRecorder) isEnabled() bool                    { return false }
func (debugRecorder) reset()                             {}
func (debugRecorder) size() int                          { return 0 }
func (debugRecorder) recorded() int                      { return 0 }
func (debugRecorder) full() bool                         { return false }
func (debugRecorder) grow(int)                           {}
func (debugRecorder) record(*PoseBuffer) PoseBufferIndex { return InvalidPoseBufferIndex }
func (debugRecorder) buffer(PoseBufferIndex) *PoseBuffer { return nil }
