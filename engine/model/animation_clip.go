package model

import (
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// WrapTime maps time onto the clip's duration. Looping clips wrap around, non-looping clips clamp.
//
// Parameters:
//   - time: the playback time in seconds
//   - loop: whether the clip loops
//
// Returns:
//   - float32: the time within [0, Duration]
func (c *AnimationClip) WrapTime(time float32, loop bool) float32 {
	if c.Duration <= 0 {
		return 0
	}
	if loop {
		time = float32(math.Mod(float64(time), float64(c.Duration)))
		if time < 0 {
			time += c.Duration
		}
		return time
	}
	if time < 0 {
		return 0
	}
	if time > c.Duration {
		return c.Duration
	}
	return time
}

// Sample evaluates every channel of the clip at the given time and writes the result into out,
// indexed by bone. Bones without a channel, and channel components without keys, keep the value
// already present in out. Channels addressing bones outside out are ignored.
//
// Parameters:
//   - time: the playback time in seconds
//   - loop: whether time wraps around the clip duration
//   - out: the per-bone local transforms to write into
func (c *AnimationClip) Sample(time float32, loop bool, out []Transform) {
	t := c.WrapTime(time, loop)
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(out) {
			continue
		}
		dst := &out[ch.BoneIndex]
		if len(ch.PositionKeys) > 0 {
			dst.Translation = sampleVectorKeys(ch.PositionKeys, t)
		}
		if len(ch.RotationKeys) > 0 {
			dst.Rotation = sampleQuaternionKeys(ch.RotationKeys, t)
		}
		if len(ch.ScaleKeys) > 0 {
			dst.Scale = sampleVectorKeys(ch.ScaleKeys, t)
		}
	}
}

func sampleVectorKeys(keys []VectorKeyframe, t float32) [3]float32 {
	next := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	if next == 0 {
		return keys[0].Value
	}
	if next == len(keys) {
		return keys[len(keys)-1].Value
	}
	a, b := keys[next-1], keys[next]
	return common.Lerp3(a.Value, b.Value, segmentFactor(a.Time, b.Time, t))
}

func sampleQuaternionKeys(keys []QuaternionKeyframe, t float32) [4]float32 {
	next := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	if next == 0 {
		return common.QuatNormalize(keys[0].Value)
	}
	if next == len(keys) {
		return common.QuatNormalize(keys[len(keys)-1].Value)
	}
	a, b := keys[next-1], keys[next]
	return common.QuatSlerp(common.QuatNormalize(a.Value), common.QuatNormalize(b.Value), segmentFactor(a.Time, b.Time, t))
}

func segmentFactor(start, end, t float32) float32 {
	span := end - start
	if span <= 0 {
		return 0
	}
	return (t - start) / span
}
