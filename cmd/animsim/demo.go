package main

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// demoClips holds the procedural clips shared by every simulated character.
type demoClips struct {
	sway *model.AnimationClip
	bob  *model.AnimationClip
	nod  *model.AnimationClip
}

// zRotation returns a quaternion rotating by degrees about the Z axis.
func zRotation(degrees float64) [4]float32 {
	half := degrees * math.Pi / 360
	return [4]float32{0, 0, float32(math.Sin(half)), float32(math.Cos(half))}
}

// xRotation returns a quaternion rotating by degrees about the X axis.
func xRotation(degrees float64) [4]float32 {
	half := degrees * math.Pi / 360
	return [4]float32{float32(math.Sin(half)), 0, 0, float32(math.Cos(half))}
}

// newDemoClips builds looping clips over the skeleton: a sway of the first child bone, a bob of
// the root and a nod of the last bone.
func newDemoClips(skel *model.Skeleton) demoClips {
	last := int32(skel.BoneCount() - 1)
	swayBone := min(int32(1), last)
	root := skel.ReferenceTransform(0).Translation

	return demoClips{
		sway: &model.AnimationClip{
			Name:     "sway",
			Duration: 2,
			Channels: []model.AnimationChannel{{
				BoneIndex: swayBone,
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: zRotation(-15)},
					{Time: 1, Value: zRotation(15)},
					{Time: 2, Value: zRotation(-15)},
				},
			}},
		},
		bob: &model.AnimationClip{
			Name:     "bob",
			Duration: 1,
			Channels: []model.AnimationChannel{{
				BoneIndex: 0,
				PositionKeys: []model.VectorKeyframe{
					{Time: 0, Value: root},
					{Time: 0.5, Value: [3]float32{root[0], root[1] + 0.1, root[2]}},
					{Time: 1, Value: root},
				},
			}},
		},
		nod: &model.AnimationClip{
			Name:     "nod",
			Duration: 1.5,
			Channels: []model.AnimationChannel{{
				BoneIndex: last,
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: xRotation(0)},
					{Time: 0.75, Value: xRotation(25)},
					{Time: 1.5, Value: xRotation(0)},
				},
			}},
		},
	}
}

// newDemoGraph builds one of three graph shapes for the i-th character, with clip playback offset
// so characters do not move in lockstep.
func newDemoGraph(clips demoClips, i int) (graph.Graph, error) {
	offset := float32(i) * 0.1
	clip := func(c *model.AnimationClip) *graph.ClipNode {
		n := graph.NewClipNode(c, true)
		n.SetTime(offset)
		return n
	}

	var root graph.Node
	switch i % 3 {
	case 0:
		root = &graph.CachedPoseNode{Input: &graph.BlendNode{
			Source: clip(clips.sway),
			Target: clip(clips.nod),
			Weight: 0.5,
		}}
	case 1:
		root = &graph.BlendNode{
			Source: clip(clips.bob),
			Target: &graph.PoseNode{},
			Weight: 0.25,
		}
	default:
		// trail the sway by blending in the previous frame's result
		cache := &graph.CachedPoseNode{Input: clip(clips.sway)}
		root = &graph.BlendNode{
			Source: &graph.CachedPoseReadNode{Source: cache},
			Target: cache,
			Weight: 0.5,
		}
	}

	g, err := graph.NewGraph(root)
	if err != nil {
		return nil, fmt.Errorf("character %d: %w", i, err)
	}
	return g, nil
}
