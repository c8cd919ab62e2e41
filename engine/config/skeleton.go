package config

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// SkeletonConfig describes a skeleton as an ordered bone list, parents before children
type SkeletonConfig struct {
	Bones []BoneConfig `yaml:"bones"`
}

// BoneConfig describes one bone and its bind pose relative to its parent
type BoneConfig struct {
	// Bone name, unique within the skeleton
	Name string `yaml:"name"`

	// Name of the parent bone, empty for a root bone
	Parent string `yaml:"parent"`

	Translation [3]float32 `yaml:"translation"`

	// Rotation quaternion (x, y, z, w), all zero means identity
	Rotation [4]float32 `yaml:"rotation"`

	// Scale, all zero means unit scale
	Scale [3]float32 `yaml:"scale"`
}

// DefaultSkeleton returns a four bone chain used when no skeleton is configured
func DefaultSkeleton() SkeletonConfig {
	return SkeletonConfig{Bones: []BoneConfig{
		{Name: "root"},
		{Name: "spine", Parent: "root", Translation: [3]float32{0, 1, 0}},
		{Name: "neck", Parent: "spine", Translation: [3]float32{0, 0.5, 0}},
		{Name: "head", Parent: "neck", Translation: [3]float32{0, 0.25, 0}},
	}}
}

// Build converts the configured bone list into a validated skeleton
func (c SkeletonConfig) Build() (*model.Skeleton, error) {
	bones := make([]model.Bone, len(c.Bones))
	indices := make(map[string]int32, len(c.Bones))

	for i, b := range c.Bones {
		parent := int32(-1)
		if b.Parent != "" {
			idx, ok := indices[b.Parent]
			if !ok {
				return nil, fmt.Errorf("bone %q references parent %q which is not declared before it", b.Name, b.Parent)
			}
			parent = idx
		}

		t := model.IdentityTransform
		t.Translation = b.Translation
		if b.Rotation != ([4]float32{}) {
			t.Rotation = b.Rotation
		}
		if b.Scale != ([3]float32{}) {
			t.Scale = b.Scale
		}

		bones[i] = model.Bone{Name: b.Name, ParentIndex: parent, LocalTransform: t}
		if b.Name != "" {
			indices[b.Name] = int32(i)
		}
	}

	return model.NewSkeleton(bones)
}
