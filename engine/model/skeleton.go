package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// NewSkeleton validates a topologically sorted bone list and builds a Skeleton from it.
// Every bone must have a unique, non-empty name and a ParentIndex of -1 or of a bone that
// appears earlier in the list. When no bone carries an inverse bind matrix, the matrices are
// derived from the bind pose stored in each bone's LocalTransform.
//
// Parameters:
//   - bones: the bones in parent-before-child order
//
// Returns:
//   - *Skeleton: the validated skeleton
//   - error: an error describing the first invalid bone
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	if len(bones) == 0 {
		return nil, fmt.Errorf("model: skeleton requires at least one bone")
	}

	s := &Skeleton{
		Bones:           make([]Bone, len(bones)),
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	copy(s.Bones, bones)

	hasInverseBind := false
	for i, bone := range s.Bones {
		if bone.Name == "" {
			return nil, fmt.Errorf("model: bone %d has no name", i)
		}
		if _, exists := s.BoneNameToIndex[bone.Name]; exists {
			return nil, fmt.Errorf("model: duplicate bone name %q", bone.Name)
		}
		if bone.ParentIndex < -1 || bone.ParentIndex >= int32(i) {
			return nil, fmt.Errorf("model: bone %q has parent %d, parents must precede their children", bone.Name, bone.ParentIndex)
		}
		s.BoneNameToIndex[bone.Name] = int32(i)
		if bone.ParentIndex == -1 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		if bone.InverseBindMatrix != ([16]float32{}) {
			hasInverseBind = true
		}
	}

	if !hasInverseBind {
		if err := s.deriveInverseBindMatrices(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// deriveInverseBindMatrices computes each bone's inverse bind matrix from the bind pose.
func (s *Skeleton) deriveInverseBindMatrices() error {
	globals := make([][16]float32, len(s.Bones))
	var local [16]float32
	for i := range s.Bones {
		b := &s.Bones[i]
		common.ComposeTRS(local[:], b.LocalTransform.Translation, common.QuatNormalize(b.LocalTransform.Rotation), b.LocalTransform.Scale)
		if b.ParentIndex < 0 {
			globals[i] = local
		} else {
			common.Mul4(globals[i][:], globals[b.ParentIndex][:], local[:])
		}
		if !common.Invert4(b.InverseBindMatrix[:], globals[i][:]) {
			return fmt.Errorf("model: bone %q has a singular bind transform", b.Name)
		}
	}
	return nil
}

// BoneCount returns the number of bones in the skeleton.
func (s *Skeleton) BoneCount() int {
	return len(s.Bones)
}

// ParentIndex returns the parent of the bone at index, or -1 for a root bone.
func (s *Skeleton) ParentIndex(index int) int32 {
	return s.Bones[index].ParentIndex
}

// ReferenceTransform returns the bind pose transform of the bone at index.
func (s *Skeleton) ReferenceTransform(index int) Transform {
	return s.Bones[index].LocalTransform
}

// BoneIndex returns the index of the named bone, or -1 if the skeleton has no such bone.
func (s *Skeleton) BoneIndex(name string) int32 {
	if idx, ok := s.BoneNameToIndex[name]; ok {
		return idx
	}
	return -1
}
