package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// MatrixSize is the byte size of one skinning matrix (16 float32 values).
const MatrixSize = 16 * 4

// SkinningBuffer holds the skinning matrix palette of one skeleton: for every bone, its model space
// transform multiplied by its inverse bind matrix. The palette lives in reusable staging memory so a
// per-frame Update performs no heap allocations.
type SkinningBuffer interface {
	// Skeleton returns the skeleton the palette is sized for.
	Skeleton() *model.Skeleton

	// BoneCount returns the number of matrices in the palette.
	BoneCount() int

	// Update recomputes the palette from a pose. Panics if the pose is bound to another skeleton.
	//
	// Parameters:
	//   - p: the pose to skin with
	Update(p *pose.Pose)

	// Matrices returns the palette as column-major float32 matrices, 16 values per bone.
	// The slice is reused by the next Update.
	Matrices() []float32

	// Matrix returns the skinning matrix of one bone.
	//
	// Parameters:
	//   - bone: the bone index
	//
	// Returns:
	//   - [16]float32: the column-major skinning matrix
	Matrix(bone int) [16]float32

	// Bytes returns a byte view of the palette suitable for a GPU upload. It aliases Matrices.
	Bytes() []byte

	// Size returns the byte size of the palette.
	Size() uint64

	// CreateBuffer creates a storage buffer large enough for the palette.
	//
	// Parameters:
	//   - device: the device to create the buffer on
	//   - label: the debug label of the buffer
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if buffer creation fails
	CreateBuffer(device *wgpu.Device, label string) (*wgpu.Buffer, error)

	// Upload writes the palette into a GPU buffer through the queue.
	//
	// Parameters:
	//   - queue: the device queue
	//   - buffer: the destination buffer, at least offset + Size bytes
	//   - offset: the byte offset of the palette in the buffer
	Upload(queue *wgpu.Queue, buffer *wgpu.Buffer, offset uint64)
}

// skinningBuffer is the implementation of the SkinningBuffer interface.
type skinningBuffer struct {
	skeleton *model.Skeleton
	matrices []float32
	global   [16]float32
}

var _ SkinningBuffer = &skinningBuffer{}

// NewSkinningBuffer creates a palette for the skeleton, initialized to identity matrices.
// Panics if the skeleton is nil.
//
// Parameters:
//   - skeleton: the skeleton to size the palette for
//
// Returns:
//   - SkinningBuffer: the new palette
func NewSkinningBuffer(skeleton *model.Skeleton) SkinningBuffer {
	if skeleton == nil {
		panic("skinning: NewSkinningBuffer requires a non-nil Skeleton")
	}
	s := &skinningBuffer{
		skeleton: skeleton,
		matrices: make([]float32, 16*skeleton.BoneCount()),
	}
	for i := 0; i < skeleton.BoneCount(); i++ {
		common.Identity(s.matrices[i*16 : i*16+16])
	}
	return s
}

func (s *skinningBuffer) Skeleton() *model.Skeleton {
	return s.skeleton
}

func (s *skinningBuffer) BoneCount() int {
	return s.skeleton.BoneCount()
}

func (s *skinningBuffer) Update(p *pose.Pose) {
	if p.Skeleton() != s.skeleton {
		panic("skinning: Update requires a pose bound to the buffer's Skeleton")
	}

	p.CalculateGlobalTransforms()
	for i := range s.skeleton.Bones {
		s.global = p.GlobalTransform(i)
		common.Mul4(s.matrices[i*16:i*16+16], s.global[:], s.skeleton.Bones[i].InverseBindMatrix[:])
	}
}

func (s *skinningBuffer) Matrices() []float32 {
	return s.matrices
}

func (s *skinningBuffer) Matrix(bone int) [16]float32 {
	var m [16]float32
	copy(m[:], s.matrices[bone*16:bone*16+16])
	return m
}

func (s *skinningBuffer) Bytes() []byte {
	return common.SliceToBytes(s.matrices)
}

func (s *skinningBuffer) Size() uint64 {
	return uint64(s.skeleton.BoneCount()) * MatrixSize
}

func (s *skinningBuffer) CreateBuffer(device *wgpu.Device, label string) (*wgpu.Buffer, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  s.Size(),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("skinning: failed to create palette buffer %q: %w", label, err)
	}
	return buf, nil
}

func (s *skinningBuffer) Upload(queue *wgpu.Queue, buffer *wgpu.Buffer, offset uint64) {
	data := s.Bytes()
	queue.WriteBuffer(buffer, offset, data)
	metrics.SkinningBytesUploaded.Add(float64(len(data)))
}
