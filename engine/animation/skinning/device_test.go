package skinning

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// headlessDevice returns a GPU device or skips the test when the machine has no adapter.
func headlessDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := NewHeadlessDevice(false)
	if err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

func TestSkinningBuffer_UploadToDevice(t *testing.T) {
	dev := headlessDevice(t)
	skel := testSkeleton(t)
	s := NewSkinningBuffer(skel)
	s.Update(pose.NewPose(skel, pose.TypeReferencePose))

	buf, err := s.CreateBuffer(dev.Device(), "palette")
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer buf.Release()
	if buf.GetSize() != s.Size() {
		t.Errorf("expected a %d byte buffer, got %d", s.Size(), buf.GetSize())
	}

	before := testutil.ToFloat64(metrics.SkinningBytesUploaded)
	s.Upload(dev.Queue(), buf, 0)
	if got := testutil.ToFloat64(metrics.SkinningBytesUploaded) - before; got != float64(s.Size()) {
		t.Errorf("expected %d uploaded bytes, got %v", s.Size(), got)
	}
}

func TestDevice_ReleaseTwice(t *testing.T) {
	dev, err := NewHeadlessDevice(false)
	if err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}
	dev.Release()
	dev.Release()
	if dev.Device() != nil {
		t.Errorf("a released device should not be handed out")
	}
}
