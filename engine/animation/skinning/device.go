package skinning

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a GPU device created without a surface, used to hold and upload skinning palettes
// when no renderer owns the GPU.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewHeadlessDevice requests an adapter and a device with default limits.
//
// Parameters:
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - *Device: the device, released with Release
//   - error: an error if no adapter or device is available
func NewHeadlessDevice(forceFallbackAdapter bool) (*Device, error) {
	instance := wgpu.CreateInstance(nil)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("skinning: failed to request adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Skinning Device",
	})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, fmt.Errorf("skinning: failed to request device: %w", err)
	}

	return &Device{
		instance: instance,
		adapter:  a,
		device:   d,
		queue:    d.GetQueue(),
	}, nil
}

// Device returns the underlying wgpu device.
func (d *Device) Device() *wgpu.Device {
	return d.device
}

// Queue returns the device queue palettes are written through.
func (d *Device) Queue() *wgpu.Queue {
	return d.queue
}

// Release frees the device, its adapter and its instance.
func (d *Device) Release() {
	if d.device == nil {
		return
	}
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
	d.device = nil
}
