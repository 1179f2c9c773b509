//go:build cuda

package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlLib is the narrow NVML surface used here, split out for mocking.
type nvmlLib interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceCapability(index int) (int, int, nvml.Return)
}

type realNVML struct{}

func (realNVML) Init() nvml.Return     { return nvml.Init() }
func (realNVML) Shutdown() nvml.Return { return nvml.Shutdown() }

func (realNVML) DeviceGetCount() (int, nvml.Return) { return nvml.DeviceGetCount() }

func (realNVML) DeviceCapability(index int) (int, int, nvml.Return) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return 0, 0, ret
	}
	return dev.GetCudaComputeCapability()
}

// DetectArchs enumerates attached devices and returns their physical
// architecture names. An absent or failing NVML library is an error the
// caller downgrades to "no defaults".
func DetectArchs() ([]string, error) {
	return detectArchs(realNVML{})
}

func detectArchs(lib nvmlLib) ([]string, error) {
	if ret := lib.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml init: %s", nvml.ErrorString(ret))
	}
	defer lib.Shutdown()

	count, ret := lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml device count: %s", nvml.ErrorString(ret))
	}
	var caps []Capability
	for i := 0; i < count; i++ {
		major, minor, ret := lib.DeviceCapability(i)
		if ret != nvml.SUCCESS {
			continue
		}
		caps = append(caps, Capability{Major: major, Minor: minor})
	}
	return ArchNames(caps), nil
}
