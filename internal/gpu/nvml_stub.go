//go:build !cuda

package gpu

// DetectArchs is a no-op without NVML support compiled in.
func DetectArchs() ([]string, error) { return nil, nil }
