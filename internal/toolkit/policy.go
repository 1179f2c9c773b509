package toolkit

import (
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

// CheckVersionSupportsArch diagnoses a toolkit too old for the requested
// architecture, at most once per architecture for this detector's
// lifetime. Unknown architectures and an unknown detected version are
// skipped: without real version information there is nothing to assert.
func (t *Detector) CheckVersionSupportsArch(arch types.Arch) {
	if arch.IsUnknown() || t.version == types.VersionUnknown {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.warned[arch.Name] {
		return
	}
	required := types.MinVersionFor(arch)
	if t.version < required {
		t.warned[arch.Name] = true
		t.d.Errorf(diag.CodeVersionTooLow,
			"toolkit installation at %s does not support %s: detected version %s, need %s or newer",
			t.installPath, arch.Name, t.version, required)
	}
}
