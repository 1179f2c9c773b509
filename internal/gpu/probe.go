// Package gpu probes locally attached devices so the driver can pick
// default target architectures when the user requests none.
package gpu

import (
	"fmt"
	"sort"

	"offloadtc/pkg/types"
)

// Capability is one device's compute capability.
type Capability struct {
	Major int
	Minor int
}

// ArchNames converts probed capabilities into physical architecture
// names, deduplicated and limited to targets the driver knows how to
// compile for.
func ArchNames(caps []Capability) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range caps {
		name := fmt.Sprintf("sm_%d%d", c.Major, c.Minor)
		if seen[name] {
			continue
		}
		seen[name] = true
		if types.ParseArch(name).IsUnknown() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
