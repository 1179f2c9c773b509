package types

import (
	"strconv"
	"strings"
)

// Family discriminates the two accelerator target families.
type Family int

const (
	FamilyUnknown Family = iota
	// FamilyNumbered covers compute-capability targets: virtual
	// (compute_MM) and physical (sm_MM) forms.
	FamilyNumbered
	// FamilyCodeObject covers gfx-prefixed GPU code-object targets.
	FamilyCodeObject
)

// Arch is a parsed device target. The family is resolved once, at parse
// time; downstream code switches on Family and never re-inspects the raw
// string.
type Arch struct {
	// Name is the canonical spelling, e.g. "sm_35", "compute_50", "gfx900".
	Name   string `json:"name"`
	Family Family `json:"family"`
	// Major and Minor hold the compute capability for the numbered family;
	// both are zero for code objects.
	Major int `json:"major,omitempty"`
	Minor int `json:"minor,omitempty"`
	// Virtual marks compute_MM names (IR targets) as opposed to sm_MM.
	Virtual bool `json:"virtual,omitempty"`
}

func (a Arch) String() string { return a.Name }

// IsUnknown reports whether a is the zero/unparsed architecture.
func (a Arch) IsUnknown() bool { return a.Family == FamilyUnknown }

// knownCapabilities lists the compute capabilities the driver recognizes.
var knownCapabilities = map[int]bool{
	20: true, 21: true,
	30: true, 32: true, 35: true, 37: true,
	50: true, 52: true, 53: true,
	60: true, 61: true, 62: true,
}

// ParseArch resolves a user-supplied target name into its tagged form.
// Unrecognized names yield the zero Arch.
func ParseArch(name string) Arch {
	switch {
	case strings.HasPrefix(name, "gfx"):
		if len(name) == len("gfx") {
			return Arch{}
		}
		return Arch{Name: name, Family: FamilyCodeObject}
	case strings.HasPrefix(name, "sm_"):
		return parseCapability(name, strings.TrimPrefix(name, "sm_"), false)
	case strings.HasPrefix(name, "compute_"):
		return parseCapability(name, strings.TrimPrefix(name, "compute_"), true)
	}
	return Arch{}
}

func parseCapability(name, digits string, virtual bool) Arch {
	cc, err := strconv.Atoi(digits)
	if err != nil || !knownCapabilities[cc] {
		return Arch{}
	}
	return Arch{
		Name:    name,
		Family:  FamilyNumbered,
		Major:   cc / 10,
		Minor:   cc % 10,
		Virtual: virtual,
	}
}

// VirtualFor returns the virtual (compute_MM) counterpart of a numbered
// architecture. sm_21 has no compute_21 library form and maps down to
// compute_20; every other capability maps to itself.
func VirtualFor(a Arch) Arch {
	if a.Family != FamilyNumbered || a.Virtual {
		return a
	}
	cc := a.Major*10 + a.Minor
	if cc == 21 {
		cc = 20
	}
	return ParseArch("compute_" + strconv.Itoa(cc))
}

// MinVersionFor returns the oldest toolkit release that can target the
// given architecture. Code-object targets ship their libraries out of
// tree and carry no toolkit minimum.
func MinVersionFor(a Arch) Version {
	if a.Family == FamilyNumbered && a.Major >= 6 {
		return Version80
	}
	return Version70
}
