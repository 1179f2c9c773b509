package types

// Version identifies a detected toolkit release. Values are totally
// ordered; the zero value is VersionUnknown and never satisfies a
// minimum-version requirement check (the policy layer skips it).
type Version int

const (
	VersionUnknown Version = iota
	Version70
	Version75
	Version80
)

func (v Version) String() string {
	switch v {
	case Version70:
		return "7.0"
	case Version75:
		return "7.5"
	case Version80:
		return "8.0"
	}
	return "unknown"
}
