package driver

// unsupportedArchError signals a target name that parses to no known
// architecture.
type unsupportedArchError struct{ name string }

func (e unsupportedArchError) Error() string { return "unsupported device architecture: " + e.name }

// ErrUnsupportedArch constructs an unsupportedArchError.
func ErrUnsupportedArch(name string) error { return unsupportedArchError{name: name} }

// IsUnsupportedArch reports whether err indicates an unknown target name.
func IsUnsupportedArch(err error) bool {
	_, ok := err.(unsupportedArchError)
	return ok
}

// noArtifactsError signals that every requested architecture failed, so
// there is nothing to package.
type noArtifactsError struct{}

func (noArtifactsError) Error() string { return "no device artifacts were produced" }

// ErrNoArtifacts constructs a noArtifactsError.
func ErrNoArtifacts() error { return noArtifactsError{} }

// IsNoArtifacts reports whether err indicates an empty packaging set.
func IsNoArtifacts(err error) bool {
	_, ok := err.(noArtifactsError)
	return ok
}
