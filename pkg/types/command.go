package types

// ArtifactKind classifies a file flowing between pipeline stages.
type ArtifactKind int

const (
	ArtifactUnknown ArtifactKind = iota
	// ArtifactBitcode is device LLVM bitcode (backend input).
	ArtifactBitcode
	// ArtifactPTX is textual device IR; the packager tags it with the
	// virtual architecture profile.
	ArtifactPTX
	// ArtifactObject is a native relocatable object for one device.
	ArtifactObject
	// ArtifactCodeObject is a shared HSA code object (gfx family).
	ArtifactCodeObject
	// ArtifactFatbin is the packaged multi-architecture blob.
	ArtifactFatbin
)

// Artifact is one per-architecture input or output of a pipeline stage.
type Artifact struct {
	Path string       `json:"path"`
	Arch Arch         `json:"arch"`
	Kind ArtifactKind `json:"kind"`
}

// CommandSpec is one external tool invocation, as a pure value. Temporary
// files it references are owned by the pipeline session, not the command.
type CommandSpec struct {
	Executable string   `json:"executable"`
	Args       []string `json:"args"`
	// Inputs lists files the tool reads; each must be produced by an
	// earlier command or supplied by the caller.
	Inputs []string `json:"inputs"`
	// Outputs lists files the tool writes.
	Outputs []string `json:"outputs"`
}
