// Package driver orchestrates one offload compilation: detection,
// per-architecture argument translation, stage construction, and final
// packaging.
package driver

import (
	"path/filepath"
	"strings"

	"offloadtc/internal/argv"
	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
	"offloadtc/internal/pipeline"
	"offloadtc/internal/toolkit"
	"offloadtc/pkg/types"
)

// defaultArch is targeted when the user requests nothing and no GPU was
// probed.
const defaultArch = "sm_20"

// Driver ties the detector and pipeline builder together for one
// compilation session.
type Driver struct {
	fs   vfs.Provider
	d    *diag.Engine
	host toolkit.HostInfo
	tk   *toolkit.Detector
	b    *pipeline.Builder
}

// New runs installation detection once and returns a driver bound to its
// result.
func New(fs vfs.Provider, d *diag.Engine, host toolkit.HostInfo, args argv.List) *Driver {
	tk := toolkit.Detect(fs, d, host, args)
	return &Driver{
		fs:   fs,
		d:    d,
		host: host,
		tk:   tk,
		b:    pipeline.NewBuilder(fs, d, tk, host),
	}
}

// Toolkit exposes the detection result.
func (dr *Driver) Toolkit() *toolkit.Detector { return dr.tk }

// Archs resolves the requested target list: explicit --cuda-gpu-arch
// values, deduplicated in order, then fallback, then the fixed default.
// Unparseable names are diagnosed and fail the compilation.
func (dr *Driver) Archs(args argv.List, fallback []string) ([]types.Arch, error) {
	names := args.AllValues(argv.OptGPUArch)
	if len(names) == 0 {
		names = fallback
	}
	if len(names) == 0 {
		names = []string{defaultArch}
	}
	var archs []types.Arch
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		a := types.ParseArch(name)
		if a.IsUnknown() {
			dr.d.Errorf(diag.CodeUnsupportedArch, "unsupported device architecture: %s", name)
			return nil, ErrUnsupportedArch(name)
		}
		archs = append(archs, a)
	}
	return archs, nil
}

// ClassifyInput tags an input path by extension.
func ClassifyInput(path string) types.ArtifactKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bc":
		return types.ArtifactBitcode
	case ".ptx", ".s":
		return types.ArtifactPTX
	case ".o", ".cubin":
		return types.ArtifactObject
	case ".fatbin":
		return types.ArtifactFatbin
	}
	return types.ArtifactUnknown
}

// CompilerArgs returns the device-side compiler argument augmentation for
// one bound architecture: include paths plus support-library linking.
func (dr *Driver) CompilerArgs(args argv.List, boundArch string) []string {
	translated := argv.Translate(dr.d, args, boundArch)
	out := dr.tk.IncludeArgs(translated)
	return append(out, dr.tk.DeviceLibArgs(translated)...)
}

// Plan emits the full command sequence compiling inputs for every
// requested architecture and packaging the results into output. A failed
// architecture is skipped; its siblings proceed.
func (dr *Driver) Plan(s *pipeline.Session, args argv.List, inputPaths []string, fallbackArchs []string, output string) error {
	archs, err := dr.Archs(args, fallbackArchs)
	if err != nil {
		return err
	}

	var artifacts []types.Artifact
	for _, arch := range archs {
		translated := argv.Translate(dr.d, args, arch.Name)
		artifact, err := dr.buildArch(s, translated, inputPaths, arch)
		if err != nil {
			// Already diagnosed; siblings proceed.
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	if len(artifacts) == 0 {
		return ErrNoArtifacts()
	}
	return dr.b.Packager().Package(s, artifacts, output, args)
}

// buildArch runs one architecture's stage sequence and returns its final
// artifact.
func (dr *Driver) buildArch(s *pipeline.Session, args argv.List, inputPaths []string, arch types.Arch) (types.Artifact, error) {
	var inputs []types.Artifact
	for _, p := range inputPaths {
		inputs = append(inputs, types.Artifact{Path: p, Arch: arch, Kind: ClassifyInput(p)})
	}

	switch arch.Family {
	case types.FamilyCodeObject:
		optimized := s.TempFile(arch.Name+"-opt", "bc")
		if err := dr.b.BackendCodeObject(s, arch, inputs, optimized, args); err != nil {
			return types.Artifact{}, err
		}
		backendOut := []types.Artifact{{Path: optimized, Arch: arch, Kind: types.ArtifactBitcode}}
		codeObject := s.TempFile(arch.Name, "hsaco")
		if err := dr.b.AssembleCodeObject(s, arch, backendOut, codeObject, args); err != nil {
			return types.Artifact{}, err
		}
		return types.Artifact{Path: codeObject, Arch: arch, Kind: types.ArtifactCodeObject}, nil
	default:
		object := s.TempFile(arch.Name, "cubin")
		if err := dr.b.AssembleNumbered(s, arch, inputs, object, args); err != nil {
			return types.Artifact{}, err
		}
		return types.Artifact{Path: object, Arch: arch, Kind: types.ArtifactObject}, nil
	}
}
