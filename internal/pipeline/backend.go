package pipeline

import (
	"fmt"

	"offloadtc/internal/argv"
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

// codeObjectBitcodeLibs is the fixed, ordered list of support libraries
// linked into every code-object compilation before optimization.
var codeObjectBitcodeLibs = []string{
	"libcuda2gcn.bc",
	"opencl.amdgcn.bc",
	"ockl.amdgcn.bc",
	"irif.amdgcn.bc",
	"ocml.amdgcn.bc",
	"oclc_finite_only_off.amdgcn.bc",
	"oclc_daz_opt_off.amdgcn.bc",
	"oclc_correctly_rounded_sqrt_on.amdgcn.bc",
	"oclc_unsafe_math_off.amdgcn.bc",
	"hc.amdgcn.bc",
	"oclc_isa_version.amdgcn.bc",
}

// findBitcodeLib searches the collected library paths for a named
// support library.
func (b *Builder) findBitcodeLib(paths []string, name string) (string, bool) {
	for _, dir := range paths {
		p := dir + "/" + name
		if b.fs.Exists(p) {
			return p, true
		}
	}
	return "", false
}

// BackendCodeObject emits the bitcode-link and optimize stages for a
// code-object target: all inputs plus the support libraries are linked,
// then optimized with address-space inference and dead-code elimination.
// A missing support library is a hard stop for this architecture.
func (b *Builder) BackendCodeObject(s *Session, arch types.Arch, inputs []types.Artifact, output string, args argv.List) error {
	var cmdArgs []string
	var inPaths []string
	for _, in := range inputs {
		cmdArgs = append(cmdArgs, in.Path)
		inPaths = append(inPaths, in.Path)
	}

	searchPaths := b.libraryPaths(args, arch.Name)
	for _, name := range codeObjectBitcodeLibs {
		p, ok := b.findBitcodeLib(searchPaths, name)
		if !ok {
			b.d.Errorf(diag.CodeNoDeviceLibrary,
				"cannot find device support library %s for %s", name, arch.Name)
			return fmt.Errorf("missing device support library %s for %s", name, arch.Name)
		}
		cmdArgs = append(cmdArgs, p)
		inPaths = append(inPaths, p)
	}

	cmdArgs = append(cmdArgs, b.envOptList(envLinkOpts)...)
	cmdArgs = append(cmdArgs, "-suppress-warnings")
	linkedBC := s.TempFile("OPT_INPUT", "bc")
	cmdArgs = append(cmdArgs, "-o", linkedBC)
	s.Add(types.CommandSpec{
		Executable: b.driverTool("llvm-link"),
		Args:       cmdArgs,
		Inputs:     inPaths,
		Outputs:    []string{linkedBC},
	})

	optArgs := []string{linkedBC}
	if override := b.envOptList(envOptOpts); len(override) > 0 {
		optArgs = append(optArgs, override...)
	} else {
		optArgs = append(optArgs, "-O2")
	}
	optArgs = append(optArgs,
		"-S",
		"-mcpu="+arch.Name,
		"-infer-address-spaces",
		"-dce",
		"-globaldce",
		"-o", output,
	)
	s.Add(types.CommandSpec{
		Executable: b.driverTool("opt"),
		Args:       optArgs,
		Inputs:     []string{linkedBC},
		Outputs:    []string{output},
	})

	if args.Has(argv.OptVerbose) {
		s.Add(types.CommandSpec{
			Executable: b.driverTool("llvm-nm"),
			Args:       []string{linkedBC, "-debug-syms"},
			Inputs:     []string{linkedBC},
		})
	}
	return nil
}
