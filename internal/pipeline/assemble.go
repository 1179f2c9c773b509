package pipeline

import (
	"offloadtc/internal/argv"
	"offloadtc/pkg/types"
)

// deviceOptFlag maps the host optimization request onto the device
// assembler's -O flag. The assembler defaults to aggressive optimization,
// so an absent host request is pinned to -O0 explicitly. The mapping is
// total; it never fails.
func deviceOptFlag(args argv.List) string {
	if !args.Has(argv.OptO) {
		return "-O0"
	}
	switch args.LastValue(argv.OptO) {
	case "0":
		return "-O0"
	case "1":
		return "-O1"
	case "3", "4", "fast":
		return "-O3"
	default:
		// 2, s, z and anything unrecognized.
		return "-O2"
	}
}

// AssembleNumbered emits the single device-assembler invocation for a
// numbered-family target: IR in, native device object out.
func (b *Builder) AssembleNumbered(s *Session, arch types.Arch, inputs []types.Artifact, output string, args argv.List) error {
	if !args.Has(argv.OptNoVersionCheck) {
		b.tk.CheckVersionSupportsArch(arch)
	}

	var cmdArgs []string
	if b.host.Arch64 {
		cmdArgs = append(cmdArgs, "-m64")
	} else {
		cmdArgs = append(cmdArgs, "-m32")
	}
	if args.HasFlag(argv.OptDeviceDebug, argv.OptNoDeviceDebug, false) {
		// The assembler rejects -g combined with optimization.
		cmdArgs = append(cmdArgs, "-g", "--dont-merge-basicblocks", "--return-at-end")
	} else {
		cmdArgs = append(cmdArgs, deviceOptFlag(args))
	}
	cmdArgs = append(cmdArgs, "--gpu-name", arch.Name, "--output-file", output)

	var inPaths []string
	for _, in := range inputs {
		cmdArgs = append(cmdArgs, in.Path)
		inPaths = append(inPaths, in.Path)
	}
	for _, dir := range b.libraryPaths(args, "") {
		cmdArgs = append(cmdArgs, "-L"+dir)
	}
	cmdArgs = append(cmdArgs, args.AllValues(argv.OptXAssembler)...)

	exec := args.LastValue(argv.OptAssemblerPath)
	if exec == "" {
		exec = b.toolkitTool("ptxas")
	}
	s.Add(types.CommandSpec{
		Executable: exec,
		Args:       cmdArgs,
		Inputs:     inPaths,
		Outputs:    []string{output},
	})
	return nil
}

// AssembleCodeObject emits the codegen and native-link stages for a
// code-object target: optimized bitcode in, shared position-independent
// code object out.
func (b *Builder) AssembleCodeObject(s *Session, arch types.Arch, inputs []types.Artifact, output string, args argv.List) error {
	var cmdArgs []string
	var inPaths []string
	for _, in := range inputs {
		cmdArgs = append(cmdArgs, in.Path)
		inPaths = append(inPaths, in.Path)
	}
	cmdArgs = append(cmdArgs, "-mtriple=amdgcn--cuda", "-filetype=obj")
	cmdArgs = append(cmdArgs, b.envOptList(envCodegenOpts)...)
	cmdArgs = append(cmdArgs, "-mcpu="+arch.Name)
	objFile := s.TempFile("LC_OUTPUT", "o")
	cmdArgs = append(cmdArgs, "-o", objFile)
	s.Add(types.CommandSpec{
		Executable: b.driverTool("llc"),
		Args:       cmdArgs,
		Inputs:     inPaths,
		Outputs:    []string{objFile},
	})

	s.Add(types.CommandSpec{
		Executable: b.driverTool("lld"),
		Args: []string{
			"-flavor", "gnu",
			"--no-undefined",
			"-shared",
			"-o", output,
			objFile,
		},
		Inputs:  []string{objFile},
		Outputs: []string{output},
	})
	return nil
}
