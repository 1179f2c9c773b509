package pipeline

import (
	"strings"

	"offloadtc/internal/argv"
	"offloadtc/pkg/types"
)

// codeObjectPlaceholderProfile is the profile tag forced onto code-object
// images in the first packaging stage. The packager's schema has no
// notion of that family, so a fixed numbered profile stands in until the
// fix-up pass rewrites the container.
const codeObjectPlaceholderProfile = "sm_37"

// Packager merges per-architecture artifacts into one blob. The
// two-stage placeholder/fix-up detour for code-object inputs stays
// behind this interface so a packager with native support would not
// inherit it.
type Packager interface {
	Package(s *Session, inputs []types.Artifact, output string, args argv.List) error
}

type fatbinPackager struct {
	b *Builder
}

// Packager returns the fat-binary packager for this builder.
func (b *Builder) Packager() Packager { return fatbinPackager{b: b} }

func (p fatbinPackager) Package(s *Session, inputs []types.Artifact, output string, args argv.List) error {
	b := p.b

	cmdArgs := []string{"--cuda"}
	if b.host.Arch64 {
		cmdArgs = append(cmdArgs, "-64")
	} else {
		cmdArgs = append(cmdArgs, "-32")
	}
	cmdArgs = append(cmdArgs, "--create")

	foundCodeObject := false
	for _, in := range inputs {
		if in.Arch.Family == types.FamilyCodeObject {
			foundCodeObject = true
		}
	}
	packOut := output
	if foundCodeObject {
		// Intercept the packager output; the fix-up pass writes the
		// caller-visible file.
		packOut = s.TempFile("FB_FIXUP", "fatbin")
	}
	cmdArgs = append(cmdArgs, packOut)

	var inPaths []string
	for _, in := range inputs {
		inPaths = append(inPaths, in.Path)
		if in.Arch.Family == types.FamilyCodeObject {
			if in.Kind != types.ArtifactPTX {
				cmdArgs = append(cmdArgs, "--no-asm")
				cmdArgs = append(cmdArgs,
					"--image=profile="+codeObjectPlaceholderProfile+",file="+in.Path)
			}
			continue
		}
		// IR artifacts are tagged with the virtual architecture, compiled
		// ones with the physical name.
		profile := in.Arch.Name
		if in.Kind == types.ArtifactPTX {
			profile = types.VirtualFor(in.Arch).Name
		}
		cmdArgs = append(cmdArgs, "--image=profile="+profile+",file="+in.Path)
	}
	cmdArgs = append(cmdArgs, args.AllValues(argv.OptXPackager)...)

	s.Add(types.CommandSpec{
		Executable: b.toolkitTool("fatbinary"),
		Args:       cmdArgs,
		Inputs:     inPaths,
		Outputs:    []string{packOut},
	})

	if !foundCodeObject {
		return nil
	}

	var ids []string
	for _, in := range inputs {
		if in.Arch.Family == types.FamilyCodeObject && in.Kind != types.ArtifactPTX {
			ids = append(ids, in.Arch.Name)
		}
	}
	s.Add(types.CommandSpec{
		Executable: b.driverTool("clang-fixup-fatbin"),
		Args: []string{
			"-offload-archs=" + strings.Join(ids, ","),
			packOut,
			output,
		},
		Inputs:  []string{packOut},
		Outputs: []string{output},
	})
	return nil
}
