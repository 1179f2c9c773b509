package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

// memWithBitcodeLibs stages every required support library under dir.
func memWithBitcodeLibs(dir string) *vfs.Mem {
	m := vfs.NewMem()
	for _, name := range codeObjectBitcodeLibs {
		m.AddFile(dir+"/"+name, nil)
	}
	return m
}

func bcInputs(paths ...string) []types.Artifact {
	var out []types.Artifact
	for _, p := range paths {
		out = append(out, types.Artifact{Path: p, Arch: types.ParseArch("gfx900"), Kind: types.ArtifactBitcode})
	}
	return out
}

func TestBackendCodeObjectStages(t *testing.T) {
	m := memWithBitcodeLibs("/libs")
	b, d := newTestBuilder(t, m)
	s := NewSession(t.TempDir(), false)

	args := parseArgs(t, "-L/libs")
	err := b.BackendCodeObject(s, types.ParseArch("gfx900"), bcInputs("a.bc", "b.bc"), "/out/opt.bc", args)
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	cmds := s.Commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	link, opt := cmds[0], cmds[1]
	if link.Executable != "/drv/llvm-link" || opt.Executable != "/drv/opt" {
		t.Fatalf("executables: %s, %s", link.Executable, opt.Executable)
	}

	joined := strings.Join(link.Args, " ")
	if !strings.HasPrefix(joined, "a.bc b.bc /libs/libcuda2gcn.bc /libs/opencl.amdgcn.bc") {
		t.Fatalf("link inputs out of order: %s", joined)
	}
	if !strings.Contains(joined, "-suppress-warnings") {
		t.Fatalf("missing -suppress-warnings: %s", joined)
	}
	for _, name := range codeObjectBitcodeLibs {
		if !strings.Contains(joined, "/libs/"+name) {
			t.Fatalf("support library %s not linked", name)
		}
	}

	// The optimize stage consumes exactly the link stage's temp.
	if opt.Args[0] != link.Outputs[0] {
		t.Fatalf("opt input = %s, link output = %s", opt.Args[0], link.Outputs[0])
	}
	wantTail := []string{"-O2", "-S", "-mcpu=gfx900", "-infer-address-spaces", "-dce", "-globaldce", "-o", "/out/opt.bc"}
	if !reflect.DeepEqual(opt.Args[1:], wantTail) {
		t.Fatalf("opt args = %v", opt.Args)
	}
	if len(d.Records()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Records())
	}
}

func TestBackendOptLevelOverride(t *testing.T) {
	m := memWithBitcodeLibs("/libs")
	m.Setenv("CLANG_TARGET_OPT_OPTS", "-O3 -unroll-threshold=100")
	b, _ := newTestBuilder(t, m)
	s := NewSession(t.TempDir(), false)

	if err := b.BackendCodeObject(s, types.ParseArch("gfx900"), bcInputs("a.bc"), "out.bc", parseArgs(t, "-L/libs")); err != nil {
		t.Fatalf("backend: %v", err)
	}
	opt := s.Commands()[1]
	joined := strings.Join(opt.Args, " ")
	if !strings.Contains(joined, "-O3 -unroll-threshold=100") {
		t.Fatalf("override not applied: %s", joined)
	}
	if strings.Contains(joined, " -O2 ") {
		t.Fatalf("default level present despite override: %s", joined)
	}
}

func TestBackendSearchesDefaultRoots(t *testing.T) {
	m := vfs.NewMem()
	for _, name := range codeObjectBitcodeLibs {
		if name == "libcuda2gcn.bc" {
			m.AddFile("/opt/rocm/hcc2/lib/"+name, nil)
			continue
		}
		m.AddFile("/opt/rocm/libamdgcn/gfx900/lib/"+name, nil)
	}
	b, _ := newTestBuilder(t, m)
	s := NewSession(t.TempDir(), false)

	if err := b.BackendCodeObject(s, types.ParseArch("gfx900"), bcInputs("a.bc"), "out.bc", parseArgs(t)); err != nil {
		t.Fatalf("backend: %v", err)
	}
	joined := strings.Join(s.Commands()[0].Args, " ")
	if !strings.Contains(joined, "/opt/rocm/libamdgcn/gfx900/lib/opencl.amdgcn.bc") {
		t.Fatalf("per-target root not searched: %s", joined)
	}
	if !strings.Contains(joined, "/opt/rocm/hcc2/lib/libcuda2gcn.bc") {
		t.Fatalf("legacy root not searched: %s", joined)
	}
}

func TestBackendMissingLibraryIsHardStop(t *testing.T) {
	b, d := newTestBuilder(t, vfs.NewMem())
	s := NewSession(t.TempDir(), false)

	err := b.BackendCodeObject(s, types.ParseArch("gfx900"), bcInputs("a.bc"), "out.bc", parseArgs(t))
	if err == nil {
		t.Fatalf("expected error for missing support library")
	}
	if n := d.CountCode(diag.CodeNoDeviceLibrary); n != 1 {
		t.Fatalf("missing-library diagnostics = %d, want 1", n)
	}
	if len(s.Commands()) != 0 {
		t.Fatalf("no commands should be emitted on hard stop, got %d", len(s.Commands()))
	}
}

func TestBackendVerboseAddsSymbolListing(t *testing.T) {
	m := memWithBitcodeLibs("/libs")
	b, _ := newTestBuilder(t, m)
	s := NewSession(t.TempDir(), false)

	if err := b.BackendCodeObject(s, types.ParseArch("gfx900"), bcInputs("a.bc"), "out.bc", parseArgs(t, "-L/libs", "-v")); err != nil {
		t.Fatalf("backend: %v", err)
	}
	cmds := s.Commands()
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3 with -v", len(cmds))
	}
	nm := cmds[2]
	if nm.Executable != "/drv/llvm-nm" || nm.Args[0] != cmds[0].Outputs[0] {
		t.Fatalf("symbol listing = %+v", nm)
	}
}
