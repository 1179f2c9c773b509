package toolkit

import (
	"strings"
	"testing"

	"offloadtc/internal/argv"
	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

func linuxHost() HostInfo {
	return HostInfo{OS: "linux", Arch64: true, ResourceDir: "/res", DriverDir: "/drv"}
}

// addInstall lays out a structurally valid installation root.
func addInstall(m *vfs.Mem, root, marker string, libDeviceFiles ...string) {
	m.AddDir(root + "/include")
	m.AddDir(root + "/bin")
	m.AddDir(root + "/lib64")
	m.AddDir(root + "/nvvm/libdevice")
	for _, f := range libDeviceFiles {
		m.AddFile(root+"/nvvm/libdevice/"+f, nil)
	}
	if marker != "" {
		m.AddFile(root+"/version.txt", []byte(marker))
	}
}

func detect(t *testing.T, m *vfs.Mem, tokens ...string) (*Detector, *diag.Engine) {
	t.Helper()
	args, _ := argv.Parse(tokens)
	d := diag.New()
	return Detect(m, d, linuxHost(), args), d
}

func mustArgs(t *testing.T, tokens ...string) argv.List {
	t.Helper()
	args, inputs := argv.Parse(tokens)
	if len(inputs) != 0 {
		t.Fatalf("unexpected input tokens: %v", inputs)
	}
	return args
}

func TestDetectExplicitPathWins(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/custom/cuda", "CUDA Version 8.0.44")
	addInstall(m, "/usr/local/cuda", "CUDA Version 7.5.18")
	tk, _ := detect(t, m, "--cuda-path=/custom/cuda")
	if !tk.IsValid() {
		t.Fatalf("expected valid installation")
	}
	if tk.InstallPath() != "/custom/cuda" {
		t.Fatalf("install path = %s", tk.InstallPath())
	}
	if tk.Version() != types.Version80 {
		t.Fatalf("version = %v", tk.Version())
	}
}

// probeRecorder wraps a provider and records every existence check.
type probeRecorder struct {
	*vfs.Mem
	probed []string
}

func (p *probeRecorder) Exists(path string) bool {
	p.probed = append(p.probed, path)
	return p.Mem.Exists(path)
}

func TestDetectSearchOrderStopsAtFirstValid(t *testing.T) {
	m := vfs.NewMem()
	// cuda-8.0 exists but is structurally incomplete (no bin).
	m.AddDir("/usr/local/cuda-8.0/include")
	m.AddDir("/usr/local/cuda-8.0/nvvm/libdevice")
	addInstall(m, "/usr/local/cuda-7.5", "CUDA Version 7.5.18")
	addInstall(m, "/usr/local/cuda-7.0", "")

	rec := &probeRecorder{Mem: m}
	args, _ := argv.Parse(nil)
	tk := Detect(rec, diag.New(), linuxHost(), args)

	if tk.InstallPath() != "/usr/local/cuda-7.5" {
		t.Fatalf("install path = %s", tk.InstallPath())
	}
	for _, p := range rec.probed {
		if strings.HasPrefix(p, "/usr/local/cuda-7.0") {
			t.Fatalf("later candidate was probed after a match: %s", p)
		}
	}
}

func TestDetectNothingFound(t *testing.T) {
	tk, d := detect(t, vfs.NewMem())
	if tk.IsValid() {
		t.Fatalf("expected invalid detection")
	}
	// Not finding anything is not itself a diagnostic.
	if n := len(d.Records()); n != 0 {
		t.Fatalf("unexpected diagnostics: %d", n)
	}
}

func TestParseVersionMarker(t *testing.T) {
	cases := []struct {
		in   string
		want types.Version
	}{
		{"CUDA Version 8.0.44", types.Version80},
		{"CUDA Version 7.0", types.Version70},
		{"CUDA Version 7.5.18\n", types.Version75},
		{"CUDA Version 9.0", types.VersionUnknown},
		{"CUDA Release 8.0", types.VersionUnknown},
		{"CUDA Version x.y", types.VersionUnknown},
		{"CUDA Version 8", types.VersionUnknown},
		{"", types.VersionUnknown},
	}
	for _, c := range cases {
		if got := parseVersionMarker(c.in); got != c.want {
			t.Fatalf("parseVersionMarker(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMissingMarkerDefaultsToLegacy(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "")
	tk, _ := detect(t, m)
	if tk.Version() != types.Version70 {
		t.Fatalf("version = %v, want legacy 7.0", tk.Version())
	}
}

func TestLibDirSelection(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "")
	m.AddDir("/usr/local/cuda/lib")
	tk, _ := detect(t, m)
	if tk.LibPath() != "/usr/local/cuda/lib64" {
		t.Fatalf("lib path = %s, want lib64 on a 64-bit host", tk.LibPath())
	}

	// Without lib64, plain lib is accepted.
	m2 := vfs.NewMem()
	m2.AddDir("/usr/local/cuda/include")
	m2.AddDir("/usr/local/cuda/bin")
	m2.AddDir("/usr/local/cuda/lib")
	m2.AddDir("/usr/local/cuda/nvvm/libdevice")
	tk2, _ := detect(t, m2)
	if tk2.LibPath() != "/usr/local/cuda/lib" {
		t.Fatalf("lib path = %s", tk2.LibPath())
	}

	// Neither disqualifies the candidate.
	m3 := vfs.NewMem()
	m3.AddDir("/usr/local/cuda/include")
	m3.AddDir("/usr/local/cuda/bin")
	m3.AddDir("/usr/local/cuda/nvvm/libdevice")
	tk3, _ := detect(t, m3)
	if tk3.IsValid() {
		t.Fatalf("candidate without lib directories should be skipped")
	}
}

func TestLibDeviceAliasesDependOnVersion(t *testing.T) {
	files := []string{
		"libdevice.compute_20.10.bc",
		"libdevice.compute_30.10.bc",
		"libdevice.compute_35.10.bc",
		"libdevice.compute_50.10.bc",
	}
	libDevice := func(root, f string) string { return root + "/nvvm/libdevice/" + f }

	m75 := vfs.NewMem()
	addInstall(m75, "/usr/local/cuda", "CUDA Version 7.5.18", files...)
	tk75, _ := detect(t, m75)
	if got := tk75.LibDeviceFile("sm_50"); got != libDevice("/usr/local/cuda", "libdevice.compute_30.10.bc") {
		t.Fatalf("7.5: sm_50 -> %s", got)
	}

	m80 := vfs.NewMem()
	addInstall(m80, "/usr/local/cuda", "CUDA Version 8.0.44", files...)
	tk80, _ := detect(t, m80)
	if got := tk80.LibDeviceFile("sm_50"); got != libDevice("/usr/local/cuda", "libdevice.compute_50.10.bc") {
		t.Fatalf("8.0: sm_50 -> %s", got)
	}

	// Unconditional aliases hold under both versions.
	for _, tk := range []*Detector{tk75, tk80} {
		if got := tk.LibDeviceFile("sm_60"); got != libDevice("/usr/local/cuda", "libdevice.compute_30.10.bc") {
			t.Fatalf("sm_60 -> %s", got)
		}
		if got := tk.LibDeviceFile("sm_21"); got != libDevice("/usr/local/cuda", "libdevice.compute_20.10.bc") {
			t.Fatalf("sm_21 -> %s", got)
		}
		if got := tk.LibDeviceFile("sm_35"); got != libDevice("/usr/local/cuda", "libdevice.compute_35.10.bc") {
			t.Fatalf("sm_35 -> %s", got)
		}
	}
}

func TestCodeObjectLibraryScan(t *testing.T) {
	m := vfs.NewMem()
	m.AddFile("/opt/rocm/libamdgcn/gfx900/lib/opencl.amdgcn.bc", nil)
	m.AddFile("/opt/rocm/libamdgcn/gfx803/lib/opencl.amdgcn.bc", nil)
	m.AddDir("/opt/rocm/libamdgcn/gfx701") // missing support library
	m.AddDir("/opt/rocm/libamdgcn/docs")   // not a target

	tk, _ := detect(t, m)
	if tk.IsValid() {
		t.Fatalf("no numbered installation expected")
	}
	if tk.LibDeviceFile("gfx900") != "/opt/rocm/libamdgcn/gfx900/lib/opencl.amdgcn.bc" {
		t.Fatalf("gfx900 -> %s", tk.LibDeviceFile("gfx900"))
	}
	if tk.LibDeviceFile("gfx803") == "" {
		t.Fatalf("gfx803 missing")
	}
	if tk.LibDeviceFile("gfx701") != "" || tk.LibDeviceFile("docs") != "" {
		t.Fatalf("unexpected entries scanned")
	}
}

func TestCodeObjectRootOverrides(t *testing.T) {
	m := vfs.NewMem()
	m.AddFile("/env/root/gfx900/lib/opencl.amdgcn.bc", nil)
	m.Setenv("LIBAMDGCN", "/env/root")
	tk, _ := detect(t, m)
	if tk.LibDeviceFile("gfx900") != "/env/root/gfx900/lib/opencl.amdgcn.bc" {
		t.Fatalf("env override not honored: %s", tk.LibDeviceFile("gfx900"))
	}

	m2 := vfs.NewMem()
	m2.AddFile("/flag/root/gfx900/lib/opencl.amdgcn.bc", nil)
	m2.AddFile("/env/root/gfx900/lib/opencl.amdgcn.bc", nil)
	m2.Setenv("LIBAMDGCN", "/env/root")
	tk2, _ := detect(t, m2, "--gcn-device-lib-path=/flag/root")
	if tk2.LibDeviceFile("gfx900") != "/flag/root/gfx900/lib/opencl.amdgcn.bc" {
		t.Fatalf("flag override not honored: %s", tk2.LibDeviceFile("gfx900"))
	}
}
