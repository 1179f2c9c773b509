package toolkit

import (
	"reflect"
	"testing"

	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
)

func TestIncludeArgs(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "CUDA Version 8.0.44")
	tk, d := detect(t, m)

	got := tk.IncludeArgs(mustArgs(t))
	want := []string{
		"-internal-isystem", "/res/include/cuda_wrappers",
		"-internal-isystem", "/usr/local/cuda/include",
		"-include", "__clang_cuda_runtime_wrapper.h",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("include args = %v", got)
	}
	if len(d.Records()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Records())
	}
}

func TestIncludeArgsDisableFlags(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "CUDA Version 8.0.44")
	tk, _ := detect(t, m)

	got := tk.IncludeArgs(mustArgs(t, "-nobuiltininc"))
	for i := 0; i < len(got); i += 2 {
		if got[i] == "-internal-isystem" && got[i+1] == "/res/include/cuda_wrappers" {
			t.Fatalf("wrapper include present despite -nobuiltininc: %v", got)
		}
	}

	got = tk.IncludeArgs(mustArgs(t, "-nocudainc"))
	want := []string{"-internal-isystem", "/res/include/cuda_wrappers"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("-nocudainc args = %v", got)
	}
}

func TestIncludeArgsMissingInstallation(t *testing.T) {
	tk, d := detect(t, vfs.NewMem())

	tk.IncludeArgs(mustArgs(t, "-nocudainc"))
	if n := d.CountCode(diag.CodeNoInstallation); n != 0 {
		t.Fatalf("no diagnostic expected when device includes are off")
	}

	tk.IncludeArgs(mustArgs(t))
	if n := d.CountCode(diag.CodeNoInstallation); n != 1 {
		t.Fatalf("missing-installation diagnostics = %d, want 1", n)
	}
}

func TestDeviceLibArgs(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "CUDA Version 8.0.44", "libdevice.compute_35.10.bc")
	tk, d := detect(t, m)

	got := tk.DeviceLibArgs(mustArgs(t, "-march=sm_35"))
	want := []string{
		"-mlink-cuda-bitcode", "/usr/local/cuda/nvvm/libdevice/libdevice.compute_35.10.bc",
		"-target-feature", "+ptx42",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("device lib args = %v", got)
	}

	if out := tk.DeviceLibArgs(mustArgs(t, "-march=sm_35", "-nocudalib")); out != nil {
		t.Fatalf("-nocudalib should suppress device lib args: %v", out)
	}

	tk.DeviceLibArgs(mustArgs(t, "-march=sm_60"))
	if n := d.CountCode(diag.CodeNoDeviceLibrary); n != 1 {
		t.Fatalf("missing-library diagnostics = %d, want 1", n)
	}
}

func TestDeviceLibArgsSkippedForCodeObjectBuilds(t *testing.T) {
	m := vfs.NewMem()
	addInstall(m, "/usr/local/cuda", "CUDA Version 8.0.44", "libdevice.compute_35.10.bc")
	m.AddFile("/opt/rocm/libamdgcn/gfx900/lib/opencl.amdgcn.bc", nil)
	tk, d := detect(t, m)

	got := tk.DeviceLibArgs(mustArgs(t, "-march=sm_35", "--cuda-gpu-arch=gfx900"))
	if got != nil {
		t.Fatalf("expected no bitcode-link args with a gfx target requested, got %v", got)
	}
	if len(d.Records()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Records())
	}
}
