package toolkit

import (
	"path/filepath"
	"strings"

	"offloadtc/internal/argv"
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

// IncludeArgs returns the device-side include arguments. Missing
// installations are diagnosed only here, because this is the first point
// where device headers were actually requested.
func (t *Detector) IncludeArgs(args argv.List) []string {
	var out []string
	if !args.Has(argv.OptNoBuiltinInc) {
		// Wrapper headers shadow the standard library headers.
		out = append(out, "-internal-isystem",
			filepath.Join(t.host.ResourceDir, "include", "cuda_wrappers"))
	}
	if args.Has(argv.OptNoDeviceInc) {
		return out
	}
	if !args.Has(argv.OptNoVersionCheck) {
		if arch := args.LastValue(argv.OptMArch); arch != "" {
			t.CheckVersionSupportsArch(types.ParseArch(arch))
		}
	}
	if !t.valid {
		t.d.Errorf(diag.CodeNoInstallation,
			"cannot find device toolkit installation; provide its path via --cuda-path, or pass -nocudainc to build without device headers")
		return out
	}
	return append(out,
		"-internal-isystem", t.includePath,
		"-include", "__clang_cuda_runtime_wrapper.h")
}

// DeviceLibArgs returns the arguments that link the device support
// library into the compilation for the bound architecture. Requests in
// the code-object family resolve their libraries inside the backend
// stage instead, so only the existence check applies to them.
func (t *Detector) DeviceLibArgs(args argv.List) []string {
	if args.Has(argv.OptNoDeviceLib) {
		return nil
	}
	arch := args.LastValue(argv.OptMArch)
	if arch == "" {
		return nil
	}
	libDevice := t.LibDeviceFile(arch)
	if libDevice == "" {
		t.d.Errorf(diag.CodeNoDeviceLibrary,
			"cannot find device support library for %s; provide the installation path via --cuda-path, or pass -nocudalib to build without it", arch)
		return nil
	}
	for _, a := range args.AllValues(argv.OptGPUArch) {
		if strings.HasPrefix(a, "gfx") {
			return nil
		}
	}
	// The legacy libdevice bitcode needs a more recent IR dialect than
	// the backend defaults to.
	return []string{
		"-mlink-cuda-bitcode", libDevice,
		"-target-feature", "+ptx42",
	}
}
