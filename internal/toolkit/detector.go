// Package toolkit locates an installed device-compiler toolkit, enforces
// its version policy, and resolves the device support libraries for each
// target architecture.
package toolkit

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"sync"

	"offloadtc/internal/argv"
	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
	"offloadtc/pkg/types"
)

// HostInfo describes the host the driver runs on.
type HostInfo struct {
	// OS is the host platform tag: "linux", "darwin" or "windows".
	OS string
	// Arch64 selects lib64 over lib when both exist.
	Arch64 bool
	// SysRoot prefixes every default search path.
	SysRoot string
	// ResourceDir is the compiler resource directory holding wrapper headers.
	ResourceDir string
	// DriverDir is the directory companion tools (bitcode linker,
	// optimizer, codegen, native linker, fixup) are installed in.
	DriverDir string
}

// toolkitVersions is the fallback search list, newest first.
var toolkitVersions = []string{"8.0", "7.5", "7.0"}

// envCodeObjectRoot overrides the code-object device-library root.
const envCodeObjectRoot = "LIBAMDGCN"

// defaultCodeObjectRoot is used when neither flag nor env override it.
const defaultCodeObjectRoot = "/opt/rocm/libamdgcn"

// codeObjectLibName is the support library each gfx subdirectory must carry.
const codeObjectLibName = "lib/opencl.amdgcn.bc"

// Detector holds the result of installation detection. It is built once
// per toolchain instantiation and read-only afterwards, except for the
// warning-dedup set guarded by mu.
type Detector struct {
	fs   vfs.Provider
	d    *diag.Engine
	host HostInfo

	installPath   string
	binPath       string
	includePath   string
	libPath       string
	libDevicePath string
	version       types.Version
	libDeviceMap  map[string]string
	valid         bool

	mu     sync.Mutex
	warned map[string]bool
}

// Detect probes the ordered candidate install roots and builds the
// architecture-to-library map. A failed probe is not an error here;
// consumers diagnose only if device headers or libraries are requested.
func Detect(fs vfs.Provider, d *diag.Engine, host HostInfo, args argv.List) *Detector {
	t := &Detector{
		fs:           fs,
		d:            d,
		host:         host,
		libDeviceMap: make(map[string]string),
		warned:       make(map[string]bool),
	}
	t.probeInstallation(args)
	t.probeCodeObjectLibraries(args)
	return t
}

func (t *Detector) candidateRoots(args argv.List) []string {
	if p := args.LastValue(argv.OptCudaPath); p != "" {
		return []string{p}
	}
	var roots []string
	if t.host.OS == "windows" {
		for _, ver := range toolkitVersions {
			roots = append(roots,
				t.host.SysRoot+"/Program Files/NVIDIA GPU Computing Toolkit/CUDA/v"+ver)
		}
		return roots
	}
	roots = append(roots, t.host.SysRoot+"/usr/local/cuda")
	for _, ver := range toolkitVersions {
		roots = append(roots, t.host.SysRoot+"/usr/local/cuda-"+ver)
	}
	return roots
}

func (t *Detector) probeInstallation(args argv.List) {
	for _, root := range t.candidateRoots(args) {
		if root == "" || !t.fs.Exists(root) {
			continue
		}
		includePath := root + "/include"
		binPath := root + "/bin"
		libDevicePath := root + "/nvvm/libdevice"
		if !(t.fs.Exists(includePath) && t.fs.Exists(binPath) && t.fs.Exists(libDevicePath)) {
			continue
		}

		// 64-bit hosts prefer lib64 when present; a bare lib directory is
		// accepted either way. Neither existing disqualifies the root.
		var libPath string
		switch {
		case t.host.Arch64 && t.fs.Exists(root+"/lib64"):
			libPath = root + "/lib64"
		case t.fs.Exists(root + "/lib"):
			libPath = root + "/lib"
		default:
			continue
		}

		if buf, err := t.fs.ReadFile(root + "/version.txt"); err != nil {
			// Toolkits predating the marker file are all the same legacy
			// release; its absence is not an error.
			t.version = types.Version70
		} else {
			t.version = parseVersionMarker(string(buf))
		}

		t.installPath = root
		t.binPath = binPath
		t.includePath = includePath
		t.libPath = libPath
		t.libDevicePath = libDevicePath
		t.scanLibDevice()
		t.valid = true
		return
	}
}

// parseVersionMarker parses the contents of the installation's version
// marker file, one line of the form "CUDA Version MAJOR.MINOR[.PATCH]".
func parseVersionMarker(contents string) types.Version {
	const prefix = "CUDA Version "
	line := strings.TrimSpace(contents)
	if !strings.HasPrefix(line, prefix) {
		return types.VersionUnknown
	}
	fields := strings.Split(strings.TrimPrefix(line, prefix), ".")
	if len(fields) < 2 {
		return types.VersionUnknown
	}
	major, errMajor := strconv.Atoi(fields[0])
	minor, errMinor := strconv.Atoi(fields[1])
	if errMajor != nil || errMinor != nil {
		return types.VersionUnknown
	}
	switch {
	case major == 7 && minor == 0:
		return types.Version70
	case major == 7 && minor == 5:
		return types.Version75
	case major == 8 && minor == 0:
		return types.Version80
	}
	return types.VersionUnknown
}

// aliasRule maps physical architecture names onto the library file found
// for a related virtual architecture. The version bounds are vendor
// policy, carried as literal data: the vendor's own driver picks a
// different library for the same physical name depending on the toolkit
// release.
type aliasRule struct {
	virtual string
	targets []string
	// below, when set, applies the rule only while version < below.
	below types.Version
	// atLeast, when set, applies the rule only while version >= atLeast.
	atLeast types.Version
}

var libDeviceAliases = []aliasRule{
	{virtual: "compute_20", targets: []string{"sm_20", "sm_21", "sm_32"}},
	{virtual: "compute_30", targets: []string{"sm_30", "sm_60", "sm_61", "sm_62"}},
	{virtual: "compute_30", targets: []string{"sm_50", "sm_52", "sm_53"}, below: types.Version80},
	{virtual: "compute_35", targets: []string{"sm_35", "sm_37"}},
	{virtual: "compute_50", targets: []string{"sm_50", "sm_52", "sm_53"}, atLeast: types.Version80},
}

func (t *Detector) scanLibDevice() {
	const libPrefix = "libdevice."
	names, err := t.fs.ReadDir(t.libDevicePath)
	if err != nil {
		return
	}
	for _, name := range names {
		if !strings.HasPrefix(name, libPrefix) || !strings.HasSuffix(name, ".bc") {
			continue
		}
		rest := strings.TrimPrefix(name, libPrefix)
		dot := strings.IndexByte(rest, '.')
		if dot < 0 {
			continue
		}
		arch := rest[:dot]
		filePath := t.libDevicePath + "/" + name
		t.libDeviceMap[arch] = filePath
		for _, rule := range libDeviceAliases {
			if rule.virtual != arch {
				continue
			}
			if rule.below != types.VersionUnknown && t.version >= rule.below {
				continue
			}
			if rule.atLeast != types.VersionUnknown && t.version < rule.atLeast {
				continue
			}
			for _, target := range rule.targets {
				t.libDeviceMap[target] = filePath
			}
		}
	}
}

// probeCodeObjectLibraries scans the separate code-object library root.
// Subdirectory names are target names; each must carry the expected
// support library. Independent of the numbered-family validity flag.
func (t *Detector) probeCodeObjectLibraries(args argv.List) {
	var candidates []string
	if p := args.LastValue(argv.OptGCNDeviceLibPath); p != "" {
		candidates = append(candidates, p)
	} else if env := t.fs.Getenv(envCodeObjectRoot); env != "" {
		candidates = append(candidates, t.host.SysRoot+env)
	} else {
		candidates = append(candidates, t.host.SysRoot+defaultCodeObjectRoot)
	}

	root := ""
	for _, c := range candidates {
		if c != "" && t.fs.Exists(c) {
			root = c
		}
	}
	if root == "" {
		return
	}
	names, err := t.fs.ReadDir(root)
	if err != nil {
		return
	}
	for _, name := range names {
		if !strings.HasPrefix(name, "gfx") {
			continue
		}
		libFile := path.Join(root, name, codeObjectLibName)
		if t.fs.Exists(libFile) {
			t.libDeviceMap[name] = libFile
		}
	}
}

// IsValid reports whether a structurally complete installation was found.
func (t *Detector) IsValid() bool { return t.valid }

// Version is the detected toolkit release.
func (t *Detector) Version() types.Version { return t.version }

func (t *Detector) InstallPath() string   { return t.installPath }
func (t *Detector) BinPath() string       { return t.binPath }
func (t *Detector) IncludePath() string   { return t.includePath }
func (t *Detector) LibPath() string       { return t.libPath }
func (t *Detector) LibDevicePath() string { return t.libDevicePath }

// LibDeviceFile returns the device support library for an architecture
// name, or "" when none was found.
func (t *Detector) LibDeviceFile(arch string) string { return t.libDeviceMap[arch] }

// Print writes a one-line summary when an installation was found.
func (t *Detector) Print(w io.Writer) {
	if t.valid {
		fmt.Fprintf(w, "Found CUDA installation: %s, version %s\n", t.installPath, t.version)
	}
}
