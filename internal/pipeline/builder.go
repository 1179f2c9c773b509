package pipeline

import (
	"strings"

	"offloadtc/internal/argv"
	"offloadtc/internal/common/vfs"
	"offloadtc/internal/diag"
	"offloadtc/internal/toolkit"
)

// Stage flag overrides, space-separated option lists.
const (
	envLinkOpts    = "CLANG_TARGET_LINK_OPTS"
	envOptOpts     = "CLANG_TARGET_OPT_OPTS"
	envCodegenOpts = "CLANG_TARGET_LLC_OPTS"
	envLibraryPath = "LIBRARY_PATH"
	envLegacyRoot  = "HCC2"
	envDeviceRoot  = "LIBAMDGCN"
)

const (
	defaultLegacyRoot = "/opt/rocm/hcc2"
	defaultDeviceRoot = "/opt/rocm/libamdgcn"
)

// Builder emits the per-architecture tool pipelines. It only reads the
// detector; all mutable state lives in the Session.
type Builder struct {
	fs   vfs.Provider
	d    *diag.Engine
	tk   *toolkit.Detector
	host toolkit.HostInfo
}

func NewBuilder(fs vfs.Provider, d *diag.Engine, tk *toolkit.Detector, host toolkit.HostInfo) *Builder {
	return &Builder{fs: fs, d: d, tk: tk, host: host}
}

// driverTool returns the path of a companion tool installed next to the
// driver.
func (b *Builder) driverTool(name string) string {
	if b.host.DriverDir == "" {
		return name
	}
	return b.host.DriverDir + "/" + name
}

// toolkitTool resolves a tool from the installation's bin directory,
// falling back to a bare name for PATH lookup.
func (b *Builder) toolkitTool(name string) string {
	if b.tk.IsValid() {
		return b.tk.BinPath() + "/" + name
	}
	return name
}

// libraryPaths collects -L search entries: explicit -L flags first, then
// the LIBRARY_PATH list, then the code-object library root for the given
// target, then the legacy support root.
func (b *Builder) libraryPaths(args argv.List, codeObjectID string) []string {
	var paths []string
	for _, v := range args.AllValues(argv.OptLibPath) {
		paths = append(paths, v)
	}
	sep := ":"
	if b.host.OS == "windows" {
		sep = ";"
	}
	for _, dir := range strings.Split(b.fs.Getenv(envLibraryPath), sep) {
		if dir != "" {
			paths = append(paths, dir)
		}
	}
	if codeObjectID != "" {
		root := b.fs.Getenv(envDeviceRoot)
		if root == "" {
			root = defaultDeviceRoot
		}
		paths = append(paths, root+"/"+codeObjectID+"/lib")
		legacy := b.fs.Getenv(envLegacyRoot)
		if legacy == "" {
			legacy = defaultLegacyRoot
		}
		paths = append(paths, legacy+"/lib")
	}
	return paths
}

// envOptList splits a space-separated option-list override.
func (b *Builder) envOptList(key string) []string {
	return strings.Fields(b.fs.Getenv(key))
}
