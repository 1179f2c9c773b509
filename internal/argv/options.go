package argv

// Kind describes how an option takes its value.
type Kind int

const (
	// KindFlag options take no value.
	KindFlag Kind = iota
	// KindJoined options glue the value to the spelling: --cuda-path=/x, -O2.
	KindJoined
	// KindSeparate options take the value as the next token: -Xcuda-ptxas --foo.
	KindSeparate
	// KindJoinedOrSeparate options accept either form: -L/x or -L /x.
	KindJoinedOrSeparate
)

// Option is one entry of the offload driver's option table.
type Option struct {
	// Spelling includes the trailing '=' for joined options that use one.
	Spelling string
	Kind     Kind
	// DriverOnly options alter top-level driver behavior and are rejected
	// when smuggled in through an architecture-scoped argument.
	DriverOnly bool
}

var (
	OptCudaPath         = Option{Spelling: "--cuda-path=", Kind: KindJoined, DriverOnly: true}
	OptGCNDeviceLibPath = Option{Spelling: "--gcn-device-lib-path=", Kind: KindJoined, DriverOnly: true}
	OptGPUArch          = Option{Spelling: "--cuda-gpu-arch=", Kind: KindJoined, DriverOnly: true}
	OptMArch            = Option{Spelling: "-march=", Kind: KindJoined}
	OptO                = Option{Spelling: "-O", Kind: KindJoined}
	OptLibPath          = Option{Spelling: "-L", Kind: KindJoinedOrSeparate}
	OptXAssembler       = Option{Spelling: "-Xcuda-ptxas", Kind: KindSeparate}
	OptXPackager        = Option{Spelling: "-Xcuda-fatbinary", Kind: KindSeparate}
	OptAssemblerPath    = Option{Spelling: "--ptxas-path=", Kind: KindJoined, DriverOnly: true}
	OptOutput           = Option{Spelling: "-o", Kind: KindSeparate, DriverOnly: true}
	OptNoVersionCheck   = Option{Spelling: "--no-cuda-version-check", Kind: KindFlag}
	OptDeviceDebug      = Option{Spelling: "--cuda-noopt-device-debug", Kind: KindFlag}
	OptNoDeviceDebug    = Option{Spelling: "--no-cuda-noopt-device-debug", Kind: KindFlag}
	OptNoDeviceInc      = Option{Spelling: "-nocudainc", Kind: KindFlag}
	OptNoBuiltinInc     = Option{Spelling: "-nobuiltininc", Kind: KindFlag}
	OptNoDeviceLib      = Option{Spelling: "-nocudalib", Kind: KindFlag}
	OptSaveTemps        = Option{Spelling: "-save-temps", Kind: KindFlag}
	OptVerbose          = Option{Spelling: "-v", Kind: KindFlag}
)

// table is ordered so longer spellings win over shared prefixes
// (e.g. --no-cuda-version-check before -nocudainc is irrelevant, but
// -Xcuda-ptxas must be tried before a hypothetical -X).
var table = []Option{
	OptCudaPath,
	OptGCNDeviceLibPath,
	OptGPUArch,
	OptAssemblerPath,
	OptNoVersionCheck,
	OptDeviceDebug,
	OptNoDeviceDebug,
	OptNoDeviceInc,
	OptNoBuiltinInc,
	OptNoDeviceLib,
	OptSaveTemps,
	OptXAssembler,
	OptXPackager,
	OptMArch,
	OptOutput,
	OptO,
	OptLibPath,
	OptVerbose,
}
