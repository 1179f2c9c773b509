package argv

import (
	"strings"

	"offloadtc/internal/diag"
)

// Translate derives the argument list used when compiling for one bound
// architecture. Architecture-scoped arguments are unpacked when their
// qualifier matches boundArch and dropped otherwise; scoped arguments
// that would consume extra tokens or alter top-level driver behavior are
// diagnosed and discarded. A non-empty boundArch replaces any explicit
// -march selection with one pinned to it.
func Translate(d *diag.Engine, in List, boundArch string) List {
	var out List
	for _, a := range in.args {
		if a.Arch != "" {
			if boundArch == "" || a.Arch != boundArch {
				continue
			}
			unpacked, ok := unpackScoped(d, a)
			if !ok {
				continue
			}
			out.args = append(out.args, unpacked)
			continue
		}
		out.args = append(out.args, a)
	}
	if boundArch != "" {
		kept := out.args[:0]
		for _, a := range out.args {
			if !a.Unknown && a.Opt.Spelling == OptMArch.Spelling {
				continue
			}
			kept = append(kept, a)
		}
		out.args = append(kept, Arg{Opt: OptMArch, Value: boundArch})
	}
	return out
}

// unpackScoped validates the payload of a matched architecture-scoped
// argument. The payload must stand alone as exactly one token.
func unpackScoped(d *diag.Engine, a Arg) (Arg, bool) {
	tok := a.Value
	if tok == "" || !strings.HasPrefix(tok, "-") {
		d.Errorf(diag.CodeArchArgExtraArgs,
			"invalid argument %q scoped to architecture %s", tok, a.Arch)
		return Arg{}, false
	}
	for _, opt := range table {
		switch opt.Kind {
		case KindFlag:
			if tok == opt.Spelling {
				return Arg{Opt: opt}, true
			}
		case KindJoined:
			if strings.HasPrefix(tok, opt.Spelling) {
				if opt.DriverOnly {
					d.Errorf(diag.CodeArchArgDriverOnly,
						"argument %q scoped to architecture %s would alter driver behavior", tok, a.Arch)
					return Arg{}, false
				}
				return Arg{Opt: opt, Value: tok[len(opt.Spelling):]}, true
			}
		case KindSeparate:
			if tok == opt.Spelling {
				d.Errorf(diag.CodeArchArgExtraArgs,
					"argument %q scoped to architecture %s consumes extra arguments", tok, a.Arch)
				return Arg{}, false
			}
		case KindJoinedOrSeparate:
			if tok == opt.Spelling {
				d.Errorf(diag.CodeArchArgExtraArgs,
					"argument %q scoped to architecture %s consumes extra arguments", tok, a.Arch)
				return Arg{}, false
			}
			if strings.HasPrefix(tok, opt.Spelling) {
				return Arg{Opt: opt, Value: tok[len(opt.Spelling):]}, true
			}
		}
	}
	// Unknown options pass through untouched; a later consumer decides
	// whether to reject them.
	return Arg{Opt: Option{Spelling: tok, Kind: KindFlag}, Unknown: true}, true
}
