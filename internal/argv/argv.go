// Package argv implements the typed argument-list abstraction the offload
// driver consumes: a fixed option table, last-value-wins lookup, and the
// architecture-scoped argument translator.
package argv

import "strings"

// xarchPrefix introduces an architecture-scoped argument: the tail of the
// spelling names the architecture and the next token is the payload.
const xarchPrefix = "-Xarch_"

// Arg is one parsed argument.
type Arg struct {
	Opt   Option
	Value string
	// Arch is set for architecture-scoped arguments only.
	Arch string
	// Unknown marks dash-tokens missing from the option table; they are
	// preserved verbatim.
	Unknown bool
}

// List is an ordered, immutable argument list with typed lookup.
type List struct {
	args []Arg
}

// Parse splits raw tokens into a typed List and the plain (non-option)
// input paths.
func Parse(tokens []string) (List, []string) {
	var l List
	var inputs []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-") {
			inputs = append(inputs, tok)
			continue
		}
		if strings.HasPrefix(tok, xarchPrefix) && len(tok) > len(xarchPrefix) {
			a := Arg{Arch: tok[len(xarchPrefix):]}
			if i+1 < len(tokens) {
				i++
				a.Value = tokens[i]
			}
			l.args = append(l.args, a)
			continue
		}
		arg, consumed := matchOne(tok, rest(tokens, i+1))
		i += consumed
		l.args = append(l.args, arg)
	}
	return l, inputs
}

func rest(tokens []string, i int) []string {
	if i >= len(tokens) {
		return nil
	}
	return tokens[i:]
}

// matchOne resolves a single dash-token against the option table and
// reports how many extra tokens it consumed.
func matchOne(tok string, next []string) (Arg, int) {
	for _, opt := range table {
		switch opt.Kind {
		case KindFlag:
			if tok == opt.Spelling {
				return Arg{Opt: opt}, 0
			}
		case KindJoined:
			if strings.HasPrefix(tok, opt.Spelling) {
				return Arg{Opt: opt, Value: tok[len(opt.Spelling):]}, 0
			}
		case KindSeparate:
			if tok == opt.Spelling {
				if len(next) == 0 {
					return Arg{Opt: opt}, 0
				}
				return Arg{Opt: opt, Value: next[0]}, 1
			}
		case KindJoinedOrSeparate:
			if tok == opt.Spelling {
				if len(next) == 0 {
					return Arg{Opt: opt}, 0
				}
				return Arg{Opt: opt, Value: next[0]}, 1
			}
			if strings.HasPrefix(tok, opt.Spelling) {
				return Arg{Opt: opt, Value: tok[len(opt.Spelling):]}, 0
			}
		}
	}
	return Arg{Opt: Option{Spelling: tok, Kind: KindFlag}, Unknown: true}, 0
}

// Args returns the parsed arguments in order.
func (l List) Args() []Arg { return l.args }

// Has reports whether the option appears at least once.
func (l List) Has(opt Option) bool {
	for _, a := range l.args {
		if !a.Unknown && a.Arch == "" && a.Opt.Spelling == opt.Spelling {
			return true
		}
	}
	return false
}

// LastValue returns the value of the last occurrence of opt, or "".
func (l List) LastValue(opt Option) string {
	v := ""
	for _, a := range l.args {
		if !a.Unknown && a.Arch == "" && a.Opt.Spelling == opt.Spelling {
			v = a.Value
		}
	}
	return v
}

// AllValues returns every value of opt, in order.
func (l List) AllValues(opt Option) []string {
	var vs []string
	for _, a := range l.args {
		if !a.Unknown && a.Arch == "" && a.Opt.Spelling == opt.Spelling {
			vs = append(vs, a.Value)
		}
	}
	return vs
}

// HasFlag resolves a positive/negative flag pair; the later occurrence
// wins, def applies when neither is present.
func (l List) HasFlag(pos, neg Option, def bool) bool {
	v := def
	for _, a := range l.args {
		if a.Unknown || a.Arch != "" {
			continue
		}
		switch a.Opt.Spelling {
		case pos.Spelling:
			v = true
		case neg.Spelling:
			v = false
		}
	}
	return v
}

// Strings re-renders the list as raw tokens.
func (l List) Strings() []string {
	var out []string
	for _, a := range l.args {
		out = append(out, a.render()...)
	}
	return out
}

func (a Arg) render() []string {
	if a.Arch != "" {
		return []string{xarchPrefix + a.Arch, a.Value}
	}
	if a.Unknown {
		return []string{a.Opt.Spelling}
	}
	switch a.Opt.Kind {
	case KindFlag:
		return []string{a.Opt.Spelling}
	case KindJoined:
		return []string{a.Opt.Spelling + a.Value}
	case KindSeparate:
		return []string{a.Opt.Spelling, a.Value}
	default:
		return []string{a.Opt.Spelling + a.Value}
	}
}
