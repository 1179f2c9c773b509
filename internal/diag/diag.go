// Package diag emits tagged-code diagnostics for the offload driver.
// Diagnostics are recorded in order and mirrored to an optional
// structured logger; they are never used as control flow.
package diag

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Code tags a diagnostic with a stable identifier callers can match on.
type Code string

const (
	CodeNoInstallation    Code = "no_toolkit_installation"
	CodeVersionTooLow     Code = "toolkit_version_too_low"
	CodeNoDeviceLibrary   Code = "no_device_library"
	CodeUnsupportedArch   Code = "unsupported_architecture"
	CodeArchArgExtraArgs  Code = "arch_arg_consumes_extra_args"
	CodeArchArgDriverOnly Code = "arch_arg_alters_driver_behavior"
)

// Diagnostic is one recorded message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
}

// Engine collects diagnostics for one driver invocation. Safe for
// concurrent use.
type Engine struct {
	mu      sync.Mutex
	zlog    *zerolog.Logger
	records []Diagnostic
	errors  int
}

func New() *Engine { return &Engine{} }

// SetLogger installs a structured logger; without one, diagnostics are
// only recorded.
func (e *Engine) SetLogger(l zerolog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zlog = &l
}

// Warnf records a warning diagnostic.
func (e *Engine) Warnf(code Code, format string, args ...interface{}) {
	e.emit(SeverityWarning, code, fmt.Sprintf(format, args...))
}

// Errorf records an error diagnostic.
func (e *Engine) Errorf(code Code, format string, args ...interface{}) {
	e.emit(SeverityError, code, fmt.Sprintf(format, args...))
}

func (e *Engine) emit(sev Severity, code Code, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, Diagnostic{Severity: sev, Code: code, Message: msg})
	if sev == SeverityError {
		e.errors++
	}
	if e.zlog != nil {
		ev := e.zlog.Warn()
		if sev == SeverityError {
			ev = e.zlog.Error()
		}
		ev.Str("code", string(code)).Msg(msg)
	}
}

// Records returns a copy of everything emitted so far.
func (e *Engine) Records() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Diagnostic, len(e.records))
	copy(out, e.records)
	return out
}

// ErrorCount reports how many error-severity diagnostics were emitted.
func (e *Engine) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errors
}

// CountCode reports how many diagnostics carry the given code.
func (e *Engine) CountCode(code Code) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, d := range e.records {
		if d.Code == code {
			n++
		}
	}
	return n
}
