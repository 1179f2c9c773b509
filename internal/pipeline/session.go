// Package pipeline turns per-architecture inputs into ordered external
// tool invocations, threading session-owned temporary files between
// stages.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"offloadtc/pkg/types"
)

// Session owns the command list and every temporary file of one
// compilation. Temporaries live until Cleanup unless keep is set.
type Session struct {
	dir   string
	keep  bool
	seq   int
	temps []string
	cmds  []types.CommandSpec
}

// NewSession creates a session writing temporaries under dir (the system
// temp directory when empty). keep disables removal at teardown.
func NewSession(dir string, keep bool) *Session {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Session{dir: dir, keep: keep}
}

// TempFile creates an empty uniquely named temporary file and registers
// it for cleanup. Concurrent sessions may share a directory, so the name
// must be claimed on disk; the tool that declares the file as an output
// overwrites it.
func (s *Session) TempFile(prefix, suffix string) string {
	var p string
	if f, err := os.CreateTemp(s.dir, prefix+"-*."+suffix); err == nil {
		p = f.Name()
		f.Close()
	} else {
		// Directory not writable yet; qualify the name with the pid so
		// sessions of different processes still cannot collide.
		s.seq++
		p = filepath.Join(s.dir, fmt.Sprintf("%s-%d-%d.%s", prefix, os.Getpid(), s.seq, suffix))
	}
	s.temps = append(s.temps, p)
	return p
}

// Add appends a command to the session's ordered list.
func (s *Session) Add(c types.CommandSpec) { s.cmds = append(s.cmds, c) }

// Commands returns the emitted commands in order.
func (s *Session) Commands() []types.CommandSpec { return s.cmds }

// TempFiles returns every temporary path allocated so far.
func (s *Session) TempFiles() []string { return s.temps }

// Cleanup removes the session's temporaries. Paths that were never
// written are not an error.
func (s *Session) Cleanup() error {
	if s.keep {
		return nil
	}
	var firstErr error
	for _, p := range s.temps {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
