package vfs

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Mem is an in-memory Provider for tests. Paths are slash-separated and
// treated literally; parent directories of added files exist implicitly.
type Mem struct {
	files map[string][]byte
	dirs  map[string]bool
	env   map[string]string
}

func NewMem() *Mem {
	return &Mem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		env:   make(map[string]string),
	}
}

// AddFile registers a file and all its parent directories.
func (m *Mem) AddFile(p string, contents []byte) {
	p = path.Clean(p)
	m.files[p] = contents
	for d := path.Dir(p); d != "/" && d != "."; d = path.Dir(d) {
		m.dirs[d] = true
	}
}

// AddDir registers an (possibly empty) directory and its parents.
func (m *Mem) AddDir(p string) {
	p = path.Clean(p)
	for ; p != "/" && p != "."; p = path.Dir(p) {
		m.dirs[p] = true
	}
}

// Setenv sets an environment value returned by Getenv.
func (m *Mem) Setenv(key, value string) { m.env[key] = value }

func (m *Mem) Exists(p string) bool {
	p = path.Clean(p)
	if _, ok := m.files[p]; ok {
		return true
	}
	return m.dirs[p]
}

func (m *Mem) ReadFile(p string) ([]byte, error) {
	if b, ok := m.files[path.Clean(p)]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("open %s: file does not exist", p)
}

func (m *Mem) ReadDir(p string) ([]string, error) {
	p = path.Clean(p)
	if !m.dirs[p] {
		return nil, fmt.Errorf("open %s: not a directory", p)
	}
	seen := make(map[string]bool)
	prefix := p + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			rest := strings.TrimPrefix(f, prefix)
			seen[strings.SplitN(rest, "/", 2)[0]] = true
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			rest := strings.TrimPrefix(d, prefix)
			seen[strings.SplitN(rest, "/", 2)[0]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Mem) Getenv(key string) string { return m.env[key] }
