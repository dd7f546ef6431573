package testutil

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing/fstest"
	"time"

	"previewhub/internal/hub"
)

// MemorySiteFS is an in-memory hub.SiteFS backed by fstest.MapFS.
// Directories are implied by the files below them.
// Not safe for concurrent use.
type MemorySiteFS struct {
	files fstest.MapFS

	// FailWrites makes WriteFile fail for any name it contains.
	FailWrites map[string]error

	writes []string
}

// NewMemorySiteFS creates an empty tree.
func NewMemorySiteFS() *MemorySiteFS {
	return &MemorySiteFS{
		files:      fstest.MapFS{},
		FailWrites: map[string]error{},
	}
}

func (m *MemorySiteFS) Open(name string) (fs.File, error) {
	return m.files.Open(name)
}

func (m *MemorySiteFS) WriteFile(name string, data []byte) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	if err, ok := m.FailWrites[name]; ok {
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	m.files[name] = &fstest.MapFile{
		Data:    append([]byte(nil), data...),
		Mode:    0644,
		ModTime: time.Now(),
	}
	m.writes = append(m.writes, name)
	return nil
}

func (m *MemorySiteFS) RemoveAll(name string) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "removeall", Path: name, Err: fs.ErrInvalid}
	}
	prefix := name + "/"
	for key := range m.files {
		if key == name || strings.HasPrefix(key, prefix) || name == "." {
			delete(m.files, key)
		}
	}
	return nil
}

// AddFile seeds a file without recording it as a write.
func (m *MemorySiteFS) AddFile(name, content string) {
	m.files[name] = &fstest.MapFile{Data: []byte(content), Mode: 0644}
}

// ReadFile returns the content of name, failing the lookup with fs.ErrNotExist.
func (m *MemorySiteFS) ReadFile(name string) (string, error) {
	f, ok := m.files[name]
	if !ok {
		return "", fmt.Errorf("reading %s: %w", name, fs.ErrNotExist)
	}
	return string(f.Data), nil
}

// Exists reports whether name is a file in the tree.
func (m *MemorySiteFS) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

// Files returns every file name, sorted.
func (m *MemorySiteFS) Files() []string {
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilesUnder returns the sorted file names below dir.
func (m *MemorySiteFS) FilesUnder(dir string) []string {
	var names []string
	for _, name := range m.Files() {
		if strings.HasPrefix(name, dir+"/") {
			names = append(names, name)
		}
	}
	return names
}

// Writes returns the names passed to WriteFile, in call order.
func (m *MemorySiteFS) Writes() []string {
	return append([]string(nil), m.writes...)
}

// ResetWrites clears the write log.
func (m *MemorySiteFS) ResetWrites() {
	m.writes = nil
}

// MapFS exposes the underlying tree for read-only consumers such as the link validator.
func (m *MemorySiteFS) MapFS() fstest.MapFS {
	return m.files
}

// ErrInjected is a convenience error for FailWrites.
var ErrInjected = errors.New("injected failure")

// Compile-time check that MemorySiteFS implements hub.SiteFS
var _ hub.SiteFS = (*MemorySiteFS)(nil)
