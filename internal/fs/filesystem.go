package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"previewhub/internal/hub"
)

// OSSiteFS is the site tree on disk, rooted at a directory.
// Names are slash-separated and relative to the root, as with io/fs.
type OSSiteFS struct {
	root string
	fsys fs.FS
}

// NewOSSiteFS creates the root directory if needed.
func NewOSSiteFS(root string) (*OSSiteFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving site root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating site root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat site root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site root is not a directory: %s", abs)
	}
	return &OSSiteFS{root: abs, fsys: os.DirFS(abs)}, nil
}

// Root returns the absolute path of the tree.
func (s *OSSiteFS) Root() string {
	return s.root
}

func (s *OSSiteFS) Open(name string) (fs.File, error) {
	return s.fsys.Open(name)
}

func (s *OSSiteFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(s.fsys, name)
}

// WriteFile replaces name atomically (temp file + rename), creating parent directories.
func (s *OSSiteFS) WriteFile(name string, data []byte) error {
	dest, err := s.resolve("write", name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// RemoveAll deletes name and everything below it. The root itself cannot be removed.
func (s *OSSiteFS) RemoveAll(name string) error {
	if name == "." {
		return &fs.PathError{Op: "removeall", Path: name, Err: fs.ErrInvalid}
	}
	target, err := s.resolve("removeall", name)
	if err != nil {
		return err
	}
	return os.RemoveAll(target)
}

func (s *OSSiteFS) resolve(op, name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// Compile-time check that OSSiteFS implements hub.SiteFS
var _ hub.SiteFS = (*OSSiteFS)(nil)
