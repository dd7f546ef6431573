package publish

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"previewhub/internal/hub"
)

// FileSystemPublisher mirrors the site into a directory served by a web server.
// Keys map to slash-separated paths below root.
type FileSystemPublisher struct {
	name string
	root string
}

// NewFileSystemPublisher creates root if it does not exist.
func NewFileSystemPublisher(name, root string) (*FileSystemPublisher, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create publish root: %w", err)
	}
	return &FileSystemPublisher{name: name, root: root}, nil
}

func (p *FileSystemPublisher) Name() string { return p.name }

// PutFile writes key atomically (temp file + rename) and checks the byte count against size.
func (p *FileSystemPublisher) PutFile(key string, r io.Reader, size int64, contentType string) error {
	dest, err := p.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// DeletePrefix removes a directory prefix such as "s/". Only whole
// directories are supported, which is all the publish flow needs.
func (p *FileSystemPublisher) DeletePrefix(prefix string) error {
	dir := strings.TrimSuffix(prefix, "/")
	target, err := p.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove %s: %w", prefix, err)
	}
	return nil
}

// ValidateSetup verifies that root is a writable directory.
func (p *FileSystemPublisher) ValidateSetup() error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("publish root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("publish root is not a directory: %s", p.root)
	}

	probe, err := os.CreateTemp(p.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("publish root not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (p *FileSystemPublisher) resolve(key string) (string, error) {
	if !fs.ValidPath(key) || key == "." {
		return "", fmt.Errorf("invalid publish key %q", key)
	}
	return filepath.Join(p.root, filepath.FromSlash(key)), nil
}

// Compile-time check that FileSystemPublisher implements hub.Publisher
var _ hub.Publisher = (*FileSystemPublisher)(nil)
