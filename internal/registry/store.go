package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

// DefaultFileName is the registry document's name inside the site root.
const DefaultFileName = "preview-registry.json"

// JSONStore keeps the registry in a single JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path.
// The file does not need to exist yet.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and validates the registry. A missing file yields an empty registry.
func (s *JSONStore) Load() (*model.Registry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewRegistry(), nil
		}
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	defer f.Close()

	reg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return reg, nil
}

// Save writes the registry atomically (temp file + rename in the same directory).
func (s *JSONStore) Save(reg *model.Registry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, reg); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
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

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting registry permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing registry: %w", err)
	}

	success = true
	return nil
}

// Decode parses and validates a registry document from r.
func (s *JSONStore) Decode(r io.Reader) (*model.Registry, error) {
	return Decode(r)
}

// Encode writes reg in canonical form.
func (s *JSONStore) Encode(w io.Writer, reg *model.Registry) error {
	return Encode(w, reg)
}

// Compile-time check that JSONStore implements hub.RegistryStore
var _ hub.RegistryStore = (*JSONStore)(nil)
