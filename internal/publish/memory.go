package publish

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"previewhub/internal/hub"
)

// StoredFile is one object held by a MemoryPublisher.
type StoredFile struct {
	Data        []byte
	ContentType string
}

// MemoryPublisher keeps published files in memory, for tests and dry runs.
// This implementation is safe for concurrent use.
type MemoryPublisher struct {
	name  string
	mu    sync.RWMutex
	files map[string]StoredFile
}

func NewMemoryPublisher(name string) *MemoryPublisher {
	return &MemoryPublisher{
		name:  name,
		files: make(map[string]StoredFile),
	}
}

func (m *MemoryPublisher) Name() string { return m.name }

func (m *MemoryPublisher) PutFile(key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, got %d", key, size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = StoredFile{Data: data, ContentType: contentType}
	return nil
}

func (m *MemoryPublisher) DeletePrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.files {
		if strings.HasPrefix(key, prefix) {
			delete(m.files, key)
		}
	}
	return nil
}

// ValidateSetup always succeeds.
func (m *MemoryPublisher) ValidateSetup() error {
	return nil
}

// Get returns the stored object for key.
func (m *MemoryPublisher) Get(key string) (StoredFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[key]
	return f, ok
}

// Keys returns every stored key, sorted.
func (m *MemoryPublisher) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compile-time check that MemoryPublisher implements hub.Publisher
var _ hub.Publisher = (*MemoryPublisher)(nil)
