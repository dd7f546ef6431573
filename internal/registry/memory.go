package registry

import (
	"bytes"
	"io"
	"sync"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

// MemoryStore keeps the encoded registry document in memory.
// Every Load decodes a fresh copy, so callers never share state with the store.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

// NewMemoryStore creates an empty store. Load returns an empty registry until Save is called.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFromJSON creates a store pre-loaded with a raw document.
// The document is validated on Load, not here.
func NewMemoryStoreFromJSON(doc string) *MemoryStore {
	return &MemoryStore{data: []byte(doc)}
}

func (m *MemoryStore) Load() (*model.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return model.NewRegistry(), nil
	}
	return Decode(bytes.NewReader(m.data))
}

func (m *MemoryStore) Save(reg *model.Registry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, reg); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = buf.Bytes()
	m.saves++
	return nil
}

func (m *MemoryStore) Decode(r io.Reader) (*model.Registry, error) {
	return Decode(r)
}

func (m *MemoryStore) Encode(w io.Writer, reg *model.Registry) error {
	return Encode(w, reg)
}

// Bytes returns the persisted document, or nil if nothing was saved.
func (m *MemoryStore) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bytes.Clone(m.data)
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Compile-time check that MemoryStore implements hub.RegistryStore
var _ hub.RegistryStore = (*MemoryStore)(nil)
