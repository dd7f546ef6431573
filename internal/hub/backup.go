package hub

import (
	"bytes"
	"fmt"
	"io"

	"previewhub/internal/model"
)

// BackupRegistry writes an encrypted copy of the current registry document to w.
// The registry is loaded, and therefore validated, before anything is written.
func (s *HubService) BackupRegistry(enc Encryptor, w io.Writer) error {
	reg, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}

	var plain bytes.Buffer
	if err := s.store.Encode(&plain, reg); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	if err := enc.Encrypt(&plain, w); err != nil {
		return fmt.Errorf("encrypting registry: %w", err)
	}

	s.logger.Info("registry backed up", "previews", len(reg.Previews))
	return nil
}

// RestoreRegistry decrypts a backup, validates it, replaces the persisted
// registry with it and rebuilds. An invalid backup leaves everything untouched.
func (s *HubService) RestoreRegistry(dc DecryptionContext, r io.Reader) (*model.Registry, error) {
	var plain bytes.Buffer
	if err := dc.Decrypt(r, &plain); err != nil {
		return nil, fmt.Errorf("decrypting backup: %w", err)
	}

	reg, err := s.store.Decode(&plain)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}

	if err := s.store.Save(reg); err != nil {
		return nil, fmt.Errorf("saving registry: %w", err)
	}

	if _, err := s.rebuild(reg, BuildOptions{}); err != nil {
		return nil, err
	}

	s.logger.Info("registry restored", "previews", len(reg.Previews))
	return reg, nil
}
