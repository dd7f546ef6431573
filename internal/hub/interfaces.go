package hub

import (
	"io"
	"io/fs"

	"previewhub/internal/model"
)

// SiteFS is the output tree the synthesizer writes into.
// Names are slash-separated and relative to the site root, as with io/fs.
type SiteFS interface {
	fs.FS

	// WriteFile creates or truncates name, creating parent directories.
	WriteFile(name string, data []byte) error

	// RemoveAll deletes name and everything below it. Missing paths are not an error.
	RemoveAll(name string) error
}

// RegistryStore owns the persisted registry document.
type RegistryStore interface {
	// Load returns the validated registry, or an empty one if nothing is persisted.
	// Any invariant violation is returned as a *ValidationError.
	Load() (*model.Registry, error)

	// Save persists the registry. It does not validate; callers persist only valid states.
	Save(reg *model.Registry) error

	// Decode parses and validates a registry document from r.
	Decode(r io.Reader) (*model.Registry, error)

	// Encode writes reg in the canonical persisted form.
	Encode(w io.Writer, reg *model.Registry) error
}

// BuildOptions controls a rebuild.
type BuildOptions struct {
	// Force overwrites item pages, item stylesheets and shared assets that
	// would otherwise be left alone because they already exist.
	Force bool
}

// BuildReport summarizes what a rebuild wrote.
type BuildReport struct {
	Clients         int
	ItemsScaffolded int
	ItemsKept       int
	Redirects       int
}

// Builder synthesizes the derived output tree from a validated registry.
type Builder interface {
	Rebuild(reg *model.Registry, opts BuildOptions) (*BuildReport, error)
}

// History records every command run.
type History interface {
	StartOperation(name, parameters string) (*model.Operation, error)
	FinishOperation(id string, status string) error
	ListOperations(limit int) ([]*model.Operation, error)
	Close() error
}

// Publisher uploads a built site to a hosting target.
type Publisher interface {
	// Name identifies the publisher in logs and messages.
	Name() string

	// PutFile stores a single site file. size is the number of bytes that will be read from r.
	PutFile(key string, r io.Reader, size int64, contentType string) error

	// DeletePrefix removes every stored file whose key starts with prefix.
	DeletePrefix(prefix string) error

	// ValidateSetup verifies that the target is reachable and writable.
	ValidateSetup() error
}

// Encryptor protects registry backups.
// Encryption uses the public key only; decryption requires unlocking the
// private key with a passphrase.
type Encryptor interface {
	// Setup generates a key pair and stores the private key encrypted with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a context able to decrypt backups.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key for the duration of a restore.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
