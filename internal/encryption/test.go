package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"previewhub/internal/hub"
)

// testHeader marks output of TestEncryptor so ciphertext never equals plaintext.
var testHeader = []byte("PVHTEST\x00")

// ErrWrongPassphrase is returned by TestEncryptor.Unlock for a passphrase other than the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// TestEncryptor is a deterministic, reversible stand-in for AgeEncryptor.
// Once Setup has run, Unlock only succeeds with the same passphrase.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ hub.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if e.configured {
		return ErrAlreadyConfigured
	}
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (hub.DecryptionContext, error) {
	if e.configured && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

// IsConfigured is always true so backups work without a Setup call.
func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ hub.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return errors.New("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
