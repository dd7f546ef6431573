package encryption

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"filippo.io/age/armor"

	"previewhub/internal/config"
	"previewhub/internal/hub"
)

// ErrAlreadyConfigured is returned by Setup when a key pair already exists.
var ErrAlreadyConfigured = errors.New("backup keys already exist")

// AgeEncryptor protects registry backups with an X25519 key pair.
// The public key is stored in plaintext so backups never need a passphrase;
// the private key is sealed with the passphrase using age's scrypt recipient.
type AgeEncryptor struct {
	publicKeyPath  string
	privateKeyPath string
	armor          bool
}

var _ hub.Encryptor = (*AgeEncryptor)(nil)

func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
		armor:          cfg.Armor,
	}
}

// Setup generates the key pair. It refuses to replace existing keys, since
// that would make every earlier backup unrecoverable.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return errors.New("passphrase must not be empty")
	}
	if e.IsConfigured() {
		return ErrAlreadyConfigured
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	sealed, err := sealIdentity(identity, passphrase)
	if err != nil {
		return err
	}

	if err := writeKeyFile(e.privateKeyPath, sealed, 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := writeKeyFile(e.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// Encrypt encrypts r to the stored public key, armoring the output when configured.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.loadRecipient()
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	dst := w
	var armorWriter io.WriteCloser
	if e.armor {
		armorWriter = armor.NewWriter(w)
		dst = armorWriter
	}

	encWriter, err := age.Encrypt(dst, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	if armorWriter != nil {
		if err := armorWriter.Close(); err != nil {
			return fmt.Errorf("finalizing armor: %w", err)
		}
	}
	return nil
}

// Unlock opens the sealed private key with passphrase.
func (e *AgeEncryptor) Unlock(passphrase string) (hub.DecryptionContext, error) {
	sealed, err := os.ReadFile(e.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	identity, err := openIdentity(sealed, passphrase)
	if err != nil {
		return nil, err
	}
	return &AgeDecryptionContext{identity: identity}, nil
}

// IsConfigured reports whether both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (e *AgeEncryptor) loadRecipient() (age.Recipient, error) {
	pubData, err := os.ReadFile(e.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in %s", e.publicKeyPath)
	}
	return recipients[0], nil
}

func sealIdentity(identity *age.X25519Identity, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return nil, fmt.Errorf("sealing private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing sealed private key: %w", err)
	}
	return buf.Bytes(), nil
}

func openIdentity(sealed []byte, passphrase string) (age.Identity, error) {
	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key (wrong passphrase?): %w", err)
	}

	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, errors.New("no identities found in private key")
	}
	return identities[0], nil
}

// writeKeyFile writes data through a temp file and rename so a crash never leaves half a key.
func writeKeyFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".key-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// AgeDecryptionContext holds an unlocked identity for the duration of a restore.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ hub.DecryptionContext = (*AgeDecryptionContext)(nil)

// Decrypt accepts both binary and armored backups.
func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if head, _ := br.Peek(len(armor.Header)); string(head) == armor.Header {
		src = armor.NewReader(br)
	}

	decReader, err := age.Decrypt(src, c.identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
