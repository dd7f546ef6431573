package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the previewhub configuration file.
type Config struct {
	// SiteRoot is the directory the static tree is generated into.
	SiteRoot string `toml:"site_root"`
	// RegistryPath is the registry document. Defaults to <site_root>/preview-registry.json.
	RegistryPath string            `toml:"registry_path,omitempty"`
	LogDir       string            `toml:"log_dir"`
	Database     DatabaseConfig    `toml:"database"`
	Publishers   []PublisherConfig `toml:"publishers"`
	Encryption   EncryptionConfig  `toml:"encryption"`
	Backup       BackupConfig      `toml:"backup"`
}

// DatabaseConfig selects where command history is kept.
// Type is "sqlite" (DataDir required) or "memory".
type DatabaseConfig struct {
	Type    string `toml:"type"`
	DataDir string `toml:"data_dir,omitempty"`
}

// PublisherConfig describes one hosting target for the built site.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type PublisherConfig struct {
	Type string `toml:"type"` // "filesystem", "s3" or "memory"
	Name string `toml:"name"`

	// Ignore lists extra patterns that are never uploaded.
	Ignore []string `toml:"ignore,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
	// Static credentials. When empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds the age key pair protecting registry backups.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	// Armor writes backups as ASCII-armored text instead of binary.
	Armor bool `toml:"armor"`
}

// BackupConfig controls where encrypted registry backups are written.
type BackupConfig struct {
	Dir string `toml:"dir"`
	// Keep is how many backups to retain; 0 keeps all of them.
	Keep int `toml:"keep"`
}

// NewConfig creates a Config with every path derived from baseDir, generating into siteRoot.
func NewConfig(baseDir, siteRoot string) *Config {
	return &Config{
		SiteRoot:     siteRoot,
		RegistryPath: filepath.Join(siteRoot, "preview-registry.json"),
		LogDir:       filepath.Join(baseDir, "log"),
		Database:     DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "previewhub.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "previewhub.key"),
		},
		Backup: BackupConfig{Dir: filepath.Join(baseDir, "backups")},
	}
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.SiteRoot == "" {
		return errors.New("site_root is required")
	}
	seen := make(map[string]bool, len(c.Publishers))
	for i, p := range c.Publishers {
		if p.Name == "" {
			return fmt.Errorf("publishers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("publishers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative, got %d", c.Backup.Keep)
	}
	return nil
}

// FindPublisher returns the publisher named name, or the only one configured when name is empty.
func (c *Config) FindPublisher(name string) (PublisherConfig, error) {
	if name == "" {
		switch len(c.Publishers) {
		case 0:
			return PublisherConfig{}, errors.New("no publishers configured")
		case 1:
			return c.Publishers[0], nil
		default:
			return PublisherConfig{}, errors.New("several publishers configured, pass --to to pick one")
		}
	}
	for _, p := range c.Publishers {
		if p.Name == name {
			return p, nil
		}
	}
	return PublisherConfig{}, fmt.Errorf("publisher not found: %s", name)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates the Config at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
