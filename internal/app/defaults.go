package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables overriding the default locations.
const (
	EnvConfigPath = "PREVIEWHUB_CONFIG_PATH" // default: ~/.config/previewhub.toml
	EnvHome       = "PREVIEWHUB_HOME"        // default: ~/.local/share/previewhub
)

// GetDefaults returns application default paths: config_path, base_dir
// (history, keys and backups live below it) and log_dir.
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome(EnvConfigPath, ".config", "previewhub.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome(EnvHome, ".local", "share", "previewhub")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns $env when set, else the path below the user's home directory.
func envOrHome(env string, rel ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{home}, rel...)...), nil
}
