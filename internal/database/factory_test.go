package database

import (
	"os"
	"path/filepath"
	"testing"

	"previewhub/internal/config"
)

func TestNewHistoryFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		got, err := NewHistoryFromConfig(config.DatabaseConfig{Type: "memory"}, nil)
		if err != nil {
			t.Fatalf("NewHistoryFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if got.Path() != ":memory:" {
			t.Errorf("Path() = %q, want :memory:", got.Path())
		}
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("sqlite database creates data_dir", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "db")
		got, err := NewHistoryFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dataDir}, nil)
		if err != nil {
			t.Fatalf("NewHistoryFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		want := filepath.Join(dataDir, FileName)
		if got.Path() != want {
			t.Errorf("Path() = %q, want %q", got.Path(), want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	errorCases := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{"sqlite database without data_dir", config.DatabaseConfig{Type: "sqlite"}},
		{"unknown database type", config.DatabaseConfig{Type: "postgres"}},
		{"empty type", config.DatabaseConfig{}},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewHistoryFromConfig(tc.cfg, nil)
			if err == nil {
				t.Error("NewHistoryFromConfig() expected error, got nil")
			}
			if got != nil {
				t.Error("NewHistoryFromConfig() should return nil on error")
				got.Close()
			}
		})
	}
}
