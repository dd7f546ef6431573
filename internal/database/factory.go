package database

import (
	"fmt"
	"os"
	"path/filepath"

	"previewhub/internal/config"
	"previewhub/internal/hub"
)

// FileName is the history database inside data_dir.
const FileName = "previewhub.db"

// NewHistoryFromConfig creates a History implementation based on the database config type.
func NewHistoryFromConfig(cfg config.DatabaseConfig, clock hub.Clock) (*SQLiteHistory, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		return NewSQLiteHistory(filepath.Join(cfg.DataDir, FileName), clock)
	case "memory":
		return NewSQLiteHistory(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
