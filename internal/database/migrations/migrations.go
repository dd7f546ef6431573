// Package migrations holds the embedded schema of the history database.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// ErrNeedsMigration is returned by CheckDBMigrationStatus for a database without any schema version.
var ErrNeedsMigration = errors.New("database has no schema version (needs migration)")

// CheckDBMigrationStatus returns nil when db is at the latest embedded version.
func CheckDBMigrationStatus(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m is not closed: that would close db, which belongs to the caller.

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return ErrNeedsMigration
		}
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at version %d (a migration failed part way)", version)
	}

	latest, err := LatestVersion()
	if err != nil {
		return err
	}

	switch {
	case version < latest:
		return fmt.Errorf("database is at version %d but latest is %d", version, latest)
	case version > latest:
		return fmt.Errorf("database version %d is newer than this binary (%d)", version, latest)
	}
	return nil
}

// MigrateUp applies every pending migration. An up-to-date database is not an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// LatestVersion is the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading migration files: %w", err)
	}
	defer src.Close()
	return latestVersion(src)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}

	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			// os.ErrNotExist past the last file
			return version, nil
		}
		version = next
	}
}
