// Package database persists the command history in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"previewhub/internal/database/migrations"
	"previewhub/internal/hub"
	"previewhub/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrOperationNotFound is returned when finishing an unknown operation.
var ErrOperationNotFound = errors.New("operation not found")

// SQLiteHistory implements hub.History on top of a SQLite database.
type SQLiteHistory struct {
	db    *sql.DB
	clock hub.Clock
	path  string
}

// NewSQLiteHistory opens the database at path and brings its schema up to date.
// path can be a file path or ":memory:". A nil clock uses the wall clock.
func NewSQLiteHistory(path string, clock hub.Clock) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	if clock == nil {
		clock = hub.RealClock{}
	}
	return &SQLiteHistory{db: db, clock: clock, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// StartOperation records a running operation and returns it.
func (s *SQLiteHistory) StartOperation(name, parameters string) (*model.Operation, error) {
	op := &model.Operation{
		ID:         uuid.NewString(),
		Name:       name,
		Parameters: parameters,
		StartedAt:  s.clock.Now().UTC(),
		Status:     model.OperationRunning,
	}
	_, err := s.db.Exec(
		`INSERT INTO operations (id, name, parameters, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Name, op.Parameters, op.StartedAt, op.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return op, nil
}

// FinishOperation stamps the finish time and final status of operation id.
func (s *SQLiteHistory) FinishOperation(id string, status string) error {
	res, err := s.db.Exec(
		`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		s.clock.Now().UTC(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}
	return nil
}

// ListOperations returns up to limit operations, newest first.
func (s *SQLiteHistory) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.Query(
		`SELECT id, name, parameters, started_at, finished_at, status
		   FROM operations
		  ORDER BY started_at DESC, rowid DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		var op model.Operation
		if err := rows.Scan(&op.ID, &op.Name, &op.Parameters, &op.StartedAt, &op.FinishedAt, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteHistory) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteHistory) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteHistory) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteHistory implements hub.History
var _ hub.History = (*SQLiteHistory)(nil)
