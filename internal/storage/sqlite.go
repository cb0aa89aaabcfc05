// Package storage persists accepted rule payloads so a restart does not
// require re-fetching the configuration.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snapledger/snapledger/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements rules.PayloadStore using SQLite. Each accepted
// payload is kept as its own row, newest wins on load.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a SQLite payload store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS rule_payloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version TEXT NOT NULL,
			payload BLOB NOT NULL,
			accepted_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create rule_payloads table: %w", err)
	}
	return nil
}

// SavePayload stores one accepted payload. Called off the classification hot
// path, only during rule updates.
func (s *SQLiteStore) SavePayload(ctx context.Context, version string, payload []byte) error {
	if version == "" {
		return fmt.Errorf("version must not be empty")
	}
	if len(payload) == 0 {
		return fmt.Errorf("payload must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rule_payloads (version, payload, accepted_at) VALUES (?, ?, ?)",
		version, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save rule payload: %w", err)
	}
	return nil
}

// LatestPayload returns the most recently accepted payload, or
// common.ErrNoStoredPayload if none has ever been saved.
func (s *SQLiteStore) LatestPayload(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM rule_payloads ORDER BY id DESC LIMIT 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNoStoredPayload
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rule payload: %w", err)
	}
	return payload, nil
}

// PayloadHistory returns the stored payload versions, newest first, capped
// at limit. Used by diagnostics surfaces.
func (s *SQLiteStore) PayloadHistory(ctx context.Context, limit int) ([]PayloadRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT version, accepted_at FROM rule_payloads ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payload history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []PayloadRecord
	for rows.Next() {
		var rec PayloadRecord
		if err := rows.Scan(&rec.Version, &rec.AcceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payload record: %w", err)
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// PayloadRecord describes one stored payload version.
type PayloadRecord struct {
	AcceptedAt time.Time
	Version    string
}
