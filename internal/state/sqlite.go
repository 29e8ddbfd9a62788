package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teamcutter/aptcache/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_files (
    uri           TEXT PRIMARY KEY,
    filename      TEXT NOT NULL,
    etag          TEXT NOT NULL DEFAULT '',
    last_modified TEXT NOT NULL DEFAULT '',
    sha256        TEXT NOT NULL DEFAULT '',
    size          INTEGER NOT NULL DEFAULT 0,
    fetched_at    TEXT NOT NULL
);
`

// SQLiteState remembers, per index URI, what was last downloaded so a
// refresh can issue conditional requests and recognise unchanged files.
type SQLiteState struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

func NewSQLite(dbPath string) (*SQLiteState, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteState{db: db, dbPath: dbPath}, nil
}

// Get returns the record for uri, or nil when nothing was stored.
func (s *SQLiteState) Get(uri string) (*domain.FetchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec domain.FetchRecord
	var fetchedAt string

	err := s.db.QueryRow(`
		SELECT uri, filename, etag, last_modified, sha256, size, fetched_at
		FROM index_files WHERE uri = ?`, uri).Scan(
		&rec.URI, &rec.Filename, &rec.ETag, &rec.LastModified, &rec.SHA256, &rec.Size, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
	return &rec, nil
}

func (s *SQLiteState) Put(rec *domain.FetchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedAt := rec.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO index_files
		(uri, filename, etag, last_modified, sha256, size, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.URI, rec.Filename, rec.ETag, rec.LastModified, rec.SHA256, rec.Size,
		fetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteState) Remove(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM index_files WHERE uri = ?", uri)
	return err
}

func (s *SQLiteState) List() ([]domain.FetchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT uri, filename, etag, last_modified, sha256, size, fetched_at
		FROM index_files ORDER BY uri`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.FetchRecord
	for rows.Next() {
		var rec domain.FetchRecord
		var fetchedAt string
		if err := rows.Scan(&rec.URI, &rec.Filename, &rec.ETag, &rec.LastModified,
			&rec.SHA256, &rec.Size, &fetchedAt); err != nil {
			return nil, err
		}
		rec.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}
