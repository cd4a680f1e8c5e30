package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite via modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the history database at dbPath, creating
// parent directories as needed. Use ":memory:" for testing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS exchanges (
			id           TEXT PRIMARY KEY,
			method       TEXT NOT NULL,
			url          TEXT NOT NULL,
			final_url    TEXT NOT NULL DEFAULT '',
			status_code  INTEGER NOT NULL DEFAULT 0,
			reason       TEXT NOT NULL DEFAULT '',
			redirects    INTEGER NOT NULL DEFAULT 0,
			body_bytes   INTEGER NOT NULL DEFAULT 0,
			content_type TEXT NOT NULL DEFAULT '',
			duration_ns  INTEGER NOT NULL DEFAULT 0,
			error_code   TEXT NOT NULL DEFAULT '',
			error        TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges(created_at);
	`
	if _, err := db.Exec(createIndexSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save persists an entry. An empty ID is replaced with a new UUID and a
// zero CreatedAt with the current time.
func (s *SQLiteStore) Save(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	query := `
		INSERT INTO exchanges (id, method, url, final_url, status_code, reason, redirects,
			body_bytes, content_type, duration_ns, error_code, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			method       = excluded.method,
			url          = excluded.url,
			final_url    = excluded.final_url,
			status_code  = excluded.status_code,
			reason       = excluded.reason,
			redirects    = excluded.redirects,
			body_bytes   = excluded.body_bytes,
			content_type = excluded.content_type,
			duration_ns  = excluded.duration_ns,
			error_code   = excluded.error_code,
			error        = excluded.error
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Method,
		e.URL,
		e.FinalURL,
		e.StatusCode,
		e.Reason,
		e.Redirects,
		e.BodyBytes,
		e.ContentType,
		e.Duration.Nanoseconds(),
		e.ErrorCode,
		e.Error,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: save entry: %w", err)
	}
	return nil
}

const selectColumns = `id, method, url, final_url, status_code, reason, redirects,
	body_bytes, content_type, duration_ns, error_code, error, created_at`

// LoadByID retrieves an entry by its ID. It returns ErrNotFound when there
// is none.
func (s *SQLiteStore) LoadByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM exchanges WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ResolveID expands a unique ID prefix to the full ID.
func (s *SQLiteStore) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM exchanges WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("history: resolve id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("history: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("history: iterate rows: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w %q", ErrAmbiguous, prefix)
	}
}

// List returns the most recent entries first. A limit of 0 or less returns
// every entry.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM exchanges ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e          Entry
		durationNs int64
		createdAt  string
	)
	err := row.Scan(&e.ID, &e.Method, &e.URL, &e.FinalURL, &e.StatusCode, &e.Reason, &e.Redirects,
		&e.BodyBytes, &e.ContentType, &durationNs, &e.ErrorCode, &e.Error, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("history: scan row: %w", err)
	}
	e.Duration = time.Duration(durationNs)

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("history: parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return &e, nil
}

// Delete removes an entry by its ID. It returns ErrNotFound when there is
// none.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("history: delete entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Cleanup removes entries created more than maxAge ago and returns how
// many were deleted.
func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)

	result, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: cleanup entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: rows affected: %w", err)
	}
	return deleted, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
