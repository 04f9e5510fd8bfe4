// Package history persists recent form inputs and named settings in DuckDB.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/marcboeker/go-duckdb"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
)

var historyLog = logging.Module("history")

// DefaultMaxEntries is how many values each history list keeps.
const DefaultMaxEntries = 10

var (
	ErrInvalidKind       = errors.New("invalid history kind")
	ErrSettingsNotFound  = errors.New("settings not found")
	ErrInvalidSettings   = errors.New("settings must be valid JSON")
	ErrInvalidSettingKey = errors.New("settings name must not be empty")
)

// Store is a DuckDB-backed history and settings store.
type Store struct {
	db         *sql.DB
	mu         sync.Mutex // serializes writers
	seq        int64
	maxEntries int
}

// Open opens or creates the database at path. An empty path opens an
// in-memory database.
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=1",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	// Each connection to an in-memory database would see its own copy.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS history (
			kind    VARCHAR NOT NULL,
			value   VARCHAR NOT NULL,
			seq     BIGINT NOT NULL,
			used_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name       VARCHAR PRIMARY KEY,
			data       VARCHAR NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	s := &Store{db: db, maxEntries: maxEntries}
	if err := db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM history`).Scan(&s.seq); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading history sequence: %w", err)
	}

	historyLog.Debug().Str("path", path).Int("max_entries", maxEntries).Msg("history store opened")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record moves value to the front of the kind's list, dropping the oldest
// values beyond the limit. Blank values are ignored.
func (s *Store) Record(ctx context.Context, kind models.HistoryKind, value string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE kind = ? AND value = ?`, string(kind), value); err != nil {
		return fmt.Errorf("removing previous entry: %w", err)
	}
	next := s.seq + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (kind, value, seq, used_at) VALUES (?, ?, ?, ?)`,
		string(kind), value, next, time.Now().UTC()); err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	trim := fmt.Sprintf(`
		DELETE FROM history
		WHERE kind = ? AND seq NOT IN (
			SELECT seq FROM history WHERE kind = ? ORDER BY seq DESC LIMIT %d
		)`, s.maxEntries)
	if _, err := tx.ExecContext(ctx, trim, string(kind), string(kind)); err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.seq = next
	return nil
}

// Recent returns up to limit values of kind, most recent first. limit <= 0
// returns the whole list.
func (s *Store) Recent(ctx context.Context, kind models.HistoryKind, limit int) ([]models.HistoryEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT value, used_at FROM history WHERE kind = ? ORDER BY seq DESC LIMIT %d`, limit),
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		e := models.HistoryEntry{Kind: kind}
		if err := rows.Scan(&e.Value, &e.UsedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear empties one history list.
func (s *Store) Clear(ctx context.Context, kind models.HistoryKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE kind = ?`, string(kind))
	return err
}

// SaveSettings stores a named JSON document, replacing any previous one.
func (s *Store) SaveSettings(ctx context.Context, name string, data []byte) (*models.SavedSettings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSettingKey
	}
	if !sonic.Valid(data) {
		return nil, ErrInvalidSettings
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("replacing settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (name, data, updated_at) VALUES (?, ?, ?)`,
		name, string(data), now); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.SavedSettings{Name: name, Data: append([]byte(nil), data...), UpdatedAt: now}, nil
}

// LoadSettings returns a named JSON document.
func (s *Store) LoadSettings(ctx context.Context, name string) (*models.SavedSettings, error) {
	var (
		data string
		out  = models.SavedSettings{Name: name}
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM settings WHERE name = ?`, name).Scan(&data, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	out.Data = []byte(data)
	return &out, nil
}

// ListSettings returns the names of all saved settings, newest first.
func (s *Store) ListSettings(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM settings ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
