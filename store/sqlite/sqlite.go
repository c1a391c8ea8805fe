package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

// SqliteStateStore implements store.StateStore using SQLite
type SqliteStateStore struct {
	db        *sql.DB
	tableName string
	now       func() time.Time
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "archviz_state"
}

// NewSqliteStateStore creates a new SQLite state store
func NewSqliteStateStore(opts SqliteOptions) (*SqliteStateStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "archviz_state"
	}

	s := &SqliteStateStore{
		db:        db,
		tableName: tableName,
		now:       time.Now,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteStateStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			system TEXT NOT NULL,
			document TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteStateStore) Close() error {
	return s.db.Close()
}

// Save stores the state under key
func (s *SqliteStateStore) Save(ctx context.Context, key string, state *graph.PersistedState) error {
	data, err := store.Marshal(state)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, system, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			system = excluded.system,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query, key, state.System, string(data), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load retrieves the state stored under key
func (s *SqliteStateStore) Load(ctx context.Context, key string) (*graph.PersistedState, error) {
	query := fmt.Sprintf(`SELECT document FROM %s WHERE key = ?`, s.tableName)

	var document string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return store.Unmarshal([]byte(document))
}

// Delete removes the state stored under key
func (s *SqliteStateStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// List returns the stored keys in ascending order
func (s *SqliteStateStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT key FROM %s ORDER BY key ASC", s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Entry describes a stored session without decoding it.
type Entry struct {
	Key       string
	System    string
	UpdatedAt time.Time
}

// Entries returns every stored session, most recently updated first.
func (s *SqliteStateStore) Entries(ctx context.Context) ([]Entry, error) {
	query := fmt.Sprintf("SELECT key, system, updated_at FROM %s ORDER BY updated_at DESC, key ASC", s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.System, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
