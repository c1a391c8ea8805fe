package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStateStore implements store.StateStore using PostgreSQL
type PostgresStateStore struct {
	pool      DBPool
	tableName string
	now       func() time.Time
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "archviz_state"
}

// NewPostgresStateStore creates a new Postgres state store and makes sure its table exists
func NewPostgresStateStore(ctx context.Context, opts PostgresOptions) (*PostgresStateStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewPostgresStateStoreWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStateStoreWithPool creates a new Postgres state store with an existing pool
// Useful for testing with mocks
func NewPostgresStateStoreWithPool(pool DBPool, tableName string) *PostgresStateStore {
	if tableName == "" {
		tableName = "archviz_state"
	}
	return &PostgresStateStore{
		pool:      pool,
		tableName: tableName,
		now:       time.Now,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresStateStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			system TEXT NOT NULL,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStateStore) Close() error {
	s.pool.Close()
	return nil
}

// Save stores the state under key
func (s *PostgresStateStore) Save(ctx context.Context, key string, state *graph.PersistedState) error {
	data, err := store.Marshal(state)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, system, document, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			system = EXCLUDED.system,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query, key, state.System, data, s.now())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load retrieves the state stored under key
func (s *PostgresStateStore) Load(ctx context.Context, key string) (*graph.PersistedState, error) {
	query := fmt.Sprintf(`
		SELECT document
		FROM %s
		WHERE key = $1
	`, s.tableName)

	var document []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return store.Unmarshal(document)
}

// Delete removes the state stored under key
func (s *PostgresStateStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// List returns the stored keys in ascending order
func (s *PostgresStateStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT key FROM %s ORDER BY key ASC", s.tableName)
	rows, err := s.pool.Query(ctx, query)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return keys, nil
}
