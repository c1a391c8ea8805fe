// Package backend opens the store.StateStore selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smallnest/archviz/config"
	"github.com/smallnest/archviz/store"
	"github.com/smallnest/archviz/store/file"
	"github.com/smallnest/archviz/store/memory"
	"github.com/smallnest/archviz/store/postgres"
	"github.com/smallnest/archviz/store/redis"
	"github.com/smallnest/archviz/store/sqlite"
)

// Backend names accepted by Open.
const (
	Memory   = "memory"
	File     = "file"
	Redis    = "redis"
	Sqlite   = "sqlite"
	Postgres = "postgres"
)

// SqliteFile is the database file created when the sqlite path is a directory.
const SqliteFile = "archviz.db"

// ErrUnknownBackend is returned for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Open creates the backend named by cfg.Backend. Remote backends are checked
// for reachability before they are returned.
func Open(ctx context.Context, cfg config.Storage) (store.StateStore, error) {
	switch cfg.Backend {
	case Memory:
		return memory.NewMemoryStateStore(), nil

	case File:
		if cfg.Path == "" {
			return nil, errors.New("file storage requires a path")
		}
		s, err := file.NewFileStateStore(file.FileOptions{Dir: cfg.Path, Compress: cfg.Compress})
		if err != nil {
			return nil, err
		}
		return s, nil

	case Redis:
		s := redis.NewRedisStateStore(redis.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			TTL:      time.Duration(cfg.TTL),
		})
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil

	case Sqlite:
		path, err := sqlitePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		s, err := sqlite.NewSqliteStateStore(sqlite.SqliteOptions{Path: path, TableName: cfg.Table})
		if err != nil {
			return nil, err
		}
		return s, nil

	case Postgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres storage requires a dsn")
		}
		s, err := postgres.NewPostgresStateStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN, TableName: cfg.Table})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// sqlitePath returns the database file for path. A path without extension is a
// directory that receives SqliteFile.
func sqlitePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite storage requires a path")
	}
	if filepath.Ext(path) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
		return path, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(path, SqliteFile), nil
}
