package store

import (
	"context"
	"errors"

	"github.com/smallnest/archviz/graph"
)

// DefaultKey is the key the persisted state is saved under unless configured otherwise.
const DefaultKey = "archviz-storage"

// ErrNotFound is returned by Load when no state is stored under the key.
var ErrNotFound = errors.New("persisted state not found")

// StateStore persists graph.PersistedState documents by key.
type StateStore interface {
	// Save stores state under key, replacing any previous document.
	Save(ctx context.Context, key string, state *graph.PersistedState) error

	// Load retrieves the state stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) (*graph.PersistedState, error)

	// Delete removes the state stored under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the resources held by the backend.
	Close() error
}

// Restore loads the state stored under key into s. It reports false, without
// touching s, when nothing is stored.
func Restore(ctx context.Context, backend StateStore, key string, s *graph.Store) (bool, error) {
	ps, err := backend.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.Hydrate(*ps)
	return true, nil
}
