package store

import (
	"context"
	"sync"
	"time"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/log"
)

// AutoSaver is a graph.StoreListener that writes the persisted state to a
// backend after every event changing it. Unchanged states are not written again.
type AutoSaver struct {
	backend StateStore
	key     string
	timeout time.Duration
	logger  log.Logger

	mu      sync.Mutex
	last    string
	saves   int
	lastErr error
}

// AutoSaverOption configures an AutoSaver.
type AutoSaverOption func(*AutoSaver)

// WithKey sets the key the state is saved under. Defaults to DefaultKey.
func WithKey(key string) AutoSaverOption {
	return func(a *AutoSaver) {
		a.key = key
	}
}

// WithTimeout bounds every save. Defaults to 5s.
func WithTimeout(d time.Duration) AutoSaverOption {
	return func(a *AutoSaver) {
		a.timeout = d
	}
}

// WithLogger sets the logger save failures are reported to.
func WithLogger(l log.Logger) AutoSaverOption {
	return func(a *AutoSaver) {
		a.logger = log.OrNoOp(l)
	}
}

// NewAutoSaver creates an AutoSaver writing to backend.
func NewAutoSaver(backend StateStore, opts ...AutoSaverOption) *AutoSaver {
	a := &AutoSaver{
		backend: backend,
		key:     DefaultKey,
		timeout: 5 * time.Second,
		logger:  log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach registers an AutoSaver on s and returns it with the function that
// detaches it.
func Attach(s *graph.Store, backend StateStore, opts ...AutoSaverOption) (*AutoSaver, func()) {
	a := NewAutoSaver(backend, opts...)
	return a, s.AddListener(a)
}

// OnStoreEvent saves the state after persistent changes.
func (a *AutoSaver) OnStoreEvent(ctx context.Context, event graph.StoreEvent, s *graph.Store) {
	if !event.Persistent() {
		return
	}
	if err := a.Flush(ctx, s); err != nil {
		a.logger.Error("autosave after %s failed: %v", event, err)
	}
}

// Flush saves the current state of s unless it equals the last saved one.
func (a *AutoSaver) Flush(ctx context.Context, s *graph.Store) error {
	// The snapshot is taken under a.mu so the last flush to save also saw
	// the latest state.
	a.mu.Lock()
	defer a.mu.Unlock()

	ps := s.Persisted()
	fp, err := Fingerprint(&ps)
	if err != nil {
		return err
	}
	if fp == a.last {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.backend.Save(ctx, a.key, &ps); err != nil {
		a.lastErr = err
		return err
	}
	a.last = fp
	a.saves++
	a.lastErr = nil
	a.logger.Debug("saved %q: %d nodes, %d history items", a.key, len(ps.Nodes), len(ps.History))
	return nil
}

// Saves returns how many documents were written.
func (a *AutoSaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// LastError returns the error of the last save attempt, if it failed.
func (a *AutoSaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}
