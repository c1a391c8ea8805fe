// Package store persists archviz sessions.
//
// A session is the graph.PersistedState of a graph.Store: the system name, the
// canonical nodes and edges (including pins) and the snapshot history. It is
// written as a small JSON envelope:
//
//	{"state": {"system": "...", "nodes": [...], "edges": [...], "history": [...]}, "version": 0}
//
// Backends implement StateStore and live in sub-packages:
//
//   - memory: process memory, for tests and ephemeral sessions
//   - file: one file per key, optionally zstd-compressed
//   - redis: one string value per key with an optional TTL
//   - sqlite: one row per key in a local database
//   - postgres: one row per key with a JSONB document
//
// The backend sub-package opens the one selected by configuration.
//
// # Automatic saving
//
// An AutoSaver is a graph.StoreListener that saves the state after every event
// that changes persisted data. States are fingerprinted with BLAKE3 so repeated
// events that leave the state unchanged do not write again.
//
//	backend, _ := file.NewFileStateStore(file.FileOptions{Dir: dir})
//	saver, detach := store.Attach(gs, backend)
//	defer detach()
//
// On startup, Restore loads the saved session into a fresh store:
//
//	ok, err := store.Restore(ctx, backend, store.DefaultKey, gs)
package store
