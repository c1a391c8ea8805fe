package graph

import (
	"context"
	"sync"
)

// StoreEvent identifies the mutation that triggered a listener notification.
type StoreEvent string

const (
	// EventGraphSet indicates the canonical graph was replaced by SetGraph
	EventGraphSet StoreEvent = "graph_set"

	// EventNodeExpanded indicates an expansion delta was merged
	EventNodeExpanded StoreEvent = "node_expanded"

	// EventNodesAdded indicates AddNodes appended at least one node
	EventNodesAdded StoreEvent = "nodes_added"

	// EventEdgesAdded indicates AddEdges appended at least one edge
	EventEdgesAdded StoreEvent = "edges_added"

	// EventSelectionChanged indicates the selected node changed
	EventSelectionChanged StoreEvent = "selection_changed"

	// EventFiltersChanged indicates the filters were patched
	EventFiltersChanged StoreEvent = "filters_changed"

	// EventSearchChanged indicates the search term changed
	EventSearchChanged StoreEvent = "search_changed"

	// EventNodePinned indicates a pin was set or released
	EventNodePinned StoreEvent = "node_pinned"

	// EventVersionRestored indicates a history snapshot became canonical
	EventVersionRestored StoreEvent = "version_restored"

	// EventLoadingChanged indicates the loading flag flipped
	EventLoadingChanged StoreEvent = "loading_changed"

	// EventErrorChanged indicates the error message was set or cleared
	EventErrorChanged StoreEvent = "error_changed"

	// EventReset indicates the store was reset
	EventReset StoreEvent = "reset"

	// EventHydrated indicates persisted state was loaded into the store
	EventHydrated StoreEvent = "hydrated"
)

// Structural reports whether the event can change the canonical nodes or edges.
func (e StoreEvent) Structural() bool {
	switch e {
	case EventGraphSet, EventNodeExpanded, EventNodesAdded, EventEdgesAdded,
		EventNodePinned, EventVersionRestored, EventReset, EventHydrated:
		return true
	}
	return false
}

// Persistent reports whether the event changes data that survives a reload
// (system, nodes, edges, history).
func (e StoreEvent) Persistent() bool {
	return e.Structural()
}

// StoreListener is notified after every Store mutation.
type StoreListener interface {
	OnStoreEvent(ctx context.Context, event StoreEvent, store *Store)
}

// StoreListenerFunc is a function adapter for StoreListener
type StoreListenerFunc func(ctx context.Context, event StoreEvent, store *Store)

// OnStoreEvent implements the StoreListener interface
func (f StoreListenerFunc) OnStoreEvent(ctx context.Context, event StoreEvent, store *Store) {
	f(ctx, event, store)
}

// listenerSet holds registered listeners. Registration order is notification order.
type listenerSet struct {
	mu        sync.RWMutex
	nextID    int
	listeners []registeredListener
}

type registeredListener struct {
	id       int
	listener StoreListener
}

func (ls *listenerSet) add(l StoreListener) func() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.nextID++
	id := ls.nextID
	ls.listeners = append(ls.listeners, registeredListener{id: id, listener: l})
	return func() { ls.remove(id) }
}

func (ls *listenerSet) remove(id int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for i, rl := range ls.listeners {
		if rl.id == id {
			ls.listeners = append(ls.listeners[:i], ls.listeners[i+1:]...)
			return
		}
	}
}

func (ls *listenerSet) snapshot() []StoreListener {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	out := make([]StoreListener, len(ls.listeners))
	for i, rl := range ls.listeners {
		out[i] = rl.listener
	}
	return out
}
