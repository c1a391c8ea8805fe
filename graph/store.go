package graph

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/smallnest/archviz/log"
)

// Revision counts changes per input of the view derivation.
// Two equal revisions mean the corresponding inputs are unchanged.
type Revision struct {
	Graph     uint64
	Filters   uint64
	Search    uint64
	Selection uint64
}

// GraphState is a read-only copy of everything a Store holds.
type GraphState struct {
	System          string
	Version         int
	Nodes           []Node
	Edges           []Edge
	SelectedNodeID  string
	ExpandedNodeIDs []string
	SearchTerm      string
	Filters         Filters
	History         []HistoryItem
	IsLoading       bool
	Error           string
}

// Store is the single source of truth for the architecture graph of a session.
//
// All mutations are serialized; listeners run synchronously after the lock is
// released, in registration order.
type Store struct {
	mu sync.RWMutex

	system    string
	version   int
	nodes     []Node
	edges     []Edge
	nodeIndex map[string]int
	edgeIndex map[string]struct{}

	selected   string
	expanded   []string
	searchTerm string
	filters    Filters
	history    []HistoryItem
	epoch      uint64
	loading    bool
	errMsg     string
	rev        Revision

	listeners listenerSet

	now    func() time.Time
	newID  func() string
	logger log.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the history item id generator.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) StoreOption {
	return func(s *Store) { s.logger = log.OrNoOp(l) }
}

// NewStore creates an empty store with default filters.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		nodes:     []Node{},
		edges:     []Edge{},
		nodeIndex: map[string]int{},
		edgeIndex: map[string]struct{}{},
		expanded:  []string{},
		filters:   DefaultFilters(),
		history:   []HistoryItem{},
		now:       time.Now,
		newID:     newHistoryID,
		logger:    log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddListener registers l and returns a function that unregisters it.
func (s *Store) AddListener(l StoreListener) (remove func()) {
	return s.listeners.add(l)
}

func (s *Store) notify(event StoreEvent) {
	ctx := context.Background()
	for _, l := range s.listeners.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("store listener panicked on %s: %v", event, r)
				}
			}()
			l.OnStoreEvent(ctx, event, s)
		}()
	}
}

// mutate runs fn under the write lock and notifies listeners when fn reports a change.
func (s *Store) mutate(event StoreEvent, fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()

	if changed {
		s.notify(event)
	}
	return changed
}

// SetGraph replaces the canonical graph with nodes and edges. It increments the
// version, records a snapshot of the incoming graph labeled action, and clears the
// selection and the expanded node list. No deduplication against the previous graph
// is performed.
func (s *Store) SetGraph(system string, nodes []Node, edges []Edge, action string) {
	s.setGraph(system, nodes, edges, action, func() bool { return true })
}

// SetGraphAt is SetGraph applied only if the store still holds the graph
// identified by tag. It reports whether the graph was replaced.
func (s *Store) SetGraphAt(tag GraphTag, system string, nodes []Node, edges []Edge, action string) bool {
	return s.setGraph(system, nodes, edges, action, func() bool {
		return s.tag() == tag
	})
}

func (s *Store) setGraph(system string, nodes []Node, edges []Edge, action string, current func() bool) bool {
	if action == "" {
		action = DefaultBuildAction
	}
	set := s.mutate(EventGraphSet, func() bool {
		if !current() {
			return false
		}
		s.system = system
		s.replaceGraph(cloneNodes(nodes), cloneEdges(edges))
		s.version++
		s.history = prependHistory(s.history, s.snapshot(action))
		s.expanded = []string{}
		s.selected = ""
		s.rev.Selection++
		return true
	})
	if set {
		s.logger.Debug("graph set for %q: %d nodes, %d edges, version %d", system, len(nodes), len(edges), s.Version())
	}
	return set
}

// ExpandNode merges the delta returned by expanding nodeID. Nodes and edges whose id
// is already present are dropped, survivors are appended in order. nodeID is always
// recorded as expanded and a snapshot of the merged graph is pushed to history.
// The version is not changed.
func (s *Store) ExpandNode(nodeID string, newNodes []Node, newEdges []Edge) {
	s.expand(nodeID, newNodes, newEdges, func() bool { return true })
}

// ExpandNodeAt is ExpandNode applied only if the store still holds the graph
// identified by tag. It reports whether the delta was merged.
func (s *Store) ExpandNodeAt(tag GraphTag, nodeID string, newNodes []Node, newEdges []Edge) bool {
	return s.expand(nodeID, newNodes, newEdges, func() bool {
		return s.tag() == tag
	})
}

func (s *Store) expand(nodeID string, newNodes []Node, newEdges []Edge, current func() bool) bool {
	var addedNodes, addedEdges int
	merged := s.mutate(EventNodeExpanded, func() bool {
		if !current() {
			return false
		}
		addedNodes = s.appendNodes(newNodes)
		addedEdges = s.appendEdges(newEdges)
		s.expanded = append(s.expanded, nodeID)
		s.history = prependHistory(s.history, s.snapshot(ExpandAction(nodeID)))
		return true
	})
	if merged {
		s.logger.Debug("expanded %s: +%d nodes, +%d edges", nodeID, addedNodes, addedEdges)
	}
	return merged
}

// AddNodes appends nodes whose id is not yet present and returns how many were added.
func (s *Store) AddNodes(nodes []Node) int {
	var added int
	s.mutate(EventNodesAdded, func() bool {
		added = s.appendNodes(nodes)
		return added > 0
	})
	return added
}

// AddEdges appends edges whose id is not yet present and returns how many were added.
func (s *Store) AddEdges(edges []Edge) int {
	var added int
	s.mutate(EventEdgesAdded, func() bool {
		added = s.appendEdges(edges)
		return added > 0
	})
	return added
}

// SelectNode sets the selection. An empty id clears it. The id is not validated.
func (s *Store) SelectNode(id string) {
	s.mutate(EventSelectionChanged, func() bool {
		if s.selected == id {
			return false
		}
		s.selected = id
		s.rev.Selection++
		return true
	})
}

// SetFilters shallow-merges patch into the current filters.
func (s *Store) SetFilters(patch FilterPatch) {
	s.mutate(EventFiltersChanged, func() bool {
		s.filters = s.filters.merge(patch)
		s.rev.Filters++
		return true
	})
}

// SetSearchTerm replaces the search term used for highlighting.
func (s *Store) SetSearchTerm(term string) {
	s.mutate(EventSearchChanged, func() bool {
		if s.searchTerm == term {
			return false
		}
		s.searchTerm = term
		s.rev.Search++
		return true
	})
}

// PinNode fixes the position of node id. Passing nil for both coordinates releases
// the pin back to the layout engine. Unknown ids are ignored.
func (s *Store) PinNode(id string, x, y *float64) {
	s.mutate(EventNodePinned, func() bool {
		i, ok := s.nodeIndex[id]
		if !ok {
			return false
		}
		n := s.nodes[i]
		n.FX = copyFloat(x)
		n.FY = copyFloat(y)
		s.nodes[i] = n
		s.rev.Graph++
		return true
	})
}

// Pin is a convenience for PinNode with both coordinates set.
func (s *Store) Pin(id string, x, y float64) {
	s.PinNode(id, &x, &y)
}

// Unpin is a convenience for PinNode releasing both axes.
func (s *Store) Unpin(id string) {
	s.PinNode(id, nil, nil)
}

// RestoreVersion makes a copy of the snapshot historyID canonical and clears the
// selection and expanded list. History and version are untouched. It reports
// whether the snapshot was found.
func (s *Store) RestoreVersion(historyID string) bool {
	return s.mutate(EventVersionRestored, func() bool {
		i := slices.IndexFunc(s.history, func(h HistoryItem) bool { return h.ID == historyID })
		if i < 0 {
			return false
		}
		item := s.history[i]
		s.system = item.System
		s.replaceGraph(cloneNodes(item.Nodes), cloneEdges(item.Edges))
		s.selected = ""
		s.rev.Selection++
		s.expanded = []string{}
		return true
	})
}

// SetLoading sets the transient loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mutate(EventLoadingChanged, func() bool {
		if s.loading == loading {
			return false
		}
		s.loading = loading
		return true
	})
}

// SetError sets the user-facing error message. An empty message clears it.
func (s *Store) SetError(message string) {
	s.mutate(EventErrorChanged, func() bool {
		if s.errMsg == message {
			return false
		}
		s.errMsg = message
		return true
	})
}

// Reset clears the graph, the system, the version and every transient field.
// History is kept so earlier snapshots stay restorable.
func (s *Store) Reset() {
	s.mutate(EventReset, func() bool {
		s.system = ""
		s.version = 0
		s.replaceGraph([]Node{}, []Edge{})
		s.selected = ""
		s.expanded = []string{}
		s.searchTerm = ""
		s.filters = DefaultFilters()
		s.loading = false
		s.errMsg = ""
		s.rev.Selection++
		s.rev.Search++
		s.rev.Filters++
		return true
	})
}

// replaceGraph swaps the canonical collections and rebuilds the id indexes.
// Callers hold the write lock.
func (s *Store) replaceGraph(nodes []Node, edges []Edge) {
	s.epoch++
	s.nodes = nodes
	s.edges = edges
	s.nodeIndex = make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := s.nodeIndex[n.ID]; !dup {
			s.nodeIndex[n.ID] = i
		}
	}
	s.edgeIndex = make(map[string]struct{}, len(edges))
	for _, e := range edges {
		s.edgeIndex[e.ID] = struct{}{}
	}
	s.rev.Graph++
}

func (s *Store) appendNodes(nodes []Node) int {
	added := 0
	for _, n := range nodes {
		if _, exists := s.nodeIndex[n.ID]; exists {
			continue
		}
		s.nodeIndex[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n.Clone())
		added++
	}
	if added > 0 {
		s.rev.Graph++
	}
	return added
}

func (s *Store) appendEdges(edges []Edge) int {
	added := 0
	for _, e := range edges {
		if _, exists := s.edgeIndex[e.ID]; exists {
			continue
		}
		s.edgeIndex[e.ID] = struct{}{}
		s.edges = append(s.edges, e)
		added++
	}
	if added > 0 {
		s.rev.Graph++
	}
	return added
}

func (s *Store) snapshot(action string) HistoryItem {
	return HistoryItem{
		ID:        s.newID(),
		Timestamp: s.now(),
		Action:    action,
		System:    s.system,
		Nodes:     cloneNodes(s.nodes),
		Edges:     cloneEdges(s.edges),
	}
}

// State returns a copy of the whole store.
func (s *Store) State() GraphState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return GraphState{
		System:          s.system,
		Version:         s.version,
		Nodes:           cloneNodes(s.nodes),
		Edges:           cloneEdges(s.edges),
		SelectedNodeID:  s.selected,
		ExpandedNodeIDs: slices.Clone(s.expanded),
		SearchTerm:      s.searchTerm,
		Filters:         s.filters.clone(),
		History:         cloneHistory(s.history),
		IsLoading:       s.loading,
		Error:           s.errMsg,
	}
}

// Nodes returns a copy of the canonical nodes.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Edges returns a copy of the canonical edges.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEdges(s.edges)
}

// Node looks up a canonical node by id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// System returns the active system identifier.
func (s *Store) System() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// Version returns the number of SetGraph calls since the last Reset.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// History returns the snapshots, most recent first.
func (s *Store) History() []HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneHistory(s.history)
}

// Filters returns the current filters.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

// SearchTerm returns the current search term.
func (s *Store) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

// SelectedNodeID returns the selected node id, or "" when nothing is selected.
func (s *Store) SelectedNodeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// ExpandedNodeIDs returns the ids passed to ExpandNode since the last graph replacement.
func (s *Store) ExpandedNodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expanded)
}

// IsExpanded reports whether id was expanded since the last graph replacement.
func (s *Store) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.expanded, id)
}

// IsLoading returns the loading flag.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the current error message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Revision returns the current change counters.
func (s *Store) Revision() Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// GraphTag identifies the canonical graph a request was dispatched against.
// Replacing the graph wholesale (build, restore, reset, hydrate) yields a new
// tag even when system and version repeat.
type GraphTag struct {
	System  string
	Version int
	epoch   uint64
}

// Tag returns the tag of the graph currently held. Asynchronous callers record
// it at dispatch and compare it when their result arrives.
func (s *Store) Tag() GraphTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tag()
}

// Current reports whether the store still holds the graph identified by tag.
func (s *Store) Current(tag GraphTag) bool {
	return s.Tag() == tag
}

func (s *Store) tag() GraphTag {
	return GraphTag{System: s.system, Version: s.version, epoch: s.epoch}
}

// MatchesSearch reports whether label contains term, ignoring case. An empty term
// matches nothing.
func MatchesSearch(label, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(label), strings.ToLower(term))
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
