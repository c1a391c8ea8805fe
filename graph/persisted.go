package graph

// PersistedState is the part of a Store that survives a reload. Edge endpoints
// are plain node ids, in the canonical graph and in every snapshot.
type PersistedState struct {
	System  string        `json:"system"`
	Nodes   []Node        `json:"nodes"`
	Edges   []Edge        `json:"edges"`
	History []HistoryItem `json:"history"`
}

// Persisted returns a deep copy of the persistable part of the store.
func (s *Store) Persisted() PersistedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return PersistedState{
		System:  s.system,
		Nodes:   cloneNodes(s.nodes),
		Edges:   cloneEdges(s.edges),
		History: cloneHistory(s.history),
	}
}

// Hydrate replaces the store content with ps. Transient fields (selection, search
// term, filters, loading, error, expanded list, version) return to their defaults.
// History beyond HistoryLimit is dropped.
func (s *Store) Hydrate(ps PersistedState) {
	s.mutate(EventHydrated, func() bool {
		nodes := ps.Nodes
		if nodes == nil {
			nodes = []Node{}
		}
		edges := ps.Edges
		if edges == nil {
			edges = []Edge{}
		}
		s.system = ps.System
		s.version = 0
		s.replaceGraph(cloneNodes(nodes), cloneEdges(edges))

		history := cloneHistory(ps.History)
		if len(history) > HistoryLimit {
			history = history[:HistoryLimit]
		}
		s.history = history

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
