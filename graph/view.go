package graph

import "sync"

// View is the render-ready subgraph derived from the canonical graph.
type View struct {
	Nodes       []Node
	Edges       []Edge
	Highlighted map[string]bool
}

// NodeIDs returns the ids of the visible nodes in order.
func (v *View) NodeIDs() []string {
	ids := make([]string, len(v.Nodes))
	for i, n := range v.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgeIDs returns the ids of the visible edges in order.
func (v *View) EdgeIDs() []string {
	ids := make([]string, len(v.Edges))
	for i, e := range v.Edges {
		ids[i] = e.ID
	}
	return ids
}

// SameMembership reports whether v and o contain the same node and edge ids.
func (v *View) SameMembership(o *View) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return sameIDSet(v.NodeIDs(), o.NodeIDs()) && sameIDSet(v.EdgeIDs(), o.EdgeIDs())
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Visible reports whether n passes f.
func (f Filters) Visible(n Node) bool {
	if !f.HasType(n.Type) {
		return false
	}
	switch f.Expansion {
	case ExpansionExpandable:
		if !n.Expandable {
			return false
		}
	case ExpansionLeaf:
		if n.Expandable {
			return false
		}
	}
	return n.Level <= f.MaxDepth
}

// DeriveView computes the visible subgraph. An edge is visible only when both of its
// endpoints are visible. The inputs are never modified.
func DeriveView(nodes []Node, edges []Edge, filters Filters, searchTerm string) *View {
	v := &View{
		Nodes:       make([]Node, 0, len(nodes)),
		Edges:       make([]Edge, 0, len(edges)),
		Highlighted: map[string]bool{},
	}

	visible := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if !filters.Visible(n) {
			continue
		}
		if _, dup := visible[n.ID]; dup {
			continue
		}
		visible[n.ID] = struct{}{}
		v.Nodes = append(v.Nodes, n.Clone())
		if MatchesSearch(n.Label, searchTerm) {
			v.Highlighted[n.ID] = true
		}
	}

	for _, e := range edges {
		_, src := visible[e.Source]
		_, dst := visible[e.Target]
		if src && dst {
			v.Edges = append(v.Edges, e)
		}
	}
	return v
}

// ViewCache memoizes DeriveView over a Store. The same *View is returned as long as
// the graph, filter and search revisions are unchanged.
type ViewCache struct {
	store *Store

	mu   sync.Mutex
	rev  Revision
	view *View
}

// NewViewCache creates a cache bound to store.
func NewViewCache(store *Store) *ViewCache {
	return &ViewCache{store: store}
}

// View returns the current visible subgraph.
func (c *ViewCache) View() *View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	rev := c.store.rev
	rev.Selection = 0
	if c.view != nil && rev == c.rev {
		return c.view
	}

	c.view = DeriveView(c.store.nodes, c.store.edges, c.store.filters, c.store.searchTerm)
	c.rev = rev
	return c.view
}
