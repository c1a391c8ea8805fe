package graph

import "slices"

// NodeType is the category of an inferred system component.
type NodeType string

const (
	NodeTypeService  NodeType = "service"
	NodeTypeDatabase NodeType = "database"
	NodeTypeCache    NodeType = "cache"
	NodeTypeGateway  NodeType = "gateway"
	NodeTypeFrontend NodeType = "frontend"
	NodeTypeQueue    NodeType = "queue"
	NodeTypeBackend  NodeType = "backend"
	NodeTypeWorker   NodeType = "worker"
	NodeTypeStorage  NodeType = "storage"
)

// AllNodeTypes returns every known category in display order.
func AllNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeService,
		NodeTypeDatabase,
		NodeTypeCache,
		NodeTypeGateway,
		NodeTypeFrontend,
		NodeTypeQueue,
		NodeTypeBackend,
		NodeTypeWorker,
		NodeTypeStorage,
	}
}

// Valid reports whether t is one of the known categories.
func (t NodeType) Valid() bool {
	return slices.Contains(AllNodeTypes(), t)
}

// Node is a component of the architecture graph.
//
// FX and FY hold the user pin. A nil axis is owned by the layout engine.
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Type        NodeType `json:"type"`
	Level       int      `json:"level"`
	Expandable  bool     `json:"expandable"`
	FX          *float64 `json:"fx,omitempty"`
	FY          *float64 `json:"fy,omitempty"`
}

// Pinned reports whether either axis of the node is pinned.
func (n Node) Pinned() bool {
	return n.FX != nil || n.FY != nil
}

// Clone returns a copy that shares no pointers with n.
func (n Node) Clone() Node {
	c := n
	if n.FX != nil {
		x := *n.FX
		c.FX = &x
	}
	if n.FY != nil {
		y := *n.FY
		c.FY = &y
	}
	return c
}

// Edge is a directed relation between two nodes, referenced by id.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// ExpansionMode selects nodes by their expandable flag.
type ExpansionMode string

const (
	ExpansionAll        ExpansionMode = "all"
	ExpansionExpandable ExpansionMode = "expandable"
	ExpansionLeaf       ExpansionMode = "leaf"
)

// Filters drive the view derivation.
type Filters struct {
	Types     []NodeType    `json:"types"`
	Expansion ExpansionMode `json:"expansion"`
	MaxDepth  int           `json:"maxDepth"`
}

// DefaultMaxDepth is the depth limit of DefaultFilters.
const DefaultMaxDepth = 10

// DefaultFilters shows every category, every expansion state, up to DefaultMaxDepth.
func DefaultFilters() Filters {
	return Filters{
		Types:     AllNodeTypes(),
		Expansion: ExpansionAll,
		MaxDepth:  DefaultMaxDepth,
	}
}

// HasType reports whether t is included.
func (f Filters) HasType(t NodeType) bool {
	return slices.Contains(f.Types, t)
}

func (f Filters) clone() Filters {
	f.Types = slices.Clone(f.Types)
	return f
}

// FilterPatch is a partial Filters value. Nil fields are left unchanged by SetFilters.
type FilterPatch struct {
	Types     []NodeType
	Expansion *ExpansionMode
	MaxDepth  *int
}

// WithTypes returns a patch replacing the category set.
func WithTypes(types ...NodeType) FilterPatch {
	if types == nil {
		types = []NodeType{}
	}
	return FilterPatch{Types: types}
}

// WithExpansion returns a patch replacing the expansion mode.
func WithExpansion(mode ExpansionMode) FilterPatch {
	return FilterPatch{Expansion: &mode}
}

// WithMaxDepth returns a patch replacing the depth limit.
func WithMaxDepth(depth int) FilterPatch {
	return FilterPatch{MaxDepth: &depth}
}

func (f Filters) merge(p FilterPatch) Filters {
	out := f.clone()
	if p.Types != nil {
		out.Types = slices.Clone(p.Types)
	}
	if p.Expansion != nil {
		out.Expansion = *p.Expansion
	}
	if p.MaxDepth != nil {
		out.MaxDepth = *p.MaxDepth
	}
	return out
}

func cloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}
