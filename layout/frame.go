package layout

import (
	"math"

	"github.com/smallnest/archviz/graph"
)

// FrameNode is a visible node joined with its simulated position.
type FrameNode struct {
	graph.Node
	Position    Point
	Selected    bool
	Highlighted bool
}

// FrameEdge is a visible edge joined with the positions of its endpoints.
type FrameEdge struct {
	graph.Edge
	From Point
	To   Point
}

// Frame is everything a renderer needs to draw one image of the scene.
type Frame struct {
	System    string
	Nodes     []FrameNode
	Edges     []FrameEdge
	Transform Transform
	Width     float64
	Height    float64
	Alpha     float64
}

// Node returns the frame node with the given id.
func (f Frame) Node(id string) (FrameNode, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FrameNode{}, false
}

// Bounds returns the bounding box of all node positions in simulation space.
// An empty frame has zero bounds.
func (f Frame) Bounds() (lo, hi Point) {
	if len(f.Nodes) == 0 {
		return Point{}, Point{}
	}
	lo = Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range f.Nodes {
		lo.X = math.Min(lo.X, n.Position.X)
		lo.Y = math.Min(lo.Y, n.Position.Y)
		hi.X = math.Max(hi.X, n.Position.X)
		hi.Y = math.Max(hi.Y, n.Position.Y)
	}
	return lo, hi
}

// Frame joins the current view with the simulated positions, the selection
// and the scene transform.
func (e *Engine) Frame() Frame {
	system := e.store.System()
	selected := e.store.SelectedNodeID()

	e.mu.Lock()
	defer e.mu.Unlock()

	f := Frame{
		System:    system,
		Transform: e.transform,
		Width:     e.cfg.Width,
		Height:    e.cfg.Height,
		Alpha:     e.sim.Alpha(),
	}
	if e.view == nil {
		return f
	}

	pos := e.sim.Positions()
	f.Nodes = make([]FrameNode, 0, len(e.view.Nodes))
	for _, n := range e.view.Nodes {
		f.Nodes = append(f.Nodes, FrameNode{
			Node:        n,
			Position:    pos[n.ID],
			Selected:    n.ID == selected,
			Highlighted: e.view.Highlighted[n.ID],
		})
	}
	f.Edges = make([]FrameEdge, 0, len(e.view.Edges))
	for _, ed := range e.view.Edges {
		f.Edges = append(f.Edges, FrameEdge{
			Edge: ed,
			From: pos[ed.Source],
			To:   pos[ed.Target],
		})
	}
	return f
}
