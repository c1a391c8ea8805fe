package interaction

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/smallnest/archviz/client"
	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/layout"
	"github.com/smallnest/archviz/log"
)

// Service is the part of the inference service the controller depends on.
// *client.Client implements it.
type Service interface {
	BuildGraph(ctx context.Context, systemName string, diff, useCache bool) (*client.GraphResponse, error)
	ExpandNode(ctx context.Context, req client.ExpandRequest) (*client.ExpandResponse, error)
	LoadLatest(ctx context.Context, system string) (*client.GraphResponse, error)
}

// NodeState is the interaction state of a single node.
type NodeState string

const (
	NodeIdle          NodeState = "idle"
	NodeSelected      NodeState = "selected"
	NodeExpandPending NodeState = "expand-pending"
	NodeExpandFailed  NodeState = "expand-failed"
)

// Controller turns user gestures into Store mutations, service calls and
// layout operations.
type Controller struct {
	store   *graph.Store
	service Service
	engine  *layout.Engine
	logger  log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	failed  map[string]struct{}

	// loadMu orders in-flight accounting with the store's loading flag.
	loadMu   sync.Mutex
	inflight int
}

// Option configures a Controller.
type Option func(*Controller)

// WithEngine attaches the layout engine that drag, zoom and pan gestures drive.
func WithEngine(e *layout.Engine) Option {
	return func(c *Controller) {
		c.engine = e
	}
}

// WithLogger sets the controller logger.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.logger = log.OrNoOp(l)
	}
}

// New creates a controller for store backed by service.
func New(store *graph.Store, service Service, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		service: service,
		logger:  log.NoOpLogger{},
		pending: map[string]struct{}{},
		failed:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the controller drives.
func (c *Controller) Store() *graph.Store {
	return c.store
}

// NodeState returns the interaction state of node id.
func (c *Controller) NodeState(id string) NodeState {
	c.mu.Lock()
	_, pending := c.pending[id]
	_, failed := c.failed[id]
	c.mu.Unlock()

	switch {
	case pending:
		return NodeExpandPending
	case failed:
		return NodeExpandFailed
	case id != "" && c.store.SelectedNodeID() == id:
		return NodeSelected
	default:
		return NodeIdle
	}
}

// Click selects node id.
func (c *Controller) Click(id string) {
	c.clearFailed()
	c.store.SelectNode(id)
}

// ClickBackground clears the selection.
func (c *Controller) ClickBackground() {
	c.clearFailed()
	c.store.SelectNode("")
}

// DoubleClick expands node id and blocks until the result is merged or
// discarded. UIs call it from their own goroutine.
func (c *Controller) DoubleClick(ctx context.Context, id string) error {
	n, ok := c.store.Node(id)
	tag := c.store.Tag()
	if !ok || !n.Expandable || tag.System == "" {
		return ErrNotExpandable
	}

	c.mu.Lock()
	if _, busy := c.pending[id]; busy {
		c.mu.Unlock()
		return ErrExpandPending
	}
	if len(c.pending) > 0 && c.store.IsExpanded(id) {
		c.mu.Unlock()
		c.logger.Debug("skipping re-expansion of %s while %d expansions are in flight", id, len(c.pending))
		return ErrLowPriority
	}
	c.pending[id] = struct{}{}
	clear(c.failed)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.begin()
	defer c.end()

	c.logger.Info("expanding node %s of %q", id, tag.System)
	resp, err := c.service.ExpandNode(ctx, client.ExpandRequest{
		System:    tag.System,
		NodeID:    id,
		NodeLabel: n.Label,
		MaxDepth:  1,
		Diff:      true,
	})
	if err != nil {
		if !c.store.Current(tag) {
			c.logger.Warn("dropping failed expansion of %s: graph changed meanwhile: %v", id, err)
			return fmt.Errorf("%w: %v", ErrStaleResult, err)
		}
		c.mu.Lock()
		c.failed[id] = struct{}{}
		c.mu.Unlock()
		c.store.SetError(errorMessage(err))
		c.logger.Error("expansion of %s failed: %v", id, err)
		return err
	}

	if !c.store.ExpandNodeAt(tag, id, resp.AddedNodes, resp.AddedEdges) {
		c.logger.Warn("dropping expansion of %s: graph changed meanwhile", id)
		return ErrStaleResult
	}
	return nil
}

// Build loads or builds the graph of systemName and makes it canonical.
// With useCache the last saved graph is tried first.
func (c *Controller) Build(ctx context.Context, systemName string, useCache bool) error {
	name := strings.TrimSpace(systemName)
	if name == "" {
		return ErrEmptySystemName
	}

	c.begin()
	defer c.end()
	c.store.SetError("")
	tag := c.store.Tag()

	var resp *client.GraphResponse
	var err error
	if useCache {
		resp, err = c.service.LoadLatest(ctx, name)
	}
	if err == nil && resp == nil {
		resp, err = c.service.BuildGraph(ctx, name, false, useCache)
	}
	if err != nil {
		if c.store.Current(tag) {
			c.store.SetError(errorMessage(err))
		}
		c.logger.Error("build of %q failed: %v", name, err)
		return err
	}

	system := resp.System
	if system == "" {
		system = name
	}
	if !c.store.SetGraphAt(tag, system, resp.Nodes, resp.Edges, "Build "+system) {
		c.logger.Warn("dropping build of %q: graph changed meanwhile", name)
		return ErrStaleResult
	}
	c.clearFailed()
	c.logger.Info("built %q: %d nodes, %d edges", system, len(resp.Nodes), len(resp.Edges))
	return nil
}

// Reset clears the canonical graph. History is kept.
func (c *Controller) Reset() {
	c.clearFailed()
	c.store.Reset()
}

// Restore makes a history snapshot canonical.
func (c *Controller) Restore(historyID string) bool {
	if !c.store.RestoreVersion(historyID) {
		return false
	}
	c.clearFailed()
	return true
}

// SetFilters merges patch into the filters.
func (c *Controller) SetFilters(patch graph.FilterPatch) {
	c.clearFailed()
	c.store.SetFilters(patch)
}

// Search sets the search term.
func (c *Controller) Search(term string) {
	c.clearFailed()
	c.store.SetSearchTerm(term)
}

// DismissError clears the error message.
func (c *Controller) DismissError() {
	c.clearFailed()
	c.store.SetError("")
}

// DragStart begins dragging node id. It reports whether the node is visible.
func (c *Controller) DragStart(id string) bool {
	c.clearFailed()
	if c.engine == nil {
		return false
	}
	return c.engine.DragStart(id)
}

// DragMove moves the dragged node to the screen point p.
func (c *Controller) DragMove(id string, p layout.Point) {
	c.clearFailed()
	if c.engine == nil {
		return
	}
	c.engine.DragMove(id, c.engine.ScreenToScene(p))
}

// DragEnd drops node id. It stays pinned where it was dropped.
func (c *Controller) DragEnd(id string) {
	c.clearFailed()
	if c.engine == nil {
		return
	}
	c.engine.DragEnd(id)
}

// Zoom scales the scene by factor around the screen point anchor.
func (c *Controller) Zoom(factor float64, anchor layout.Point) {
	c.clearFailed()
	if c.engine == nil {
		return
	}
	c.engine.ZoomBy(factor, anchor)
}

// Pan translates the scene by (dx, dy) screen units.
func (c *Controller) Pan(dx, dy float64) {
	c.clearFailed()
	if c.engine == nil {
		return
	}
	c.engine.PanBy(dx, dy)
}

// RebuildLayout releases the pins of all visible nodes.
func (c *Controller) RebuildLayout() {
	c.clearFailed()
	if c.engine == nil {
		return
	}
	c.engine.RebuildLayout()
}

// begin and end track in-flight requests; the store is loading while any is.
func (c *Controller) begin() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.inflight++
	if c.inflight == 1 {
		c.store.SetLoading(true)
	}
}

func (c *Controller) end() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		c.store.SetLoading(false)
	}
}

// clearFailed drops every expand-failed mark. A failure is reported until
// the next gesture of any kind; the error message itself stays in the store.
func (c *Controller) clearFailed() {
	c.mu.Lock()
	clear(c.failed)
	c.mu.Unlock()
}
