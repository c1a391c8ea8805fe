package interaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/client"
	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/layout"
)

type fakeService struct {
	mu     sync.Mutex
	calls  []string
	build  func(name string, diff, useCache bool) (*client.GraphResponse, error)
	expand func(ctx context.Context, req client.ExpandRequest) (*client.ExpandResponse, error)
	latest func(system string) (*client.GraphResponse, error)
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) BuildGraph(_ context.Context, name string, diff, useCache bool) (*client.GraphResponse, error) {
	f.record("build:" + name)
	if f.build == nil {
		return nil, errors.New("build not configured")
	}
	return f.build(name, diff, useCache)
}

func (f *fakeService) ExpandNode(ctx context.Context, req client.ExpandRequest) (*client.ExpandResponse, error) {
	f.record("expand:" + req.NodeID)
	if f.expand == nil {
		return nil, errors.New("expand not configured")
	}
	return f.expand(ctx, req)
}

func (f *fakeService) LoadLatest(_ context.Context, system string) (*client.GraphResponse, error) {
	f.record("latest:" + system)
	if f.latest == nil {
		return nil, nil
	}
	return f.latest(system)
}

func shopGraph() *client.GraphResponse {
	return &client.GraphResponse{
		System:  "shop",
		Version: 1,
		Nodes: []graph.Node{
			{ID: "gw", Label: "Gateway", Type: graph.NodeTypeGateway, Level: 0, Expandable: true},
			{ID: "orders", Label: "Order Service", Type: graph.NodeTypeService, Level: 1, Expandable: true},
			{ID: "db", Label: "Orders DB", Type: graph.NodeTypeDatabase, Level: 2},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "gw", Target: "orders", Relation: "routes"},
			{ID: "e2", Source: "orders", Target: "db", Relation: "writes"},
		},
	}
}

func newLoadedController(t *testing.T, svc *fakeService, opts ...Option) *Controller {
	t.Helper()
	store := graph.NewStore()
	g := shopGraph()
	store.SetGraph(g.System, g.Nodes, g.Edges, "Build shop")
	return New(store, svc, opts...)
}

func TestBuild_FallsBackToBuildGraph(t *testing.T) {
	svc := &fakeService{
		build: func(name string, diff, useCache bool) (*client.GraphResponse, error) {
			assert.False(t, diff)
			assert.True(t, useCache)
			return shopGraph(), nil
		},
	}
	store := graph.NewStore()
	store.SetError("old failure")
	c := New(store, svc)

	require.NoError(t, c.Build(context.Background(), "  shop  ", true))

	assert.Equal(t, []string{"latest:shop", "build:shop"}, svc.Calls())
	assert.Equal(t, "shop", store.System())
	assert.Len(t, store.Nodes(), 3)
	assert.Equal(t, "Build shop", store.History()[0].Action)
	assert.Empty(t, store.Error())
	assert.False(t, store.IsLoading())
}

func TestBuild_UsesCachedGraph(t *testing.T) {
	svc := &fakeService{
		latest: func(system string) (*client.GraphResponse, error) { return shopGraph(), nil },
	}
	c := New(graph.NewStore(), svc)

	require.NoError(t, c.Build(context.Background(), "shop", true))
	assert.Equal(t, []string{"latest:shop"}, svc.Calls())
	assert.Equal(t, 1, c.Store().Version())
}

func TestBuild_WithoutCache(t *testing.T) {
	svc := &fakeService{
		build: func(name string, diff, useCache bool) (*client.GraphResponse, error) {
			assert.False(t, useCache)
			g := shopGraph()
			g.System = ""
			return g, nil
		},
	}
	c := New(graph.NewStore(), svc)

	require.NoError(t, c.Build(context.Background(), "shop", false))
	assert.Equal(t, []string{"build:shop"}, svc.Calls())
	assert.Equal(t, "shop", c.Store().System(), "falls back to the requested name")
}

func TestBuild_EmptyName(t *testing.T) {
	svc := &fakeService{}
	c := New(graph.NewStore(), svc)

	assert.ErrorIs(t, c.Build(context.Background(), "   ", true), ErrEmptySystemName)
	assert.Empty(t, svc.Calls())
	assert.False(t, c.Store().IsLoading())
}

func TestBuild_ErrorIsStored(t *testing.T) {
	svc := &fakeService{
		build: func(string, bool, bool) (*client.GraphResponse, error) {
			return nil, &client.APIError{StatusCode: 500, Message: "LLM quota exceeded"}
		},
	}
	c := newLoadedController(t, svc)
	before := c.Store().Nodes()

	err := c.Build(context.Background(), "netflix", false)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)

	assert.Equal(t, "LLM quota exceeded", c.Store().Error())
	assert.Equal(t, before, c.Store().Nodes())
	assert.Equal(t, "shop", c.Store().System())
	assert.False(t, c.Store().IsLoading())
}

func TestBuild_TransportErrorMessage(t *testing.T) {
	svc := &fakeService{
		latest: func(string) (*client.GraphResponse, error) { return nil, errors.New("connection refused") },
	}
	c := New(graph.NewStore(), svc)

	require.Error(t, c.Build(context.Background(), "shop", true))
	assert.Equal(t, "connection refused", c.Store().Error())
	assert.Equal(t, []string{"latest:shop"}, svc.Calls())
}

func TestDoubleClick_Expands(t *testing.T) {
	svc := &fakeService{
		expand: func(_ context.Context, req client.ExpandRequest) (*client.ExpandResponse, error) {
			assert.Equal(t, client.ExpandRequest{System: "shop", NodeID: "orders", NodeLabel: "Order Service", MaxDepth: 1, Diff: true}, req)
			return &client.ExpandResponse{
				System:     "shop",
				AddedNodes: []graph.Node{{ID: "db"}, {ID: "cache", Label: "Redis", Type: graph.NodeTypeCache, Level: 2}},
				AddedEdges: []graph.Edge{{ID: "e2", Source: "orders", Target: "db"}, {ID: "e3", Source: "orders", Target: "cache"}},
			}, nil
		},
	}
	c := newLoadedController(t, svc)

	require.NoError(t, c.DoubleClick(context.Background(), "orders"))

	s := c.Store()
	assert.Len(t, s.Nodes(), 4)
	assert.Len(t, s.Edges(), 3)
	assert.True(t, s.IsExpanded("orders"))
	assert.Equal(t, "Expand Node orders", s.History()[0].Action)
	assert.Equal(t, 1, s.Version())
	assert.Equal(t, NodeIdle, c.NodeState("orders"))
	assert.False(t, s.IsLoading())
}

func TestDoubleClick_Ignored(t *testing.T) {
	svc := &fakeService{}
	c := newLoadedController(t, svc)
	rev := c.Store().Revision()

	assert.ErrorIs(t, c.DoubleClick(context.Background(), "db"), ErrNotExpandable)
	assert.Equal(t, rev, c.Store().Revision(), "store untouched")
	assert.ErrorIs(t, c.DoubleClick(context.Background(), "ghost"), ErrNotExpandable)

	c.Store().SetGraph("", shopGraph().Nodes, nil, "")
	assert.ErrorIs(t, c.DoubleClick(context.Background(), "gw"), ErrNotExpandable)

	assert.Empty(t, svc.Calls())
	assert.False(t, c.Store().IsLoading())
	assert.Empty(t, c.Store().Error())
}

// blockingExpand returns an expand func that blocks each call until released.
func blockingExpand(started chan<- string, release <-chan struct{}) func(context.Context, client.ExpandRequest) (*client.ExpandResponse, error) {
	return func(ctx context.Context, req client.ExpandRequest) (*client.ExpandResponse, error) {
		started <- req.NodeID
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &client.ExpandResponse{
			System:     req.System,
			AddedNodes: []graph.Node{{ID: req.NodeID + "-child", Label: "child", Type: graph.NodeTypeWorker, Level: 2}},
		}, nil
	}
}

func TestDoubleClick_PendingAndLoading(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	svc := &fakeService{expand: blockingExpand(started, release)}
	c := newLoadedController(t, svc)

	errc := make(chan error, 1)
	go func() { errc <- c.DoubleClick(context.Background(), "orders") }()
	require.Equal(t, "orders", <-started)

	assert.Equal(t, NodeExpandPending, c.NodeState("orders"))
	assert.True(t, c.Store().IsLoading())
	assert.ErrorIs(t, c.DoubleClick(context.Background(), "orders"), ErrExpandPending)

	close(release)
	require.NoError(t, <-errc)
	assert.False(t, c.Store().IsLoading())
	assert.Equal(t, NodeIdle, c.NodeState("orders"))
	assert.Equal(t, []string{"expand:orders"}, svc.Calls())
}

func TestDoubleClick_LoadingSpansOverlappingRequests(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	svc := &fakeService{expand: blockingExpand(started, release)}
	c := newLoadedController(t, svc)

	var wg sync.WaitGroup
	for _, id := range []string{"gw", "orders"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, c.DoubleClick(context.Background(), id))
		}(id)
	}
	<-started
	<-started
	assert.True(t, c.Store().IsLoading())

	close(release)
	wg.Wait()
	assert.False(t, c.Store().IsLoading())
	assert.True(t, c.Store().IsExpanded("gw"))
	assert.True(t, c.Store().IsExpanded("orders"))
}

func TestDoubleClick_LowPriorityReexpansion(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	svc := &fakeService{expand: blockingExpand(started, release)}
	c := newLoadedController(t, svc)
	c.Store().ExpandNode("gw", nil, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.DoubleClick(context.Background(), "orders") }()
	<-started

	assert.ErrorIs(t, c.DoubleClick(context.Background(), "gw"), ErrLowPriority)

	close(release)
	require.NoError(t, <-errc)

	require.NoError(t, c.DoubleClick(context.Background(), "gw"), "nothing in flight, re-expansion proceeds")
	<-started
	assert.Equal(t, []string{"expand:orders", "expand:gw"}, svc.Calls())
}

func TestDoubleClick_Failure(t *testing.T) {
	svc := &fakeService{
		expand: func(context.Context, client.ExpandRequest) (*client.ExpandResponse, error) {
			return nil, &client.APIError{StatusCode: 502, Message: "upstream timeout"}
		},
	}
	c := newLoadedController(t, svc)
	before := c.Store().State()

	require.Error(t, c.DoubleClick(context.Background(), "orders"))

	s := c.Store()
	assert.Equal(t, "upstream timeout", s.Error())
	assert.Equal(t, before.Nodes, s.Nodes())
	assert.Equal(t, before.Edges, s.Edges())
	assert.Equal(t, before.History, s.History())
	assert.False(t, s.IsExpanded("orders"))
	assert.Equal(t, NodeExpandFailed, c.NodeState("orders"))

	c.Click("orders")
	assert.Equal(t, NodeSelected, c.NodeState("orders"))
	c.DismissError()
	assert.Empty(t, s.Error())
}

func TestDoubleClick_FailureClearedByNextGesture(t *testing.T) {
	svc := &fakeService{
		expand: func(context.Context, client.ExpandRequest) (*client.ExpandResponse, error) {
			return nil, &client.APIError{StatusCode: 502, Message: "upstream timeout"}
		},
	}
	gestures := map[string]func(c *Controller){
		"background": func(c *Controller) { c.ClickBackground() },
		"other node": func(c *Controller) { c.Click("gw") },
		"zoom":       func(c *Controller) { c.Zoom(2, layout.Point{}) },
		"search":     func(c *Controller) { c.Search("db") },
	}
	for name, gesture := range gestures {
		t.Run(name, func(t *testing.T) {
			c := newLoadedController(t, svc)
			require.Error(t, c.DoubleClick(context.Background(), "orders"))
			require.Equal(t, NodeExpandFailed, c.NodeState("orders"))

			gesture(c)
			assert.Equal(t, NodeIdle, c.NodeState("orders"))
			assert.Equal(t, "upstream timeout", c.Store().Error())
		})
	}
}

func TestDoubleClick_StaleResultDiscarded(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	svc := &fakeService{
		expand: blockingExpand(started, release),
		build:  func(string, bool, bool) (*client.GraphResponse, error) { return shopGraph(), nil },
	}
	c := newLoadedController(t, svc)

	errc := make(chan error, 1)
	go func() { errc <- c.DoubleClick(context.Background(), "orders") }()
	<-started

	c.Reset()
	require.NoError(t, c.Build(context.Background(), "shop", false))
	require.Equal(t, 1, c.Store().Version())

	close(release)
	assert.ErrorIs(t, <-errc, ErrStaleResult)

	_, ok := c.Store().Node("orders-child")
	assert.False(t, ok)
	assert.False(t, c.Store().IsExpanded("orders"))
	assert.Equal(t, "Build shop", c.Store().History()[0].Action)
	assert.False(t, c.Store().IsLoading())
}

func TestDoubleClick_StaleFailureLeavesErrorUnset(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	svc := &fakeService{
		expand: func(ctx context.Context, req client.ExpandRequest) (*client.ExpandResponse, error) {
			started <- req.NodeID
			<-release
			return nil, errors.New("boom")
		},
	}
	c := newLoadedController(t, svc)

	errc := make(chan error, 1)
	go func() { errc <- c.DoubleClick(context.Background(), "orders") }()
	<-started
	c.Reset()
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleResult)
	assert.Empty(t, c.Store().Error())
}

func TestClickStates(t *testing.T) {
	c := newLoadedController(t, &fakeService{})

	assert.Equal(t, NodeIdle, c.NodeState("gw"))
	c.Click("gw")
	assert.Equal(t, NodeSelected, c.NodeState("gw"))
	assert.Equal(t, "gw", c.Store().SelectedNodeID())

	c.Click("orders")
	assert.Equal(t, NodeIdle, c.NodeState("gw"))
	assert.Equal(t, NodeSelected, c.NodeState("orders"))

	c.ClickBackground()
	assert.Equal(t, NodeIdle, c.NodeState("orders"))
	assert.Empty(t, c.Store().SelectedNodeID())
}

func TestPassThroughs(t *testing.T) {
	c := newLoadedController(t, &fakeService{})
	s := c.Store()
	first := s.History()[0].ID

	c.SetFilters(graph.WithMaxDepth(1))
	assert.Equal(t, 1, s.Filters().MaxDepth)

	c.Search("order")
	assert.Equal(t, "order", s.SearchTerm())

	s.ExpandNode("gw", []graph.Node{{ID: "x", Type: graph.NodeTypeQueue}}, nil)
	assert.True(t, c.Restore(first))
	assert.Len(t, s.Nodes(), 3)
	assert.False(t, c.Restore("unknown"))

	c.Reset()
	assert.Empty(t, s.Nodes())
	assert.Len(t, s.History(), 2)
}

func TestGesturesWithEngine(t *testing.T) {
	svc := &fakeService{}
	store := graph.NewStore()
	g := shopGraph()
	store.SetGraph(g.System, g.Nodes, g.Edges, "")
	engine := layout.NewEngine(store)
	defer engine.Close()
	c := New(store, svc, WithEngine(engine))

	require.True(t, c.DragStart("orders"))
	screen := layout.Point{X: 400, Y: 300}
	c.DragMove("orders", screen)
	c.DragEnd("orders")

	n, _ := store.Node("orders")
	require.True(t, n.Pinned())
	want := engine.ScreenToScene(screen)
	assert.Equal(t, want.X, *n.FX)
	assert.Equal(t, want.Y, *n.FY)

	c.Zoom(2, layout.Point{})
	assert.InDelta(t, 1.6, engine.Transform().K, 1e-9)
	before := engine.Transform()
	c.Pan(10, 20)
	assert.Equal(t, before.X+10, engine.Transform().X)

	c.RebuildLayout()
	n, _ = store.Node("orders")
	assert.False(t, n.Pinned())
}

func TestGesturesWithoutEngine(t *testing.T) {
	c := newLoadedController(t, &fakeService{})
	assert.NotPanics(t, func() {
		assert.False(t, c.DragStart("gw"))
		c.DragMove("gw", layout.Point{})
		c.DragEnd("gw")
		c.Zoom(2, layout.Point{})
		c.Pan(1, 1)
		c.RebuildLayout()
	})
	n, _ := c.Store().Node("gw")
	assert.False(t, n.Pinned())
}

func TestDoubleClick_ContextCancelled(t *testing.T) {
	started := make(chan string, 1)
	svc := &fakeService{expand: blockingExpand(started, make(chan struct{}))}
	c := newLoadedController(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.DoubleClick(ctx, "orders")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, NodeExpandFailed, c.NodeState("orders"))
	assert.NotEmpty(t, c.Store().Error())
}
