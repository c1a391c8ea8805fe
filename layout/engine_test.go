package layout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/graph"
)

func newTestEngine(t *testing.T, opts ...EngineOption) (*graph.Store, *Engine) {
	t.Helper()
	store := graph.NewStore()
	store.SetGraph("shop", []graph.Node{
		{ID: "gw", Label: "API Gateway", Type: graph.NodeTypeGateway, Level: 0, Expandable: true},
		{ID: "orders", Label: "Order Service", Type: graph.NodeTypeService, Level: 1, Expandable: true},
		{ID: "db", Label: "Orders DB", Type: graph.NodeTypeDatabase, Level: 2},
	}, []graph.Edge{
		{ID: "e1", Source: "gw", Target: "orders", Relation: "routes"},
		{ID: "e2", Source: "orders", Target: "db", Relation: "reads"},
	}, "")
	e := NewEngine(store, opts...)
	t.Cleanup(e.Close)
	return store, e
}

func TestEngine_InitialSync(t *testing.T) {
	_, e := newTestEngine(t)

	assert.Len(t, e.Positions(), 3)
	assert.True(t, e.Active())
	assert.Equal(t, FitTransform(e.Config().Width, e.Config().Height), e.Transform())
}

func TestEngine_EmptyStoreDoesNotTick(t *testing.T) {
	e := NewEngine(graph.NewStore())
	defer e.Close()

	assert.False(t, e.Active())
	assert.False(t, e.Tick())
	assert.Empty(t, e.Positions())
}

func TestEngine_PinThenTick(t *testing.T) {
	store, e := newTestEngine(t)

	store.Pin("gw", 100, 200)
	e.Tick()
	pos, ok := e.Position("gw")
	require.True(t, ok)
	assert.Equal(t, Point{X: 100, Y: 200}, pos)

	store.Unpin("gw")
	assert.Equal(t, 1.0, e.Alpha(), "releasing a pin reheats")
	e.Tick()
	pos, _ = e.Position("gw")
	assert.NotEqual(t, Point{X: 100, Y: 200}, pos)
}

func TestEngine_MembershipChangeReheatsAndKeepsPositions(t *testing.T) {
	store, e := newTestEngine(t)
	e.Settle(1000)
	require.False(t, e.Active())
	before := e.Positions()

	store.AddNodes([]graph.Node{{ID: "cache", Label: "Redis", Type: graph.NodeTypeCache, Level: 2}})

	assert.True(t, e.Active())
	after := e.Positions()
	assert.Len(t, after, 4)
	for id, p := range before {
		assert.Equal(t, p, after[id], id)
	}
}

func TestEngine_FiltersChangeVisibleSet(t *testing.T) {
	store, e := newTestEngine(t)
	e.Settle(1000)

	store.SetFilters(graph.WithMaxDepth(1))
	assert.NotContains(t, e.Positions(), "db")
	assert.True(t, e.Active())

	f := e.Frame()
	assert.Len(t, f.Nodes, 2)
	assert.Len(t, f.Edges, 1)
}

func TestEngine_SelectionDoesNotReheat(t *testing.T) {
	store, e := newTestEngine(t)
	e.Settle(1000)

	store.SelectNode("orders")
	assert.False(t, e.Active())

	store.SetLoading(true)
	assert.False(t, e.Active())
}

func TestEngine_DragProtocol(t *testing.T) {
	store, e := newTestEngine(t)
	e.Settle(1000)
	start, _ := e.Position("orders")

	require.True(t, e.DragStart("orders"))
	n, _ := store.Node("orders")
	require.True(t, n.Pinned())
	assert.Equal(t, start.X, *n.FX)
	assert.Equal(t, start.Y, *n.FY)
	assert.True(t, e.Active())
	assert.Equal(t, e.Config().DragAlphaTarget, e.sim.AlphaTarget())

	e.DragMove("orders", Point{X: 100, Y: 200})
	e.Tick()
	pos, _ := e.Position("orders")
	assert.Equal(t, Point{X: 100, Y: 200}, pos)

	e.DragEnd("orders")
	assert.Equal(t, 0.0, e.sim.AlphaTarget())
	n, _ = store.Node("orders")
	require.True(t, n.Pinned())
	assert.Equal(t, 100.0, *n.FX)
	assert.Equal(t, 200.0, *n.FY)

	e.Settle(1000)
	assert.False(t, e.Active())
	pos, _ = e.Position("orders")
	assert.Equal(t, Point{X: 100, Y: 200}, pos)
}

func TestEngine_DragStartUnknownNode(t *testing.T) {
	store, e := newTestEngine(t)
	rev := store.Revision()

	assert.False(t, e.DragStart("nope"))
	assert.Equal(t, rev, store.Revision())
}

func TestEngine_RebuildLayoutReleasesVisiblePins(t *testing.T) {
	store, e := newTestEngine(t)
	store.Pin("gw", 10, 10)
	store.Pin("db", 20, 20)
	store.SetFilters(graph.WithMaxDepth(1))
	e.Settle(1000)

	e.RebuildLayout()

	gw, _ := store.Node("gw")
	db, _ := store.Node("db")
	assert.False(t, gw.Pinned())
	assert.True(t, db.Pinned(), "hidden nodes keep their pins")
	assert.True(t, e.Active())
}

func TestEngine_ZoomAndPan(t *testing.T) {
	_, e := newTestEngine(t)

	assert.Equal(t, 4.0, e.ZoomBy(100, Point{}).K)
	assert.Equal(t, 0.1, e.ZoomTo(0.01, Point{}).K)
	assert.Equal(t, 2.0, e.ZoomTo(2, Point{}).K)

	before := e.Transform()
	after := e.PanBy(15, -5)
	assert.Equal(t, before.X+15, after.X)
	assert.Equal(t, before.Y-5, after.Y)

	p := Point{X: 320, Y: 240}
	back := e.Transform().Apply(e.ScreenToScene(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	assert.Equal(t, FitTransform(e.Config().Width, e.Config().Height), e.FitView())
}

func TestEngine_ZoomDoesNotTouchPhysics(t *testing.T) {
	_, e := newTestEngine(t)
	e.Settle(1000)
	before := e.Positions()

	e.ZoomBy(2, Point{X: 10, Y: 10})
	e.PanBy(100, 100)

	assert.Equal(t, before, e.Positions())
	assert.False(t, e.Active())
}

func TestEngine_Frame(t *testing.T) {
	store, e := newTestEngine(t)
	store.SelectNode("orders")
	store.SetSearchTerm("ORDER")
	e.Settle(10)

	f := e.Frame()
	assert.Equal(t, "shop", f.System)
	require.Len(t, f.Nodes, 3)

	orders, ok := f.Node("orders")
	require.True(t, ok)
	assert.True(t, orders.Selected)
	assert.True(t, orders.Highlighted)

	db, _ := f.Node("db")
	assert.False(t, db.Selected)
	assert.True(t, db.Highlighted)

	gw, _ := f.Node("gw")
	assert.False(t, gw.Highlighted)

	pos := e.Positions()
	for _, ed := range f.Edges {
		assert.Equal(t, pos[ed.Source], ed.From)
		assert.Equal(t, pos[ed.Target], ed.To)
	}

	lo, hi := f.Bounds()
	assert.LessOrEqual(t, lo.X, hi.X)
	assert.LessOrEqual(t, lo.Y, hi.Y)
}

func TestEngine_StartStop(t *testing.T) {
	frames := make(chan Frame, 1)
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	_, e := newTestEngine(t, WithConfig(cfg), OnFrame(func(f Frame) {
		select {
		case frames <- f:
		default:
		}
	}))

	require.NoError(t, e.Start(context.Background()))
	assert.ErrorIs(t, e.Start(context.Background()), ErrAlreadyRunning)

	select {
	case f := <-frames:
		assert.Len(t, f.Nodes, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame produced")
	}

	e.Stop()
	e.Stop()
	require.NoError(t, e.Start(context.Background()))
	e.Stop()
}

func TestEngine_LoopCoolsAndIdles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Microsecond
	store, e := newTestEngine(t, WithConfig(cfg))

	require.NoError(t, e.Start(context.Background()))
	defer e.Stop()

	require.Eventually(t, func() bool { return !e.Active() }, 5*time.Second, time.Millisecond)

	store.AddNodes([]graph.Node{{ID: "q", Label: "Queue", Type: graph.NodeTypeQueue}})
	require.Eventually(t, func() bool { return !e.Active() }, 5*time.Second, time.Millisecond)
	assert.Len(t, e.Positions(), 4)
}

func TestEngine_CloseDetaches(t *testing.T) {
	store, e := newTestEngine(t)
	e.Close()

	store.AddNodes([]graph.Node{{ID: "q", Label: "Queue", Type: graph.NodeTypeQueue}})
	assert.Len(t, e.Positions(), 3)
}

func TestEngine_ConcurrentAddsAllLaidOut(t *testing.T) {
	store, e := newTestEngine(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				store.AddNodes([]graph.Node{{ID: fmt.Sprintf("n-%d-%d", w, i), Label: "N", Type: graph.NodeTypeService}})
			}
		}(w)
	}
	wg.Wait()

	positions := e.Positions()
	assert.Len(t, positions, 83)
	for _, n := range store.Nodes() {
		assert.Contains(t, positions, n.ID)
	}
}

func TestEngine_DragEndDoesNotRepin(t *testing.T) {
	store, e := newTestEngine(t)
	require.True(t, e.DragStart("orders"))
	e.DragMove("orders", Point{X: 100, Y: 200})

	var pins int
	remove := store.AddListener(graph.StoreListenerFunc(func(_ context.Context, event graph.StoreEvent, _ *graph.Store) {
		if event == graph.EventNodePinned {
			pins++
		}
	}))
	defer remove()

	e.DragEnd("orders")
	assert.Zero(t, pins)
	n, ok := store.Node("orders")
	require.True(t, ok)
	require.True(t, n.Pinned())
	assert.Equal(t, 100.0, *n.FX)
	assert.Equal(t, 200.0, *n.FY)
}
