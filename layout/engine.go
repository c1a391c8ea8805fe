package layout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/log"
)

// ErrAlreadyRunning is returned by Start when the frame loop is active.
var ErrAlreadyRunning = errors.New("layout engine already running")

// Engine keeps a Simulation in sync with the visible subgraph of a Store and
// drives it from a frame loop.
type Engine struct {
	store  *graph.Store
	views  *graph.ViewCache
	cfg    Config
	logger log.Logger

	onFrame func(Frame)

	mu        sync.Mutex
	sim       *Simulation
	view      *graph.View
	pins      map[string]pinState
	transform Transform

	wake     chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	unlisten func()
}

type pinState struct {
	x, y bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConfig sets the simulation and viewport parameters.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the engine logger.
func WithLogger(l log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = log.OrNoOp(l)
	}
}

// OnFrame registers a callback receiving every frame produced by the frame loop.
// It runs on the loop goroutine.
func OnFrame(fn func(Frame)) EngineOption {
	return func(e *Engine) {
		e.onFrame = fn
	}
}

// NewEngine creates an engine bound to store and performs the initial sync.
func NewEngine(store *graph.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		views:  graph.NewViewCache(store),
		cfg:    DefaultConfig(),
		logger: log.NoOpLogger{},
		pins:   map[string]pinState{},
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sim = NewSimulation(e.cfg)
	e.transform = FitTransform(e.cfg.Width, e.cfg.Height)
	e.unlisten = store.AddListener(graph.StoreListenerFunc(e.onStoreEvent))
	e.Sync()
	return e
}

func (e *Engine) onStoreEvent(_ context.Context, event graph.StoreEvent, _ *graph.Store) {
	switch {
	case event.Structural(), event == graph.EventFiltersChanged, event == graph.EventSearchChanged:
		e.Sync()
	}
}

// Sync re-derives the view and re-seeds the simulation when the visible
// membership or the pins changed. Membership changes and pins being added or
// released reheat the simulation; a moved pin only wakes it.
func (e *Engine) Sync() {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := e.views.View()

	if view == e.view {
		return
	}
	wasEmpty := e.view == nil || len(e.view.Nodes) == 0
	membership := !view.SameMembership(e.view)

	pins := make(map[string]pinState, len(view.Nodes))
	pinSetChanged, pinMoved := false, false
	for _, n := range view.Nodes {
		ps := pinState{x: n.FX != nil, y: n.FY != nil}
		if ps != (pinState{}) {
			pins[n.ID] = ps
		}
		if ps != e.pins[n.ID] {
			pinSetChanged = true
		} else if ps != (pinState{}) {
			if pos, ok := e.sim.Position(n.ID); ok && ((n.FX != nil && *n.FX != pos.X) || (n.FY != nil && *n.FY != pos.Y)) {
				pinMoved = true
			}
		}
	}
	if len(pins) != len(e.pins) {
		pinSetChanged = true
	}

	e.view = view
	e.pins = pins
	if !membership && !pinSetChanged && !pinMoved {
		return
	}

	e.sim.SetGraph(view.Nodes, view.Edges)
	if membership || pinSetChanged {
		e.sim.Reheat()
		e.logger.Debug("layout reheated: %d nodes, %d edges", len(view.Nodes), len(view.Edges))
	}
	if wasEmpty && len(view.Nodes) > 0 {
		e.transform = FitTransform(e.cfg.Width, e.cfg.Height)
	}
	e.signal()
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Tick advances the simulation by one step when it is hot and the visible set
// is non-empty. It reports whether another tick is needed.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick()
}

func (e *Engine) tick() bool {
	if e.sim.Len() == 0 || !e.sim.Active() {
		return false
	}
	return e.sim.Step()
}

// Active reports whether the simulation still needs ticks.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Len() > 0 && e.sim.Active()
}

// Alpha returns the current heat of the simulation.
func (e *Engine) Alpha() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Alpha()
}

// Positions returns the current simulated position of every visible node.
func (e *Engine) Positions() map[string]Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Positions()
}

// Position returns the simulated position of one visible node.
func (e *Engine) Position(id string) (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Position(id)
}

// Settle runs ticks until the simulation cools or maxTicks is reached and
// returns the number of ticks run.
func (e *Engine) Settle(maxTicks int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for n < maxTicks && e.tick() {
		n++
	}
	return n
}

// DragStart pins id at its current simulated position and keeps the
// simulation warm until DragEnd.
func (e *Engine) DragStart(id string) bool {
	e.mu.Lock()
	pos, ok := e.sim.Position(id)
	if ok {
		e.sim.SetAlphaTarget(e.cfg.DragAlphaTarget)
		e.sim.Reheat()
		e.signal()
	}
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.store.Pin(id, pos.X, pos.Y)
	return true
}

// DragMove moves the pin of id to p, in simulation coordinates.
func (e *Engine) DragMove(id string, p Point) {
	e.store.Pin(id, p.X, p.Y)
}

// DragEnd lets the simulation cool again. The node stays pinned where it was dropped.
func (e *Engine) DragEnd(id string) {
	e.mu.Lock()
	e.sim.SetAlphaTarget(0)
	e.mu.Unlock()
}

// RebuildLayout releases the pins of all visible nodes and reheats.
func (e *Engine) RebuildLayout() {
	view := e.views.View()
	for _, n := range view.Nodes {
		if n.Pinned() {
			e.store.Unpin(n.ID)
		}
	}

	e.mu.Lock()
	e.sim.Reheat()
	e.signal()
	e.mu.Unlock()
	e.logger.Info("layout rebuilt for %d nodes", len(view.Nodes))
}

// Transform returns the current scene transform.
func (e *Engine) Transform() Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transform
}

// ZoomBy multiplies the scale by factor around the screen point anchor.
func (e *Engine) ZoomBy(factor float64, anchor Point) Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transform = e.transform.ScaleAt(e.transform.K*factor, anchor, e.cfg.MinZoom, e.cfg.MaxZoom)
	return e.transform
}

// ZoomTo sets the scale to k around the screen point anchor.
func (e *Engine) ZoomTo(k float64, anchor Point) Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transform = e.transform.ScaleAt(k, anchor, e.cfg.MinZoom, e.cfg.MaxZoom)
	return e.transform
}

// PanBy translates the scene by (dx, dy) screen units.
func (e *Engine) PanBy(dx, dy float64) Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transform = e.transform.Translate(dx, dy)
	return e.transform
}

// FitView resets the transform to the initial framing.
func (e *Engine) FitView() Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transform = FitTransform(e.cfg.Width, e.cfg.Height)
	return e.transform
}

// ScreenToScene maps a screen point to simulation coordinates.
func (e *Engine) ScreenToScene(p Point) Point {
	return e.Transform().Invert(p)
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start runs the frame loop until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go e.loop(ctx, done)
	return nil
}

// Stop ends the frame loop and waits for it to exit. It is a no-op when the loop
// is not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the frame loop and detaches the engine from its store.
func (e *Engine) Close() {
	e.Stop()
	if e.unlisten != nil {
		e.unlisten()
	}
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		if !e.Active() {
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.Tick()
		if e.onFrame != nil {
			e.onFrame(e.Frame())
		}
	}
}
