// Package layout positions the visible architecture graph with a force
// simulation.
//
// A Simulation holds one particle per visible node and applies link, many-body,
// centering and collision forces while its heat (alpha) decays toward a target.
// An Engine binds a simulation to a graph.Store: it follows store mutations,
// re-seeds the particles when the visible set or the pins change, and drives
// ticks from a frame loop.
//
// # Pins
//
// A node whose FX/FY is set in the store is fixed on that axis. Dragging a node
// goes through the same mechanism:
//
//	engine.DragStart("orders")                       // pin at the current position
//	engine.DragMove("orders", layout.Point{X: 100, Y: 200})
//	engine.DragEnd("orders")                         // stays pinned at (100, 200)
//
// RebuildLayout releases every visible pin and reheats the simulation.
//
// # Frame loop
//
//	engine := layout.NewEngine(store, layout.OnFrame(render))
//	if err := engine.Start(ctx); err != nil {
//		return err
//	}
//	defer engine.Stop()
//
// The loop ticks once per FrameInterval while the simulation is hot and idles
// once it has cooled down.
package layout
