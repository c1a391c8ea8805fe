// Package export turns the architecture graph into files.
//
// Documents (JSON, YAML) serialize the canonical graph. Images (SVG, PNG) and
// the HTML report draw a layout.Frame, so they show exactly what the engine
// shows: the visible subgraph at its simulated positions, with the selection,
// search highlights and scene transform applied. DOT, Mermaid and ASCII produce
// text diagrams for other tools.
//
//	f, _ := os.Create(export.Filename(store.System(), "svg"))
//	defer f.Close()
//	err := export.SVG(f, engine.Frame(), export.DefaultSVGOptions())
package export
