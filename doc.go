// archviz - Explore System Architectures as Graphs
//
// archviz asks an inference service to describe the architecture of a named
// system ("netflix", "a url shortener") and keeps the answer as a graph of
// components and relations. Components can be expanded into their
// sub-components, filtered, searched, pinned and laid out with a force
// simulation, and the result can be exported as a document, an image or a
// diagram. The whole session is persisted and restored on the next run.
//
// # Quick Start
//
// Install the command line tool:
//
//	go install github.com/smallnest/archviz/cmd/archviz@latest
//
// Build, expand and export a graph:
//
//	archviz build netflix
//	archviz expand api-gateway
//	archviz show --type service,database --search cache
//	archviz export -f svg
//
// Basic library example:
//
//	package main
//
//	import (
//		"context"
//		"os"
//
//		"github.com/smallnest/archviz/client"
//		"github.com/smallnest/archviz/export"
//		"github.com/smallnest/archviz/graph"
//		"github.com/smallnest/archviz/interaction"
//		"github.com/smallnest/archviz/layout"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		svc, _ := client.New(client.WithBaseURL("http://localhost:8000"))
//		store := graph.NewStore()
//		engine := layout.NewEngine(store)
//		defer engine.Close()
//
//		ctrl := interaction.New(store, svc, interaction.WithEngine(engine))
//		if err := ctrl.Build(ctx, "netflix", true); err != nil {
//			panic(err)
//		}
//
//		engine.Settle(600)
//		export.SVG(os.Stdout, engine.Frame(), export.DefaultSVGOptions())
//	}
//
// # Key Features
//
//   - Single Store: one explicit value owns the graph, the selection, the filters and the history
//   - Deduplicating Merge: expansions never duplicate a node or an edge id
//   - Capped History: the last 20 builds and expansions can be restored
//   - Derived Views: filters and search never touch the canonical graph
//   - Force Layout: a deterministic simulation with pins, drag, zoom and pan
//   - Persistence: memory, file, Redis, SQLite and PostgreSQL backends
//   - Export: JSON, YAML, SVG, PNG, HTML, DOT, Mermaid and ASCII
//
// # Package Structure
//
// graph/
// The canonical graph store, its history and the view derivation
//
//	store := graph.NewStore(graph.WithLogger(logger))
//	store.SetGraph("shop", nodes, edges, "Build shop")
//	store.ExpandNode("checkout", addedNodes, addedEdges)
//
//	view := graph.NewViewCache(store).View()
//
// client/
// The HTTP client of the inference service, with retries and a circuit breaker
//
//	svc, _ := client.New(
//		client.WithBaseURL(cfg.API.BaseURL),
//		client.WithRetry(client.DefaultRetryConfig()),
//	)
//	resp, _ := svc.BuildGraph(ctx, "shop", false, true)
//
// layout/
// The force simulation and the viewport transform
//
//	engine := layout.NewEngine(store, layout.WithConfig(layout.DefaultConfig()))
//	engine.Settle(600)
//	frame := engine.Frame()
//
// interaction/
// Click, double click, drag, zoom and build handling on top of a store
//
//	ctrl := interaction.New(store, svc, interaction.WithEngine(engine))
//	ctrl.Click("gw")
//	_ = ctrl.DoubleClick(ctx, "gw")
//
// export/
// Documents, images and diagrams of a graph or a laid out frame
//
//	export.JSON(w, store.System(), store.Nodes(), store.Edges(), time.Now())
//	export.PNG(w, engine.Frame(), export.DefaultPNGOptions())
//	fmt.Println(export.Mermaid(view.Nodes, view.Edges, export.MermaidOptions{}))
//
// # Storage Packages
//
// store/
// Persisted state, autosave and restore
//
// Backends:
//   - memory: in-process, for tests
//   - file: one JSON document per key, optionally zstd compressed
//   - redis: one key per session with an optional TTL
//   - sqlite: a single table in a local database file
//   - postgres: a JSONB table for shared deployments
//
// Example:
//
//	be, _ := backend.Open(ctx, cfg.Storage)
//	defer be.Close()
//
//	store.Restore(ctx, be, "default", gs)
//	saver, detach := store.Attach(gs, be, store.WithKey("default"))
//	defer detach()
//	defer saver.Flush(ctx, gs)
//
// # Configuration
//
// config/ reads a TOML file from $XDG_CONFIG_HOME/archviz/config.toml.
// ARCHVIZ_API_URL, ARCHVIZ_STORAGE and ARCHVIZ_LOG_LEVEL override it.
//
//	[api]
//	base_url = "http://localhost:8000"
//	timeout = "2m"
//
//	[storage]
//	backend = "sqlite"
//	path = "~/.local/share/archviz"
//
//	[log]
//	level = "debug"
//	backend = "zap"
//
// log/ provides the Logger interface with std, golog and zap backends.
package archviz // import "github.com/smallnest/archviz"
