// Package graph holds the canonical architecture graph of an archviz session and
// everything derived from it.
//
// # Store
//
// Store is the single mutable object of the engine. It owns the nodes and edges
// returned by the inference service, the active system name, a version counter,
// the selection, the filters, the search term and a capped history of snapshots.
// It is an explicit value, passed to every component that needs it:
//
//	store := graph.NewStore(graph.WithLogger(logger))
//	store.SetGraph("shop", nodes, edges, "Build shop")
//	store.ExpandNode("checkout", addedNodes, addedEdges)
//
// SetGraph replaces the graph and bumps the version. ExpandNode merges a delta,
// dropping nodes and edges whose id is already known, and never touches the
// version. Both push a deep-copied HistoryItem; at most HistoryLimit are kept,
// newest first. RestoreVersion makes a snapshot canonical again without adding
// to history. Reset clears everything except history.
//
// # Listeners
//
// Components that derive data from the store subscribe with AddListener and are
// called synchronously after every mutation:
//
//	remove := store.AddListener(graph.StoreListenerFunc(
//		func(ctx context.Context, event graph.StoreEvent, s *graph.Store) {
//			if event.Structural() {
//				// re-derive
//			}
//		}))
//	defer remove()
//
// # View derivation
//
// DeriveView filters the canonical graph by category, expansion mode and depth,
// keeps only edges whose endpoints are both visible and marks nodes whose label
// matches the search term. ViewCache memoizes it per store revision so repeated
// reads return the same *View.
//
// # Vocabulary
//
// NodeType.Color and NodeType.Icon map categories to display attributes.
package graph
