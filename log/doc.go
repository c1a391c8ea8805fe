// Package log provides the leveled, printf-style logging interface used across archviz.
//
// Every component (the graph store, the layout engine, the interaction controller,
// the service client and the persistence backends) accepts a Logger through an
// option and falls back to NoOpLogger when none is given, so the engine stays
// silent when embedded.
//
// Implementations:
//
//   - DefaultLogger writes through the standard library log package
//   - GologLogger forwards to github.com/kataras/golog, the CLI default
//   - ZapLogger forwards to a go.uber.org/zap SugaredLogger
//
// New picks one by name, as the [log] backend setting does:
//
//	logger, err := log.New(log.BackendZap, os.Stderr, log.LogLevelInfo)
//
// Example:
//
//	logger := log.NewGolog(log.LogLevelDebug)
//	store := graph.NewStore(graph.WithLogger(logger))
//
// Levels can be read from configuration with ParseLevel:
//
//	level, err := log.ParseLevel(cfg.Log.Level)
package log
