// Package log provides the small leveled-logging interface the graph
// package's Executor logs through.
//
// # Logger interface
//
// Logger exposes four methods (Debug, Info, Warn, Error), each taking
// a printf-style format string. Two implementations are provided:
//
//   - DefaultLogger wraps log/slog with a text handler, filtering by a
//     LogLevel set at construction time.
//   - GologLogger wraps an existing github.com/kataras/golog.Logger for
//     callers who already standardized on it.
//
// NoOp returns a Logger that discards everything; graph.NewExecutor
// defaults to it when no logger is supplied, matching the trace hooks'
// own "no-op if unset" convention.
//
// # Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("starting run for node %s", nodeID)
//	logger.Warn("type mismatch on %s.%s", nodeID, portName)
//
// # golog adapter
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//	logger.Debug("verbose: %v", payload)
//
// # What this package does NOT do
//
// It is not a tracing or metrics system: graph.TraceHooks covers
// before/after/edge_data/checkpoint observation. The core itself logs
// through this interface for exactly one purpose: the soft
// TypeMismatch diagnostic produced by Port.SetValue, which is logged
// and never thrown. There is no package-level global logger; each
// Executor is constructed with the Logger it should use.
package log
