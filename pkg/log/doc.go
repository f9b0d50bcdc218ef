// Package log is the structured logging interface shared by the coordinator,
// its adapters and plugins.
//
// Every component takes a Logger and falls back to NewNoopLogger when none is
// given. Production binaries wrap a zerolog logger:
//
//	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Fields are built with the helpers in this package. Lifecycle lines carry
// the worker id under the same key everywhere:
//
//	logger.Info("worker spawned", log.Worker(id), log.String("category", c))
//
// With scopes a logger, for example to tag every line a plugin writes:
//
//	pluginLogger := log.With(logger, log.String("plugin", "spoolwatcher"))
//
// Any type with Debug, Info, Warn and Error methods taking (string, ...Field)
// can stand in for the adapter.
package log
