// Package log provides the small logging facade used throughout erlike.
//
// It exists so that the node/proc core never imports a concrete logging
// library directly: callers may supply any Logger implementation through
// NodeOption, and the package ships one production implementation (Zap,
// backed by go.uber.org/zap) and one no-op implementation (Discard) for
// tests that don't want log noise.
package log

// Logger represents an active logging object used by Node and Proc to
// report lifecycle events (a proc's normal or abnormal exit).
type Logger interface {
	// Debug starts a new message with debug level.
	Debug(...any)
	// Debugf starts a new message with debug level.
	Debugf(string, ...any)
	// Info starts a new message with info level.
	Info(...any)
	// Infof starts a new message with info level.
	Infof(string, ...any)
	// Warn starts a new message with warn level.
	Warn(...any)
	// Warnf starts a new message with warn level.
	Warnf(string, ...any)
	// Error starts a new message with error level.
	Error(...any)
	// Errorf starts a new message with error level.
	Errorf(string, ...any)
	// With returns a Logger that includes the given key-value pairs in all
	// subsequent log entries.
	With(keyValues ...any) Logger
}
