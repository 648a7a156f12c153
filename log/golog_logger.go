package log

import (
	"fmt"

	"github.com/kataras/golog"
)

// GologLogger adapts kataras/golog to the Logger interface, for callers
// embedding the engine into a host process that already standardizes
// on golog for its own output (e.g. a server wrapping the Executor
// alongside its own request logging). An Executor is constructed with
// whichever Logger it should use (NewExecutor's logger parameter); a
// nil logger falls back to NoOp, so wiring GologLogger in is a caller
// decision, never a default.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps an existing golog.Logger at LogLevelInfo.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	g := &GologLogger{logger: logger}
	g.SetLevel(LogLevelInfo)
	return g
}

// Debug formats and logs a debug-level message.
func (l *GologLogger) Debug(format string, v ...any) {
	if l.level <= LogLevelDebug {
		l.logger.Debug(fmt.Sprintf(format, v...))
	}
}

// Info formats and logs an info-level message.
func (l *GologLogger) Info(format string, v ...any) {
	if l.level <= LogLevelInfo {
		l.logger.Info(fmt.Sprintf(format, v...))
	}
}

// Warn formats and logs a warn-level message. This is the level the
// Executor uses for the soft TypeMismatch diagnostic.
func (l *GologLogger) Warn(format string, v ...any) {
	if l.level <= LogLevelWarn {
		l.logger.Warn(fmt.Sprintf(format, v...))
	}
}

// Error formats and logs an error-level message.
func (l *GologLogger) Error(format string, v ...any) {
	if l.level <= LogLevelError {
		l.logger.Error(fmt.Sprintf(format, v...))
	}
}

// SetLevel sets the minimum level this logger forwards to golog,
// translating our LogLevel into golog's own level-name vocabulary.
func (l *GologLogger) SetLevel(level LogLevel) {
	l.level = level

	gologLevel := "info"
	switch level {
	case LogLevelDebug:
		gologLevel = "debug"
	case LogLevelInfo:
		gologLevel = "info"
	case LogLevelWarn:
		gologLevel = "warn"
	case LogLevelError:
		gologLevel = "error"
	case LogLevelNone:
		gologLevel = "disable"
	}

	l.logger.SetLevel(gologLevel)
}

// GetLevel returns the level this logger currently forwards at.
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}