// Package logger defines the leveled, structured logger used across bullseye.
package logger

type Level int8

const (
	Disabled   Level = -1   // Disabled turns logging off.
	TraceLevel Level = iota // TraceLevel is used for detailed debugging information.
	DebugLevel              // DebugLevel is used for cache hits, fetch URLs and similar detail.
	InfoLevel               // InfoLevel is used for server lifecycle messages.
	WarnLevel               // WarnLevel is used for dropped tickers and skipped forecasts.
	ErrorLevel              // ErrorLevel is used for failed requests.
	FatalLevel              // FatalLevel is used for start-up failures that exit the program.
	NoLevel                 // NoLevel is used for no logging level.
)

type Logger interface {
	// Returns a logger decorated with the given context.
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any) // Fatal logs the message and then exits the program.

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}
