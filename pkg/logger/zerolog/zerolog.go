package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	messageWidth = 80
	fileWidth    = 18
	lineWidth    = 4
)

type paint func(format string, args ...interface{}) string

// levelLabels maps zerolog levels to their console tag and colour
var levelLabels = map[string]struct {
	tag   string
	color paint
}{
	zerolog.LevelTraceValue: {"TRC", term.Cyanf},
	zerolog.LevelDebugValue: {"DBG", term.Cyanf},
	zerolog.LevelInfoValue:  {"INF", term.Greenf},
	zerolog.LevelWarnValue:  {"WAR", term.Yellowf},
	zerolog.LevelErrorValue: {"ERR", term.Redf},
	zerolog.LevelFatalValue: {"FTL", term.Redf},
	zerolog.LevelPanicValue: {"PAN", term.Redf},
}

// New creates a zerolog backed logger writing to stdout, either as colored
// console lines or as JSON objects
func New(level, dateTimeLayout string, colored, jsonFormat bool) (*ZerologAdapter, error) {
	return NewWithWriter(os.Stdout, level, dateTimeLayout, colored, jsonFormat)
}

// NewWithWriter is New with a custom destination
func NewWithWriter(out io.Writer, level, dateTimeLayout string, colored, jsonFormat bool) (*ZerologAdapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logMode, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(logMode)

	if jsonFormat {
		logger := zerolog.New(out).With().Timestamp().Logger()
		return NewAdapter(&logger), nil
	}

	logger := zerolog.New(consoleWriter(out, dateTimeLayout, colored)).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return NewAdapter(&logger), nil
}

// consoleWriter lays out fixed-width columns: time, level, caller, message
func consoleWriter(out io.Writer, dateTimeLayout string, colored bool) zerolog.ConsoleWriter {
	color := func(p paint) paint {
		if colored {
			return p
		}
		return fmt.Sprintf
	}

	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !colored,
		TimeFormat: dateTimeLayout,
		FormatTimestamp: func(i interface{}) string {
			return color(term.Cyanf)("[%s]", localTime(i, dateTimeLayout))
		},
		FormatLevel: func(i interface{}) string {
			label, ok := levelLabels[fmt.Sprint(i)]
			if !ok {
				return color(term.Whitef)("[UNK]")
			}
			return color(label.color)("[%s]", label.tag)
		},
		FormatCaller: func(i interface{}) string {
			caller := shortCaller(i)
			if caller == "" {
				return ""
			}
			return color(term.Yellowf)("[%s]", caller)
		},
		FormatMessage: func(i interface{}) string {
			msg, _ := i.(string)
			if msg == "" {
				return ">"
			}
			return color(term.Whitef)("> %-*.*s", messageWidth, messageWidth, msg)
		},
	}
}

// localTime reformats an RFC3339 timestamp in the local zone
func localTime(i interface{}, layout string) string {
	value, ok := i.(string)
	if !ok {
		return fmt.Sprint(i)
	}

	ts, err := time.ParseInLocation(time.RFC3339, value, time.Local)
	if err != nil {
		return value
	}
	return ts.In(time.Local).Format(layout)
}

// shortCaller turns "dir/file.go:123" into a padded "file.go:123" column
func shortCaller(i interface{}) string {
	caller, _ := i.(string)
	if caller == "" {
		return ""
	}

	file, line, found := strings.Cut(filepath.Base(caller), ":")
	if !found {
		return filepath.Base(caller)
	}
	if len(line) > lineWidth {
		line = line[len(line)-lineWidth:]
	}
	return fmt.Sprintf("%-*.*s:%*s", fileWidth, fileWidth, file, lineWidth, line)
}
