// Package log provides the structured logger used by the compiler and the CLI.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging level.
type Level = zerolog.Level

const (
	// DebugLevel logs resolved relations and skipped references.
	DebugLevel = zerolog.DebugLevel
	// InfoLevel logs run lifecycle events.
	InfoLevel = zerolog.InfoLevel
	// WarnLevel logs schema warnings.
	WarnLevel = zerolog.WarnLevel
	// ErrorLevel logs failed runs.
	ErrorLevel = zerolog.ErrorLevel
	// Disabled turns logging off.
	Disabled = zerolog.Disabled
)

// Logger wraps a zerolog.Logger.
type Logger struct {
	l zerolog.Logger
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	out     io.Writer
	console bool
	level   Level
	rotate  *Rotate
}

// WithOutput writes JSON lines to w instead of the console writer.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
		o.console = false
	}
}

// WithConsole writes human-readable lines to w.
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.out = w
		o.console = true
	}
}

// WithLevel sets the minimum level.
func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithFile additionally writes JSON lines to a rotated log file.
func WithFile(r *Rotate) Option {
	return func(o *options) {
		o.rotate = r
	}
}

// New creates a new Logger. Without options it writes to stderr
// through the console writer at info level.
func New(opts ...Option) *Logger {
	o := &options{out: os.Stderr, console: true, level: InfoLevel}
	for _, opt := range opts {
		opt(o)
	}
	w := o.out
	if o.console {
		w = consoleWriter(o.out)
	}
	if o.rotate != nil {
		w = zerolog.MultiLevelWriter(w, newRotateWriter(o.rotate))
	}
	l := zerolog.New(w).Level(o.level).With().Timestamp().Logger()
	return &Logger{l: l}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{l: zerolog.Nop()}
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
	}
	console.FormatLevel = func(i any) string {
		return strings.ToUpper(fmt.Sprintf("| %-5s|", i))
	}
	console.FormatFieldName = func(i any) string {
		return fmt.Sprintf("%s=", i)
	}
	return console
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
	return level, nil
}

// SetLevel changes the minimum level of the logger.
func (l *Logger) SetLevel(level Level) {
	l.l = l.l.Level(level)
}

// With returns a context for building a child logger.
func (l *Logger) With() zerolog.Context {
	return l.l.With()
}

// Child returns a logger that adds the given string fields to every event.
func (l *Logger) Child(kv ...string) *Logger {
	ctx := l.l.With()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Str(kv[i], kv[i+1])
	}
	return &Logger{l: ctx.Logger()}
}

// Debug starts a debug event.
func (l *Logger) Debug() *zerolog.Event { return l.l.Debug() }

// Info starts an info event.
func (l *Logger) Info() *zerolog.Event { return l.l.Info() }

// Warn starts a warn event.
func (l *Logger) Warn() *zerolog.Event { return l.l.Warn() }

// Error starts an error event.
func (l *Logger) Error() *zerolog.Event { return l.l.Error() }

var std = New()

// Default returns the process-wide default logger.
func Default() *Logger { return std }

// SetDefault replaces the default logger.
func SetDefault(l *Logger) {
	if l != nil {
		std = l
	}
}
