package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted in Options.Format. Anything else is JSON.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Field keys shared by the request and webhook paths.
const (
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldActorRole = "actor_role"
	FieldEventID   = "svix_id"
	FieldStack     = "stack"
)

type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger writes structured entries. Per-request fields travel in the
// context, so handlers never hold a logger of their own.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type entryKey struct{}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	root := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()

	return &Logger{root: root, warnStack: opts.WarnStack}
}

// ParseLevel falls back to info for empty or unknown names.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if e, ok := ctx.Value(entryKey{}).(*zerolog.Logger); ok {
			return e
		}
	}
	return &l.root
}

func (l *Logger) extend(ctx context.Context, add func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	e := add(l.entry(ctx).With()).Logger()
	return context.WithValue(ctx, entryKey{}, &e)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) withString(ctx context.Context, key, value string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(key, value)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.withString(ctx, FieldRequestID, requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.withString(ctx, FieldUserID, userID)
}

// WithActorRole tags entries with the dashboard role the guard resolved.
func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.withString(ctx, FieldActorRole, role)
}

// WithEventID tags entries with the webhook delivery id.
func (l *Logger) WithEventID(ctx context.Context, eventID string) context.Context {
	return l.withString(ctx, FieldEventID, eventID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	write(l.entry(ctx).Debug(), nil, false, msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	write(l.entry(ctx).Info(), nil, false, msg)
}

// Warn attaches a stack only when the logger was built with WarnStack.
func (l *Logger) Warn(ctx context.Context, msg string) {
	write(l.entry(ctx).Warn(), nil, l.warnStack, msg)
}

// Error always attaches a stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	write(l.entry(ctx).Error(), err, true, msg)
}

// write is a no-op for events below the configured level.
func write(event *zerolog.Event, err error, stack bool, msg string) {
	if event == nil {
		return
	}
	if err != nil {
		event = event.Err(err)
	}
	if stack {
		event = event.Str(FieldStack, strings.TrimSpace(string(debug.Stack())))
	}
	event.Msg(msg)
}
