package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
)

type Logger struct {
	slog  *slog.Logger
	level atomic.Int64
}

// Tag identifies the component emitting a log line.
type Tag interface {
	String() string
}

func NewText(w io.Writer) *Logger {
	return newLogger(slog.NewTextHandler(w, handlerOptions()))
}

func NewJson(w io.Writer) *Logger {
	return newLogger(slog.NewJSONHandler(w, handlerOptions()))
}

// New creates a logger with the given format ("text" or "json") and level name.
func New(w io.Writer, format string, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var l *Logger
	switch strings.ToLower(format) {
	case "", "text":
		l = NewText(w)
	case "json":
		l = NewJson(w)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	l.SetLevel(lvl)
	return l, nil
}

func newLogger(h slog.Handler) *Logger {
	l := &Logger{slog: slog.New(h)}
	l.level.Store(int64(LevelInfo))
	return l
}

func handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       slog.Level(LevelTrace),
		ReplaceAttr: replaceAttr,
	}
}

// SetLevel sets the logging level and returns the previous level.
func (l *Logger) SetLevel(level Level) (prev Level) {
	return Level(l.level.Swap(int64(level)))
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// Generic level message.
func (l *Logger) log(t any, msg string, level Level, v ...any) {
	if l.Level() > level {
		return
	}

	// Get source information if debug logs
	if l.Level() <= LevelDebug {
		if pc, _, _, ok := runtime.Caller(2); ok {
			if f := runtime.FuncForPC(pc); f != nil {
				v = append(v, slog.SourceKey, f.Name())
			}
		}
	}

	if t != nil {
		if tag, ok := t.(Tag); ok {
			v = append([]any{"tag", tag.String()}, v...)
		} else {
			v = append([]any{"tag", t}, v...)
		}
	}

	l.slog.Log(context.Background(), slog.Level(level), msg, v...)
}

// Trace level message.
func (l *Logger) Trace(t any, msg string, v ...any) {
	l.log(t, msg, LevelTrace, v...)
}

// Debug level message.
func (l *Logger) Debug(t any, msg string, v ...any) {
	l.log(t, msg, LevelDebug, v...)
}

// Info level message.
func (l *Logger) Info(t any, msg string, v ...any) {
	l.log(t, msg, LevelInfo, v...)
}

// Warn level message.
func (l *Logger) Warn(t any, msg string, v ...any) {
	l.log(t, msg, LevelWarn, v...)
}

// Error level message.
func (l *Logger) Error(t any, msg string, v ...any) {
	l.log(t, msg, LevelError, v...)
}

// Fatal level message, followed by an exit.
func (l *Logger) Fatal(t any, msg string, v ...any) {
	l.log(t, msg, LevelFatal, v...)
	os.Exit(1)
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		a.Value = slog.StringValue(Level(level).String())
	}
	return a
}
