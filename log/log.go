// Package log is a trimmed tagged logger: a factory hands out per-component
// loggers that write colored level-prefixed lines to a single writer. The
// host engine owns file output and log shipping; nothing here rotates,
// buffers, or observes.
package log

import (
	"context"
	"io"
	"os"
	"time"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/sagernet/sing/common/logger"

	"github.com/cyanoacrylate/ipcevents/option"
)

type Level = uint8

const (
	LevelPanic Level = iota
	LevelFatal
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = []string{"panic", "fatal", "error", "warn", "info", "debug", "trace"}

func FormatLevel(level Level) string {
	if int(level) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[level]
}

func ParseLevel(name string) (Level, error) {
	if name == "warning" {
		name = "warn"
	}
	for level, levelName := range levelNames {
		if levelName == name {
			return Level(level), nil
		}
	}
	return LevelTrace, E.New("unknown log level: ", name)
}

type Factory interface {
	Level() Level
	SetLevel(level Level)
	Logger() logger.ContextLogger
	NewLogger(tag string) logger.ContextLogger
}

func New(options option.LogOptions, writer io.Writer) (Factory, error) {
	if options.Disabled {
		return NewNOPFactory(), nil
	}
	level := LevelInfo
	if options.Level != "" {
		var err error
		level, err = ParseLevel(options.Level)
		if err != nil {
			return nil, E.Cause(err, "parse log level")
		}
	}
	if writer == nil {
		writer = os.Stderr
	}
	factory := NewFactory(Formatter{
		DisableColors:    options.DisableColor,
		DisableTimestamp: !options.Timestamp,
	}, writer)
	factory.SetLevel(level)
	return factory, nil
}

var _ Factory = (*simpleFactory)(nil)

type simpleFactory struct {
	formatter Formatter
	writer    io.Writer
	level     Level
}

func NewFactory(formatter Formatter, writer io.Writer) Factory {
	return &simpleFactory{
		formatter: formatter,
		writer:    writer,
		level:     LevelTrace,
	}
}

func (f *simpleFactory) Level() Level {
	return f.level
}

func (f *simpleFactory) SetLevel(level Level) {
	f.level = level
}

func (f *simpleFactory) Logger() logger.ContextLogger {
	return f.NewLogger("")
}

func (f *simpleFactory) NewLogger(tag string) logger.ContextLogger {
	return &simpleLogger{f, tag}
}

var _ logger.ContextLogger = (*simpleLogger)(nil)

type simpleLogger struct {
	*simpleFactory
	tag string
}

func (l *simpleLogger) Log(ctx context.Context, level Level, args []any) {
	if level > l.level {
		return
	}
	message := l.formatter.Format(level, l.tag, F.ToString(args...), time.Now())
	if level == LevelPanic {
		panic(message)
	}
	l.writer.Write([]byte(message))
	if level == LevelFatal {
		os.Exit(1)
	}
}

func (l *simpleLogger) Trace(args ...any) {
	l.TraceContext(context.Background(), args...)
}

func (l *simpleLogger) Debug(args ...any) {
	l.DebugContext(context.Background(), args...)
}

func (l *simpleLogger) Info(args ...any) {
	l.InfoContext(context.Background(), args...)
}

func (l *simpleLogger) Warn(args ...any) {
	l.WarnContext(context.Background(), args...)
}

func (l *simpleLogger) Error(args ...any) {
	l.ErrorContext(context.Background(), args...)
}

func (l *simpleLogger) Fatal(args ...any) {
	l.FatalContext(context.Background(), args...)
}

func (l *simpleLogger) Panic(args ...any) {
	l.PanicContext(context.Background(), args...)
}

func (l *simpleLogger) TraceContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelTrace, args)
}

func (l *simpleLogger) DebugContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelDebug, args)
}

func (l *simpleLogger) InfoContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelInfo, args)
}

func (l *simpleLogger) WarnContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelWarn, args)
}

func (l *simpleLogger) ErrorContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelError, args)
}

func (l *simpleLogger) FatalContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelFatal, args)
}

func (l *simpleLogger) PanicContext(ctx context.Context, args ...any) {
	l.Log(ctx, LevelPanic, args)
}
