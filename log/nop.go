package log

import (
	"context"

	"github.com/sagernet/sing/common/logger"
)

var _ Factory = (*nopFactory)(nil)

type nopFactory struct{}

func NewNOPFactory() Factory {
	return (*nopFactory)(nil)
}

func (f *nopFactory) Level() Level {
	return LevelTrace
}

func (f *nopFactory) SetLevel(level Level) {
}

func (f *nopFactory) Logger() logger.ContextLogger {
	return (*nopLogger)(nil)
}

func (f *nopFactory) NewLogger(tag string) logger.ContextLogger {
	return (*nopLogger)(nil)
}

var _ logger.ContextLogger = (*nopLogger)(nil)

type nopLogger struct{}

func (l *nopLogger) Trace(args ...any) {
}

func (l *nopLogger) Debug(args ...any) {
}

func (l *nopLogger) Info(args ...any) {
}

func (l *nopLogger) Warn(args ...any) {
}

func (l *nopLogger) Error(args ...any) {
}

func (l *nopLogger) Fatal(args ...any) {
}

func (l *nopLogger) Panic(args ...any) {
}

func (l *nopLogger) TraceContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) DebugContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) InfoContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) WarnContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) ErrorContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) FatalContext(ctx context.Context, args ...any) {
}

func (l *nopLogger) PanicContext(ctx context.Context, args ...any) {
}
