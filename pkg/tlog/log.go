// Package tlog is dynsql's structured logging seam: a thin wrapper
// around go.uber.org/zap, the logging library the rest of the retrieved
// example pack reaches for. It exists so cmd/dynsql and any future
// compile/render-time diagnostics go through one consistent, leveled
// sink instead of fmt.Println.
package tlog

import "go.uber.org/zap"

// Logger is the small surface dynsql's own packages depend on, so tests
// can substitute zap.NewNop() without pulling in a real sink.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps a *zap.Logger as a Logger.
func New(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

// NewDevelopment returns a human-readable, console-encoded Logger
// suitable for cmd/dynsql's interactive use.
func NewDevelopment() Logger {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.NewNop()
	}
	return New(z)
}

// NewProduction returns a JSON-encoded Logger suitable for service use.
func NewProduction() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return New(z)
}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger { return New(zap.NewNop()) }

func (l *zapLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
