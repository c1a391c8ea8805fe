package log

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of a zap.SugaredLogger.
type ZapLogger struct {
	logger *zap.SugaredLogger
	level  LogLevel
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps an existing zap logger. Messages below level are dropped
// before they reach zap.
func NewZapLogger(logger *zap.Logger, level LogLevel) *ZapLogger {
	return &ZapLogger{logger: logger.Sugar(), level: level}
}

// NewZap creates a console-encoded zap logger writing to out.
func NewZap(out io.Writer, level LogLevel) *ZapLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(out), zapLevel(level))
	return NewZapLogger(zap.New(core).Named("archviz"), level)
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelNone:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func (l *ZapLogger) Debug(format string, v ...any) {
	if l.level <= LogLevelDebug {
		l.logger.Debugf(format, v...)
	}
}

func (l *ZapLogger) Info(format string, v ...any) {
	if l.level <= LogLevelInfo {
		l.logger.Infof(format, v...)
	}
}

func (l *ZapLogger) Warn(format string, v ...any) {
	if l.level <= LogLevelWarn {
		l.logger.Warnf(format, v...)
	}
}

func (l *ZapLogger) Error(format string, v ...any) {
	if l.level <= LogLevelError {
		l.logger.Errorf(format, v...)
	}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// Backend names accepted by New.
const (
	BackendStd   = "std"
	BackendGolog = "golog"
	BackendZap   = "zap"
)

// New creates a logger for the named backend writing to out at level.
// LogLevelNone always yields a NoOpLogger.
func New(backend string, out io.Writer, level LogLevel) (Logger, error) {
	if level == LogLevelNone {
		return NoOpLogger{}, nil
	}
	switch backend {
	case BackendStd:
		return NewCustomLogger(out, level), nil
	case "", BackendGolog:
		l := NewGolog(level)
		l.logger.SetOutput(out)
		return l, nil
	case BackendZap:
		return NewZap(out, level), nil
	}
	return nil, fmt.Errorf("unknown log backend %q", backend)
}
