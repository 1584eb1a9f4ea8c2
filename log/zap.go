package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is a global logger configured to output messages at info
// level and above to stderr.
var DefaultLogger Logger = NewZap(zapcore.InfoLevel, os.Stderr)

// Zap implements Logger with go.uber.org/zap as the underlying library.
type Zap struct {
	sugar *zap.SugaredLogger
}

// enforce compilation error when the interface contract changes
var _ Logger = (*Zap)(nil)

// NewZap creates a Zap logger writing JSON-encoded entries at the given
// level to the given writer.
func NewZap(level zapcore.Level, w *os.File) *Zap {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Zap{sugar: logger.Sugar()}
}

func (z *Zap) Debug(v ...any)                 { z.sugar.Debug(v...) }
func (z *Zap) Debugf(format string, v ...any) { z.sugar.Debugf(format, v...) }
func (z *Zap) Info(v ...any)                  { z.sugar.Info(v...) }
func (z *Zap) Infof(format string, v ...any)  { z.sugar.Infof(format, v...) }
func (z *Zap) Warn(v ...any)                  { z.sugar.Warn(v...) }
func (z *Zap) Warnf(format string, v ...any)  { z.sugar.Warnf(format, v...) }
func (z *Zap) Error(v ...any)                 { z.sugar.Error(v...) }
func (z *Zap) Errorf(format string, v ...any) { z.sugar.Errorf(format, v...) }

// With returns a Logger that includes the given key-value pairs in all
// subsequent log entries.
func (z *Zap) With(keyValues ...any) Logger {
	return &Zap{sugar: z.sugar.With(keyValues...)}
}
