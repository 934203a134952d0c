// Package log provides structured logging with session context.
//
// Every entry carries the session_id of the engine instance and, for
// component loggers, a "logger" name such as "engine" or "download".
// Fields passed as maps are emitted as top-level keys in sorted order.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/emotes/types"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures a Logger.
type Options struct {
	// Level is debug, info, warn or error (default info).
	Level string
	// Format is json (default) or console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger provides structured logging with session context.
type Logger struct {
	zap *zap.Logger
}

// New creates a logger. Unknown levels and formats are errors.
func New(session *types.SessionMeta, opts Options) (*Logger, error) {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		if err := lvl.Set(opts.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", opts.Level)
		}
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		NameKey:     "logger",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeName:  zapcore.FullNameEncoder,
	}
	var enc zapcore.Encoder
	switch opts.Format {
	case "", FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole:
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (must be json or console)", opts.Format)
	}

	z := zap.New(zapcore.NewCore(enc, zapcore.AddSync(opts.Output), lvl))
	if session != nil {
		z = z.With(zap.String("session_id", session.SessionID))
	}
	return &Logger{zap: z}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Named returns a logger for a component. Names nest with ".".
func (l *Logger) Named(component string) *Logger {
	return &Logger{zap: l.zap.Named(component)}
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{zap: l.zap.With(zapFields(fields)...)}
}

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, len(keys))
	for i, k := range keys {
		switch v := fields[k].(type) {
		case error:
			zf[i] = zap.NamedError(k, v)
		default:
			zf[i] = zap.Any(k, v)
		}
	}
	return zf
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	if ce := l.zap.Check(zapcore.DebugLevel, message); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zapFields(fields)...)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zapFields(fields)...)
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zapFields(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
