package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the log level, format and destinations.
type Config struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	Path       string `env:"LOG_PATH" envDefault:"./logs"`
	File       string `env:"LOG_FILE" envDefault:"pantry.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"14"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

type traceKey struct{}

var (
	mu  sync.RWMutex
	log = newLogger(os.Stdout, "info", "text")
)

func newLogger(w io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "msg",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}
	return l
}

// Init replaces the global logger according to cfg. File output is rotated
// by lumberjack.
func Init(cfg Config) error {
	if _, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err != nil && cfg.Level != "" {
		return fmt.Errorf("unknown log level: %s", cfg.Level)
	}

	var writers []io.Writer
	switch cfg.Output {
	case "", "stdout":
		writers = append(writers, os.Stdout)
	case "file", "both":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, cfg.File),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		if cfg.Output == "both" {
			writers = append(writers, os.Stdout)
		}
	default:
		return fmt.Errorf("unknown log output: %s", cfg.Output)
	}

	Replace(newLogger(io.MultiWriter(writers...), cfg.Level, cfg.Format))
	return nil
}

// L returns the global logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Replace installs l as the global logger.
func Replace(l *logrus.Logger) {
	if l == nil {
		panic("logger: nil logger provided")
	}
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// WithModule returns an entry tagged with the module name.
func WithModule(module string) *logrus.Entry {
	return L().WithField("module", module)
}

// WithContext returns an entry carrying the trace id stored in ctx, if any.
func WithContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := L().WithContext(ctx)
	if id, ok := ctx.Value(traceKey{}).(string); ok && id != "" {
		entry = entry.WithField("trace_id", id)
	}
	return entry
}

// ContextWithTrace stores a trace id in ctx.
func ContextWithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceFromContext returns the trace id stored in ctx.
func TraceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// NewTraceID returns a short opaque identifier an operator can grep for.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ErrorWithTrace logs err with fields and returns the trace id attached to
// the entry. The id stored in ctx is reused; a fresh one is generated when
// ctx carries none.
func ErrorWithTrace(ctx context.Context, err error, fields logrus.Fields) string {
	traceID := traceOrNew(ctx)
	L().WithFields(fields).WithError(err).WithField("trace_id", traceID).Error("request failed")
	return traceID
}

// WarnWithTrace logs msg as a warning and returns its trace id.
func WarnWithTrace(ctx context.Context, msg string, fields logrus.Fields) string {
	traceID := traceOrNew(ctx)
	L().WithFields(fields).WithField("trace_id", traceID).Warn(msg)
	return traceID
}

func traceOrNew(ctx context.Context) string {
	if ctx != nil {
		if id := TraceFromContext(ctx); id != "" {
			return id
		}
	}
	return NewTraceID()
}
