package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const loggerKey contextKey = "logger"

// Common attribute keys
const (
	LogComponent = "component"
	LogOperation = "operation"
	LogError     = "error"
)

// TextLogger can be used during development for more readable logs
func SetupTextLogger(w io.Writer, logLevel slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Custom timestamp format
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "time",
					Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000")),
				}
			}
			return a
		},
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// NewTestLogger is a test logger that is used for testing
func NewTestLogger(logLevel slog.Level, discard bool) *slog.Logger {
	if discard {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return SetupTextLogger(os.Stderr, logLevel)
}

// ParseLevel maps debug/info/warn/error (any case) onto a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

// InitLoggerWithLevel builds the process logger writing to w and installs it
// as the slog default.
func InitLoggerWithLevel(w io.Writer, level string) (*slog.Logger, error) {
	logLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := SetupTextLogger(w, logLevel)

	// Set as default logger -- for calling slog.Info etc
	slog.SetDefault(logger)

	return logger, nil
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default() // Fallback to default logger
}

func FromContextWithOperation(ctx context.Context, operation string, kvs ...any) (context.Context, *slog.Logger) {
	logger := OperationLogger(FromContext(ctx), operation, kvs...)
	return WithLogger(ctx, logger), logger
}

// Extend logger with additional attributes
func ExtendLogger(logger *slog.Logger, kvs ...any) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(kvs...)
}

// Add some operation specific attributes to the logger
func OperationLogger(logger *slog.Logger, operation string, kvs ...any) *slog.Logger {
	attrs := append(kvs, slog.String(LogOperation, operation))
	return ExtendLogger(logger, attrs...)
}

func ComponentLogger(logger *slog.Logger, component string, kvs ...any) *slog.Logger {
	attrs := append(kvs, slog.String(LogComponent, component))
	return ExtendLogger(logger, attrs...)
}
