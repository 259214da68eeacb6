package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options tunes the logger returned by NewLogger.
type Options struct {
	Service string
	Level   slog.Level
	// CloudLogging switches attribute names to the structured fields Cloud Logging
	// understands (severity, message, sourceLocation).
	CloudLogging bool
	Writer       io.Writer
}

// NewLogger returns a slog logger configured for Cloud Logging compatibility.
func NewLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{AddSource: true, Level: opts.Level}
	if opts.CloudLogging {
		handlerOpts.ReplaceAttr = cloudLoggingAttr
	}
	handler := slog.NewJSONHandler(w, handlerOpts)
	return slog.New(handler).With(slog.String("service", opts.Service))
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID attaches a request identifier to the logger context.
func WithRequestID(ctx context.Context, logger *slog.Logger, requestID string) *slog.Logger {
	if requestID == "" {
		return logger
	}
	return logger.With(slog.String("requestId", requestID))
}

func cloudLoggingAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(severity(lvl))
		}
	case slog.MessageKey:
		a.Key = "message"
	case slog.SourceKey:
		a.Key = "logging.googleapis.com/sourceLocation"
	}
	return a
}

func severity(lvl slog.Level) string {
	switch {
	case lvl >= slog.LevelError:
		return "ERROR"
	case lvl >= slog.LevelWarn:
		return "WARNING"
	case lvl >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
