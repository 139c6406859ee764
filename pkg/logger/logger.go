// Package logger provides the application-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
)

// Module provides the logger via fx
var Module = fx.Module("logger",
	fx.Provide(
		NewLogger,
		NewHTTPLogger,
	),
)

// NewLogger creates the root slog logger.
// Level comes from LOG_LEVEL (debug|info|warn|error, default info).
// In production (GO_ENV=production) logs are JSON, otherwise text.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Scope returns the conventional scope attribute for component loggers.
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Error returns the conventional error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// HTTPLogger writes one line per HTTP request to a dedicated access log.
// When HTTP_LOG_FILE is unset it degrades to the main logger at debug level.
type HTTPLogger struct {
	log  *slog.Logger
	file *os.File
}

// NewHTTPLogger creates the access logger.
func NewHTTPLogger(log *slog.Logger) *HTTPLogger {
	h := &HTTPLogger{log: log.With(Scope("http"))}

	if path := os.Getenv("HTTP_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn("failed to open http log file, falling back to main logger",
				slog.String("path", path), Error(err))
		} else {
			h.file = f
			h.log = slog.New(slog.NewJSONHandler(f, nil)).With(Scope("http"))
		}
	}

	return h
}

// LogRequest records a completed HTTP request.
func (h *HTTPLogger) LogRequest(ip, method, uri string, status int, latency time.Duration, userAgent, requestID string) {
	h.log.Debug("request",
		slog.String("ip", ip),
		slog.String("method", method),
		slog.String("uri", uri),
		slog.Int("status", status),
		slog.Duration("latency", latency),
		slog.String("user_agent", userAgent),
		slog.String("request_id", requestID),
	)
}

// Close releases the access log file, if any.
func (h *HTTPLogger) Close() error {
	if h.file != nil {
		return h.file.Close()
	}
	return nil
}
