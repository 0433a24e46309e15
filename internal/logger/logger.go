// Package logger builds the structured loggers used by the client and the dev server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/httplog/v2"

	"github.com/vadimbarashkov/url-shortener-client/internal/config"
)

const serviceName = "url-shortener-client"

// New creates an httplog logger configured from cfg. Output goes to w, or
// stderr when w is nil, so that command output on stdout stays clean.
func New(cfg config.Log, w io.Writer) *httplog.Logger {
	if w == nil {
		w = os.Stderr
	}

	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel: ParseLevel(cfg.Level),
		JSON:     strings.EqualFold(cfg.Format, "json"),
		Concise:  true,
		Writer:   w,
	})
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{Writer: io.Discard}).Logger
}

// ParseLevel maps "debug", "warn" and "error" to their slog levels; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Redact hides a credential value in log attributes.
func Redact(key, value string) slog.Attr {
	if value == "" {
		return slog.Bool(key, false)
	}
	return slog.String(key, "[REDACTED]")
}
