// Package logging wires slog output to the console, a per-session log file,
// and optionally a Graylog endpoint.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// FilePath builds the per-session log file path under dir.
func FilePath(dir, name string, sessionStart time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.log", name, sessionStart.Format("20060102-150405")))
}

// Manager owns the configured logger and the optional GELF connection.
type Manager struct {
	logger *slog.Logger
	gelf   *gelf.Writer
}

// NewManager creates an unconfigured manager.
func NewManager() *Manager {
	return &Manager{}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rfc3339Time rewrites record timestamps to UTC RFC3339 so the file and GELF
// streams sort identically across hosts.
func rfc3339Time(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
		}
	}
	return a
}

// Setup builds the logger. file may be nil to skip the file sink; graylogAddr
// may be empty to skip GELF. A GELF dial failure downgrades to the local
// sinks rather than failing setup.
func (m *Manager) Setup(file io.Writer, level string, graylogAddr string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: rfc3339Time}

	sinks := []slog.Handler{slog.NewTextHandler(os.Stdout, opts)}
	if file != nil {
		sinks = append(sinks, slog.NewTextHandler(file, opts))
	}
	if graylogAddr != "" {
		if w, err := gelf.NewWriter(graylogAddr); err == nil {
			m.gelf = w
			sinks = append(sinks, slog.NewJSONHandler(w, opts))
		}
	}

	m.logger = slog.New(tee(sinks))
	m.logger.Info("logging initialized", "level", level, "graylog", m.gelf != nil)
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *Manager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases the GELF connection if one was opened.
func (m *Manager) Close() error {
	if m.gelf != nil {
		return m.gelf.Close()
	}
	return nil
}

// tee duplicates records across every sink. A single sink is returned as-is.
func tee(sinks []slog.Handler) slog.Handler {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return teeHandler(sinks)
}

type teeHandler []slog.Handler

func (h teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range h {
		if s.Enabled(ctx, r.Level) {
			errs = append(errs, s.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(h))
	for i, s := range h {
		out[i] = s.WithAttrs(attrs)
	}
	return out
}

func (h teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(h))
	for i, s := range h {
		out[i] = s.WithGroup(name)
	}
	return out
}
