package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"previewhub/internal/hub"
)

// LogFileName is the append-only log inside log_dir.
const LogFileName = "previewhub.log"

// lineHandler is a slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
type lineHandler struct {
	w     io.Writer
	min   slog.Level
	opID  string
	attrs []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.min }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	if _, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, r.Level, h.opID, r.Message); err != nil {
		return err
	}
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err := fmt.Fprintln(h.w)
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &lineHandler{
		w:     h.w,
		min:   h.min,
		opID:  h.opID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *lineHandler) WithGroup(string) slog.Handler { return h }

// fanoutHandler hands every record to each handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler { return f }

// newLogger creates a logger writing every record to logDir/previewhub.log and
// records at stderrLevel or above to stderr.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir, opID string, stderrLevel slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := fanoutHandler{
		&lineHandler{w: f, min: slog.LevelDebug, opID: opID},
		&lineHandler{w: os.Stderr, min: stderrLevel, opID: opID},
	}
	return slog.New(handler), f, nil
}

var _ hub.Logger = (*slog.Logger)(nil)
