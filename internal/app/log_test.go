package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Handle(t *testing.T) {
	ts := time.Date(2026, 3, 4, 9, 41, 7, 0, time.UTC)

	tests := []struct {
		name    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "info message",
			level:   slog.LevelInfo,
			message: "site rebuilt",
			want:    "2026-03-04T09:41:07Z\tINFO\top-1\tsite rebuilt\n",
		},
		{
			name:    "warn level",
			level:   slog.LevelWarn,
			message: "share home missing",
			want:    "2026-03-04T09:41:07Z\tWARN\top-1\tshare home missing\n",
		},
		{
			name:    "with record attrs",
			level:   slog.LevelInfo,
			message: "item added",
			attrs:   []slog.Attr{slog.String("client", "sunbeam-co"), slog.Int("items", 2)},
			want:    "2026-03-04T09:41:07Z\tINFO\top-1\titem added\tclient=sunbeam-co\titems=2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lineHandler{w: &buf, opID: "op-1"}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("publisher", "s3")}).(*lineHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "upload", 0)
	r.AddAttrs(slog.String("key", "index.html"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "\ta=1\tpublisher=s3\tkey=index.html\n") {
		t.Errorf("attrs out of order or missing: %q", got)
	}
}

func TestLineHandler_Enabled(t *testing.T) {
	h := &lineHandler{min: slog.LevelWarn}
	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := h.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestFanoutHandler(t *testing.T) {
	var all, loud bytes.Buffer
	logger := slog.New(fanoutHandler{
		&lineHandler{w: &all, min: slog.LevelDebug, opID: "op-1"},
		&lineHandler{w: &loud, min: slog.LevelWarn, opID: "op-1"},
	}).With("client", "sunbeam-co")

	logger.Debug("file published")
	logger.Error("upload failed")

	if n := strings.Count(all.String(), "\n"); n != 2 {
		t.Errorf("debug handler got %d lines, want 2:\n%s", n, all.String())
	}
	if strings.Contains(loud.String(), "file published") || !strings.Contains(loud.String(), "upload failed") {
		t.Errorf("warn handler output = %q, want only the error", loud.String())
	}
	if !strings.Contains(loud.String(), "client=sunbeam-co") {
		t.Errorf("With attrs not propagated: %q", loud.String())
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-op", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hello", "n", 1)
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\tINFO\ttest-op\thello\tn=1\n") {
		t.Errorf("log file = %q", data)
	}
}
