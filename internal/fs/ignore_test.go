package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.psd"})
		if got, want := len(m.patterns), len(defaultIgnorePatterns)+1; got != want {
			t.Fatalf("expected %d patterns, got %d", want, got)
		}
		if last := m.patterns[len(m.patterns)-1]; last.pattern != "*.psd" {
			t.Errorf("expected *.psd, got %s", last.pattern)
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.psd", "clients/*/drafts", "/index.html"})
		n := len(defaultIgnorePatterns)
		if m.patterns[n].matchPath {
			t.Error("*.psd should not be a path pattern")
		}
		if !m.patterns[n+1].matchPath {
			t.Error("clients/*/drafts should be a path pattern")
		}
		if p := m.patterns[n+2]; !p.matchPath || p.pattern != "index.html" {
			t.Errorf("/index.html should anchor to the root, got %+v", p)
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{"registry is never published", nil, "preview-registry.json", true},
		{"ignore file is never published", nil, ".publishignore", true},
		{"git directory", nil, ".git", true},
		{"nested node_modules", nil, "clients/atlas/node_modules", true},
		{"leftover temp file", nil, "clients/atlas/.tmp-1234", true},
		{"site page is published", nil, "clients/atlas/index.html", false},
		{"share redirect is published", nil, "s/sb26/index.html", false},
		{"basename glob in subdirectory", []string{"*.psd"}, "clients/atlas/home-v1/hero.psd", true},
		{"basename glob different extension", []string{"*.psd"}, "clients/atlas/home-v1/hero.png", false},
		{"path pattern", []string{"clients/*/drafts"}, "clients/atlas/drafts", true},
		{"path pattern wrong depth", []string{"clients/*/drafts"}, "clients/atlas/home-v1/drafts", false},
		{"anchored pattern only matches root", []string{"/notes.md"}, "clients/notes.md", false},
		{"anchored pattern at root", []string{"/notes.md"}, "notes.md", true},
		{"character class", []string{"*.[oa]"}, "main.o", true},
		{"bad pattern is skipped", []string{"[", "*.log"}, "debug.log", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.relativePath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads patterns from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), IgnoreFileName)
		content := "*.psd\n# comment\n\n*.sketch\nclients/*/drafts\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(patterns) != 5 { // blank and comment lines are filtered by NewIgnoreMatcher
			t.Fatalf("expected 5 raw lines, got %d", len(patterns))
		}

		m := NewIgnoreMatcher(patterns)
		if got, want := len(m.patterns), len(defaultIgnorePatterns)+3; got != want {
			t.Errorf("expected %d parsed patterns, got %d", want, got)
		}
	})

	t.Run("returns nil for missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile("/nonexistent/" + IgnoreFileName)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
