package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	"previewhub/internal/hub"
)

// IgnoreFileName holds extra publish patterns at the site root, one per line.
const IgnoreFileName = ".publishignore"

// defaultIgnorePatterns are never published: the registry is an internal
// document and the rest are tooling leftovers.
var defaultIgnorePatterns = []string{
	IgnoreFileName,
	"preview-registry.json",
	".git",
	"node_modules",
	".DS_Store",
	".tmp-*",
}

type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// IgnoreMatcher decides which site files stay out of a publish.
// Patterns without '/' match against the basename only.
// Patterns with '/' match against the full slash-separated path from the site root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher builds a matcher from the default patterns plus rawPatterns.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns ...[]string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	m.add(defaultIgnorePatterns)
	for _, set := range rawPatterns {
		m.add(set)
	}
	return m
}

func (m *IgnoreMatcher) add(raw []string) {
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			pattern:   strings.TrimPrefix(p, "/"),
			matchPath: strings.Contains(p, "/"),
		})
	}
}

// Match reports whether relativePath should be skipped.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	base := path.Base(relativePath)
	for _, p := range m.patterns {
		subject := base
		if p.matchPath {
			subject = relativePath
		}
		matched, err := path.Match(p.pattern, subject)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads the patterns in path. A missing file yields no patterns.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}

// Compile-time check that IgnoreMatcher implements hub.PathFilter
var _ hub.PathFilter = (*IgnoreMatcher)(nil)
