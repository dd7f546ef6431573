// Package linkcheck verifies that every internal link in a built site resolves.
package linkcheck

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"previewhub/internal/hub"
	"previewhub/internal/site"
)

// Report is the outcome of a validation run.
type Report struct {
	FilesChecked int
	Broken       []hub.BrokenLink
}

var (
	attrPattern     = regexp.MustCompile(`(href|src)="([^"]+)"`)
	externalPattern = regexp.MustCompile(`(?i)^(https?:|mailto:|tel:|javascript:|data:|//)`)
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Validate scans index.html and every .html file below clients/ and s/.
// It returns a *hub.LinkIntegrityError alongside the report when any link is broken.
func Validate(fsys fs.FS) (*Report, error) {
	pages, err := collectPages(fsys)
	if err != nil {
		return nil, err
	}

	report := &Report{FilesChecked: len(pages)}
	for _, page := range pages {
		data, err := fs.ReadFile(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", page, err)
		}
		for _, link := range ExtractLinks(string(data)) {
			target, ok := Resolve(page, link)
			if !ok {
				continue
			}
			if target == "" || !targetExists(fsys, target) {
				report.Broken = append(report.Broken, hub.BrokenLink{File: page, Link: link})
			}
		}
	}

	if len(report.Broken) > 0 {
		return report, &hub.LinkIntegrityError{Broken: report.Broken}
	}
	return report, nil
}

func collectPages(fsys fs.FS) ([]string, error) {
	var pages []string
	if isFile(fsys, site.IndexFile()) {
		pages = append(pages, site.IndexFile())
	}

	for _, root := range []string{site.ClientsRoot, hub.ShareRoot} {
		err := fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				if name == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && strings.HasSuffix(name, ".html") {
				pages = append(pages, name)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return pages, nil
}

// ExtractLinks returns every href and src attribute value in html, in document order.
func ExtractLinks(html string) []string {
	matches := attrPattern.FindAllStringSubmatch(html, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m[2])
	}
	return links
}

// IsExternal reports whether link points outside the site.
func IsExternal(link string) bool {
	return externalPattern.MatchString(link)
}

// Resolve maps link, found in the page at from, to a slash-separated path
// relative to the site root. ok is false for links that are not checked:
// external links and empty or fragment-only links.
// A link that escapes the root resolves to "" with ok true.
func Resolve(from, link string) (target string, ok bool) {
	clean := link
	if i := strings.IndexByte(clean, '#'); i >= 0 {
		clean = clean[:i]
	}
	if i := strings.IndexByte(clean, '?'); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)
	if clean == "" || IsExternal(clean) {
		return "", false
	}

	var joined string
	if strings.HasPrefix(clean, "/") {
		joined = path.Clean(strings.TrimLeft(clean, "/"))
	} else {
		joined = path.Join(path.Dir(from), clean)
	}

	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", true
	}
	return joined, true
}

// targetExists accepts the path as a file, as <path>.html, or as <path>/index.html.
func targetExists(fsys fs.FS, target string) bool {
	if target != "." && (isFile(fsys, target) || isFile(fsys, target+".html")) {
		return true
	}
	return isFile(fsys, path.Join(target, "index.html"))
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.Mode().IsRegular()
}
