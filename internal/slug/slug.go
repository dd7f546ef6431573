// Package slug derives URL-safe identifiers from free text.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PreviewIDPrefix starts every generated preview identifier.
const PreviewIDPrefix = "pvw"

// previewIDStamp truncates the creation time to the minute.
const previewIDStamp = "200601021504"

// Slugify lowercases text and collapses every run of characters outside
// [a-z0-9] into a single hyphen, with no hyphen at either end.
// Non-ASCII letters are dropped, not transliterated.
// An empty result means the input carried no usable characters.
func Slugify(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(lower))
	gap := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

var versionToken = regexp.MustCompile(`(?i)^v\d+$`)

// TitleFromSlug turns "checkout-v2" into "Checkout v2".
func TitleFromSlug(s string) string {
	pieces := strings.Split(s, "-")
	for i, piece := range pieces {
		if versionToken.MatchString(piece) {
			pieces[i] = strings.ToLower(piece)
			continue
		}
		r, size := utf8.DecodeRuneInString(piece)
		if r == utf8.RuneError {
			continue
		}
		pieces[i] = string(unicode.ToUpper(r)) + piece[size:]
	}
	return strings.Join(pieces, " ")
}

// BuildPreviewID composes pvw_<clientSlug>_<YYYYMMDDHHMM> and, if that is
// already taken, appends _2, _3, ... until an unused identifier is found.
//
// At most len(existing) candidates can collide, so the scan is bounded.
func BuildPreviewID(clientSlug string, existing map[string]struct{}, now time.Time) string {
	base := fmt.Sprintf("%s_%s_%s", PreviewIDPrefix, clientSlug, now.UTC().Format(previewIDStamp))
	if _, taken := existing[base]; !taken {
		return base
	}

	limit := len(existing) + 1
	for n := 2; n <= limit; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
	return fmt.Sprintf("%s_%d", base, limit+1)
}
