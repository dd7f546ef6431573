package hub

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by hub operations. Callers test with errors.Is.
var (
	// ErrInvalidRegistry matches every *ValidationError.
	ErrInvalidRegistry = errors.New("invalid registry")

	// ErrUsage is returned for malformed or missing command input.
	ErrUsage = errors.New("usage error")

	// ErrNotFound is returned when a client slug, item slug or token does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCollision is returned when a mutation would duplicate a unique value.
	ErrCollision = errors.New("collision")
)

// Rule names the registry invariant a ValidationError reports.
type Rule string

const (
	RuleMalformedDocument   Rule = "malformed-document"
	RuleRequiredField       Rule = "required-field"
	RuleDuplicatePreviewID  Rule = "duplicate-preview-id"
	RuleDuplicateClientSlug Rule = "duplicate-client-slug"
	RuleInvalidStatus       Rule = "invalid-status"
	RuleDuplicateShareToken Rule = "duplicate-share-token"
	RuleDuplicateItemSlug   Rule = "duplicate-item-slug"
	RuleUnknownShareHome    Rule = "unknown-share-home"
	RuleUnsafeSegment       Rule = "unsafe-path-segment"
)

// ValidationError reports the first invariant a registry document breaks.
type ValidationError struct {
	Rule Rule
	// Subject identifies the offending preview or item, e.g. "sunbeam-co/home-v1".
	Subject string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("invalid registry [%s]: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("invalid registry [%s] at %s: %s", e.Rule, e.Subject, e.Message)
}

// Is lets errors.Is(err, ErrInvalidRegistry) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRegistry
}

// BrokenLink is one internal link that resolves to nothing.
type BrokenLink struct {
	File string // site-relative path of the referencing page
	Link string // link text as written in the page
}

// LinkIntegrityError lists every broken internal link found in a built tree.
type LinkIntegrityError struct {
	Broken []BrokenLink
}

func (e *LinkIntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "broken links detected (%d):", len(e.Broken))
	for _, l := range e.Broken {
		fmt.Fprintf(&b, "\n- %s: %s", l.File, l.Link)
	}
	return b.String()
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func collisionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCollision, fmt.Sprintf(format, args...))
}
