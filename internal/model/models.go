package model

import (
	"database/sql"
	"regexp"
	"slices"
	"strings"
	"time"
)

// DateLayout is the day-precision layout used for every updated_at field.
const DateLayout = "2006-01-02"

// CurrentRegistryVersion is written to documents that carry no version.
const CurrentRegistryVersion = 1

// Status is the review state of a preview or item.
type Status string

const (
	StatusDraft          Status = "Draft"
	StatusReadyForReview Status = "Ready for Review"
	StatusApproved       Status = "Approved"
	StatusArchived       Status = "Archived"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusDraft, StatusReadyForReview, StatusApproved, StatusArchived}

// Valid reports whether s is one of the fixed statuses. Matching is exact.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus matches free-form input against the known statuses,
// ignoring case and surrounding whitespace.
func ParseStatus(input string) (Status, bool) {
	needle := strings.TrimSpace(input)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), needle) {
			return s, true
		}
	}
	return "", false
}

// StatusNames returns the statuses as plain strings, for messages.
func StatusNames() []string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return names
}

// Registry is the persisted document: the single source of truth.
type Registry struct {
	Version  int        `json:"registry_version"`
	Previews []*Preview `json:"previews"`
}

// NewRegistry returns an empty registry at the current version.
func NewRegistry() *Registry {
	return &Registry{Version: CurrentRegistryVersion, Previews: []*Preview{}}
}

// FindByClientSlug returns the preview with the given client slug, or nil.
func (r *Registry) FindByClientSlug(clientSlug string) *Preview {
	for _, p := range r.Previews {
		if p.ClientSlug == clientSlug {
			return p
		}
	}
	return nil
}

// FindByShareToken returns the preview holding token, or nil.
func (r *Registry) FindByShareToken(token string) *Preview {
	if token == "" {
		return nil
	}
	for _, p := range r.Previews {
		if p.ShareToken == token {
			return p
		}
	}
	return nil
}

// PreviewIDs returns the set of preview identifiers in use.
func (r *Registry) PreviewIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Previews))
	for _, p := range r.Previews {
		ids[p.PreviewID] = struct{}{}
	}
	return ids
}

// Remove deletes the preview with the given client slug.
// Returns false if no such preview exists.
func (r *Registry) Remove(clientSlug string) bool {
	before := len(r.Previews)
	r.Previews = slices.DeleteFunc(r.Previews, func(p *Preview) bool {
		return p.ClientSlug == clientSlug
	})
	return len(r.Previews) != before
}

// Preview is one client engagement.
type Preview struct {
	PreviewID         string  `json:"preview_id"`
	ClientName        string  `json:"client_name"`
	ClientSlug        string  `json:"client_slug"`
	Status            Status  `json:"status"`
	UpdatedAt         string  `json:"updated_at"`
	ShareToken        string  `json:"share_token,omitempty"`
	ShareHomeItemSlug string  `json:"share_home_item_slug,omitempty"`
	Items             []*Item `json:"items"`
}

// FindItem returns the item with the given slug, or nil.
func (p *Preview) FindItem(itemSlug string) *Item {
	for _, it := range p.Items {
		if it.Slug == itemSlug {
			return it
		}
	}
	return nil
}

// HasShareToken reports whether the preview has a client-facing share namespace.
func (p *Preview) HasShareToken() bool {
	return p.ShareToken != ""
}

// Touch stamps the preview as updated on the given day.
func (p *Preview) Touch(t time.Time) {
	p.UpdatedAt = FormatDate(t)
}

// SortedItems returns the items ordered by updated_at, newest first.
// Items updated on the same day keep their insertion order.
func (p *Preview) SortedItems() []*Item {
	items := slices.Clone(p.Items)
	slices.SortStableFunc(items, func(a, b *Item) int {
		return strings.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return items
}

// Item is one page variant inside a preview.
type Item struct {
	Slug      string `json:"slug"`
	Title     string `json:"title,omitempty"`
	Status    Status `json:"status,omitempty"`
	UpdatedAt string `json:"updated_at"`
	Notes     string `json:"notes,omitempty"`
}

// EffectiveStatus is the item's own status, falling back to its parent's.
func (it *Item) EffectiveStatus(parent Status) Status {
	if it.Status != "" {
		return it.Status
	}
	return parent
}

// DisplayTitle is the title, or the slug when no title was recorded.
func (it *Item) DisplayTitle() string {
	if it.Title != "" {
		return it.Title
	}
	return it.Slug
}

var noteSeparator = regexp.MustCompile(`\n|;\s*`)

// NoteEntries splits the free-text notes into individual log entries.
func (it *Item) NoteEntries() []string {
	return SplitNotes(it.Notes)
}

// SplitNotes splits notes on newlines or semicolons, trims each entry and
// drops empty ones.
func SplitNotes(notes string) []string {
	if notes == "" {
		return nil
	}
	var entries []string
	for _, part := range noteSeparator.Split(notes, -1) {
		if part = strings.TrimSpace(part); part != "" {
			entries = append(entries, part)
		}
	}
	return entries
}

// SortPreviews returns previews ordered by updated_at, newest first.
// The sort is stable: previews updated on the same day keep their input order.
func SortPreviews(previews []*Preview) []*Preview {
	sorted := slices.Clone(previews)
	slices.SortStableFunc(sorted, func(a, b *Preview) int {
		return strings.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return sorted
}

// FormatDate renders t as an ISO calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Operation is one recorded CLI command run.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
}

// Operation statuses.
const (
	OperationRunning = "running"
	OperationSuccess = "success"
	OperationError   = "error"
)
