package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"previewhub/internal/model"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// indexChipLimit is how many item chips an index card shows before "+N more".
const indexChipLimit = 3

// Link is an anchor on a generated page.
type Link struct {
	Label string
	Href  string
}

// IndexEntry is one preview card on the global listing.
type IndexEntry struct {
	ClientName string
	ClientSlug string
	Status     model.Status
	UpdatedAt  string
	// Search is the lowercase blob the client-side filter matches against.
	Search string
	// Primary opens the preview: the share path when a token exists.
	Primary string
	// Secondary always points at the human client page.
	Secondary string
	Chips     []Link
	More      int
}

// ClientEntry is one item card on a client listing.
type ClientEntry struct {
	Title     string
	Slug      string
	Status    model.Status
	UpdatedAt string
	Notes     []string
	Href      string
}

// SearchBlob joins the client name, client slug, preview id and item slugs, lowercased.
func SearchBlob(p *model.Preview) string {
	parts := []string{p.ClientName, p.ClientSlug, p.PreviewID}
	for _, it := range p.Items {
		parts = append(parts, it.Slug)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// IndexEntries computes the global listing, newest preview first.
func IndexEntries(previews []*model.Preview) []IndexEntry {
	sorted := model.SortPreviews(previews)
	entries := make([]IndexEntry, 0, len(sorted))
	for _, p := range sorted {
		e := IndexEntry{
			ClientName: p.ClientName,
			ClientSlug: p.ClientSlug,
			Status:     p.Status,
			UpdatedAt:  p.UpdatedAt,
			Search:     SearchBlob(p),
			Primary:    ShareClientPath(p),
			Secondary:  ClientPath(p),
		}
		for i, it := range p.Items {
			if i == indexChipLimit {
				e.More = len(p.Items) - indexChipLimit
				break
			}
			e.Chips = append(e.Chips, Link{Label: it.Slug, Href: ShareItemPath(p, it)})
		}
		entries = append(entries, e)
	}
	return entries
}

// ClientEntries computes a client listing, newest item first.
func ClientEntries(p *model.Preview) []ClientEntry {
	items := p.SortedItems()
	entries := make([]ClientEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, ClientEntry{
			Title:     it.DisplayTitle(),
			Slug:      it.Slug,
			Status:    it.EffectiveStatus(p.Status),
			UpdatedAt: it.UpdatedAt,
			Notes:     it.NoteEntries(),
			Href:      ShareItemPath(p, it),
		})
	}
	return entries
}

// Renderer turns page data into HTML using the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"date":        formatDate,
		"statusClass": statusClass,
	}).ParseFS(templateFiles, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Index renders the global listing.
func (r *Renderer) Index(previews []*model.Preview, builtAt time.Time) ([]byte, error) {
	return r.execute("index.html.tmpl", struct {
		Entries []IndexEntry
		BuiltAt string
	}{
		Entries: IndexEntries(previews),
		BuiltAt: model.FormatDate(builtAt),
	})
}

// Client renders one client listing.
func (r *Renderer) Client(p *model.Preview) ([]byte, error) {
	return r.execute("client.html.tmpl", struct {
		Preview *model.Preview
		Count   int
		Entries []ClientEntry
	}{
		Preview: p,
		Count:   len(p.Items),
		Entries: ClientEntries(p),
	})
}

// Item renders the scaffold of one item page.
func (r *Renderer) Item(p *model.Preview, it *model.Item) ([]byte, error) {
	return r.execute("item.html.tmpl", struct {
		ClientName string
		ClientHref string
		Title      string
		Status     model.Status
		UpdatedAt  string
		Notes      []string
	}{
		ClientName: p.ClientName,
		ClientHref: ClientPath(p),
		Title:      it.DisplayTitle(),
		Status:     it.EffectiveStatus(p.Status),
		UpdatedAt:  it.UpdatedAt,
		Notes:      it.NoteEntries(),
	})
}

// Redirect renders a page that forwards the browser to target.
func (r *Renderer) Redirect(target, label string) ([]byte, error) {
	return r.execute("redirect.html.tmpl", struct {
		Target string
		Label  string
	}{Target: target, Label: label})
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// formatDate renders an ISO date as "Mar 4, 2026"; unparseable input is returned as is.
func formatDate(value string) string {
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonClassChars = regexp.MustCompile(`[^a-z-]`)
)

// statusClass turns "Ready for Review" into "ready-for-review".
func statusClass(status model.Status) string {
	class := whitespaceRun.ReplaceAllString(strings.ToLower(string(status)), "-")
	return nonClassChars.ReplaceAllString(class, "")
}
