package site

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

//go:embed static/*
var staticFiles embed.FS

// AssetsRoot holds the shared stylesheets and scripts.
const AssetsRoot = "assets"

// sharedAssets are copied from static/ into assets/ at the site root.
var sharedAssets = []string{"theme.css", "site.css", "search.js"}

const itemStyleAsset = "item-style.css"

// Builder writes the derived tree into a SiteFS.
type Builder struct {
	fsys     hub.SiteFS
	renderer *Renderer
	clock    hub.Clock
	logger   hub.Logger
}

// NewBuilder creates a Builder writing into fsys.
func NewBuilder(fsys hub.SiteFS, clock hub.Clock, logger hub.Logger) (*Builder, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hub.NopLogger{}
	}
	return &Builder{
		fsys:     fsys,
		renderer: renderer,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Rebuild regenerates the tree from reg, which must already be validated.
//
// Index and client pages are always rewritten. Item pages and their stylesheets
// are written only when missing unless opts.Force is set, so hand edits survive.
// The share tree under s/ is removed and regenerated from scratch, which drops
// redirects for tokens that no longer exist.
//
// The rebuild is not atomic: a failure part way leaves a partially updated tree.
func (b *Builder) Rebuild(reg *model.Registry, opts hub.BuildOptions) (*hub.BuildReport, error) {
	report := &hub.BuildReport{}

	if err := b.writeAssets(opts.Force); err != nil {
		return nil, err
	}

	index, err := b.renderer.Index(reg.Previews, b.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := b.write(IndexFile(), index); err != nil {
		return nil, err
	}

	for _, p := range reg.Previews {
		page, err := b.renderer.Client(p)
		if err != nil {
			return nil, err
		}
		if err := b.write(ClientFile(p), page); err != nil {
			return nil, err
		}
		report.Clients++
	}

	// items are scaffolded only once every client page is in place
	for _, p := range reg.Previews {
		for _, it := range p.Items {
			written, err := b.scaffoldItem(p, it, opts.Force)
			if err != nil {
				return nil, err
			}
			if written {
				report.ItemsScaffolded++
			} else {
				report.ItemsKept++
			}
		}
	}

	redirects, err := b.writeShareTree(reg.Previews)
	if err != nil {
		return nil, err
	}
	report.Redirects = redirects

	return report, nil
}

// scaffoldItem writes the item page and stylesheet. It reports whether the page was written.
func (b *Builder) scaffoldItem(p *model.Preview, it *model.Item, force bool) (bool, error) {
	page, err := b.renderer.Item(p, it)
	if err != nil {
		return false, err
	}
	written, err := b.writeIfMissing(ItemFile(p, it), page, force)
	if err != nil {
		return false, err
	}

	style, err := staticFiles.ReadFile(path.Join("static", itemStyleAsset))
	if err != nil {
		return false, fmt.Errorf("reading embedded %s: %w", itemStyleAsset, err)
	}
	if _, err := b.writeIfMissing(ItemStyleFile(p, it), style, force); err != nil {
		return false, err
	}

	if written {
		b.logger.Debug("scaffolded item", "client", p.ClientSlug, "item", it.Slug)
	}
	return written, nil
}

func (b *Builder) writeShareTree(previews []*model.Preview) (int, error) {
	if err := b.fsys.RemoveAll(hub.ShareRoot); err != nil {
		return 0, fmt.Errorf("removing %s: %w", hub.ShareRoot, err)
	}

	count := 0
	for _, p := range previews {
		if !p.HasShareToken() {
			continue
		}

		landing, err := b.renderer.Redirect(ShareLandingPath(p), p.ClientName+" preview")
		if err != nil {
			return 0, err
		}
		if err := b.write(TokenFile(p.ShareToken), landing); err != nil {
			return 0, err
		}
		count++

		for _, it := range p.Items {
			page, err := b.renderer.Redirect(ItemPath(p, it), p.ClientName+" "+it.Slug)
			if err != nil {
				return 0, err
			}
			if err := b.write(TokenItemFile(p.ShareToken, it), page); err != nil {
				return 0, err
			}
			count++
		}
	}
	return count, nil
}

func (b *Builder) writeAssets(force bool) error {
	for _, name := range sharedAssets {
		data, err := staticFiles.ReadFile(path.Join("static", name))
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", name, err)
		}
		if _, err := b.writeIfMissing(path.Join(AssetsRoot, name), data, force); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) write(name string, data []byte) error {
	if err := b.fsys.WriteFile(name, data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (b *Builder) writeIfMissing(name string, data []byte, force bool) (bool, error) {
	if !force {
		_, err := fs.Stat(b.fsys, name)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("checking %s: %w", name, err)
		}
	}
	if err := b.write(name, data); err != nil {
		return false, err
	}
	return true, nil
}

// Compile-time check that Builder implements hub.Builder
var _ hub.Builder = (*Builder)(nil)
