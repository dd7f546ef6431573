// Package site synthesizes the static preview tree from a validated registry.
package site

import (
	"path"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

// ClientsRoot holds one directory per client slug.
const ClientsRoot = "clients"

// URL paths. These are part of the published contract and must not change.

// ClientPath is the human URL of a client listing: /clients/<client_slug>/.
func ClientPath(p *model.Preview) string {
	return "/" + ClientsRoot + "/" + p.ClientSlug + "/"
}

// ItemPath is the human URL of an item page: /clients/<client_slug>/<item_slug>/.
func ItemPath(p *model.Preview, it *model.Item) string {
	return ClientPath(p) + it.Slug + "/"
}

// TokenPath is the share URL root for a token: /s/<token>/.
func TokenPath(token string) string {
	return "/" + hub.ShareRoot + "/" + token + "/"
}

// TokenItemPath is the share URL for one item: /s/<token>/<item_slug>/.
func TokenItemPath(token string, it *model.Item) string {
	return TokenPath(token) + it.Slug + "/"
}

// ShareClientPath is the client-facing URL of a preview: the token path when
// the preview has a share token, otherwise its human path.
func ShareClientPath(p *model.Preview) string {
	if p.HasShareToken() {
		return TokenPath(p.ShareToken)
	}
	return ClientPath(p)
}

// ShareItemPath is the client-facing URL of an item.
func ShareItemPath(p *model.Preview, it *model.Item) string {
	if p.HasShareToken() {
		return TokenItemPath(p.ShareToken, it)
	}
	return ItemPath(p, it)
}

// ShareLandingPath is where a bare share link redirects: the share home item
// when it is set and resolvable, otherwise the client listing.
func ShareLandingPath(p *model.Preview) string {
	if p.ShareHomeItemSlug != "" {
		if it := p.FindItem(p.ShareHomeItemSlug); it != nil {
			return ItemPath(p, it)
		}
	}
	return ClientPath(p)
}

// File names inside the site tree, slash-separated and relative to the root.

const indexFile = "index.html"

// IndexFile is the global listing.
func IndexFile() string { return indexFile }

// ClientFile is the listing page of one client.
func ClientFile(p *model.Preview) string {
	return path.Join(ClientsRoot, p.ClientSlug, indexFile)
}

// ItemDir is the directory of one item page.
func ItemDir(p *model.Preview, it *model.Item) string {
	return path.Join(ClientsRoot, p.ClientSlug, it.Slug)
}

// ItemFile is the scaffolded item page.
func ItemFile(p *model.Preview, it *model.Item) string {
	return path.Join(ItemDir(p, it), indexFile)
}

// ItemStyleFile is the scaffolded item stylesheet.
func ItemStyleFile(p *model.Preview, it *model.Item) string {
	return path.Join(ItemDir(p, it), "assets", "style.css")
}

// TokenFile is the redirect page at a token root.
func TokenFile(token string) string {
	return path.Join(hub.ShareRoot, token, indexFile)
}

// TokenItemFile is the redirect page for one item under a token.
func TokenItemFile(token string, it *model.Item) string {
	return path.Join(hub.ShareRoot, token, it.Slug, indexFile)
}
