package hub

import (
	"strings"

	"previewhub/internal/model"
	"previewhub/internal/slug"
)

// generatedTokenLength is the length of tokens minted when none is supplied.
const generatedTokenLength = 8

// SetToken assigns a share token to a preview. An empty token asks for a
// generated one. Reassigning a preview's own token is allowed.
func (s *HubService) SetToken(client, rawToken string) (*model.Preview, error) {
	var token string
	if strings.TrimSpace(rawToken) == "" {
		token = s.generateToken()
	} else {
		token = slug.Slugify(rawToken)
	}
	if token == "" {
		return nil, usageErrorf("invalid share token %q", rawToken)
	}

	var updated *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, client)
		if err != nil {
			return err
		}
		if owner := reg.FindByShareToken(token); owner != nil && owner != p {
			return collisionf("token already used by %s: %s", owner.ClientSlug, token)
		}
		p.ShareToken = token
		p.UpdatedAt = s.today()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share token set", "client", updated.ClientSlug, "token", token)
	return updated, nil
}

// ClearToken removes a preview's share token. The next rebuild drops its
// redirect subtree.
func (s *HubService) ClearToken(client string) (*model.Preview, error) {
	var updated *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, client)
		if err != nil {
			return err
		}
		p.ShareToken = ""
		p.UpdatedAt = s.today()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share token cleared", "client", updated.ClientSlug)
	return updated, nil
}

// SetShareHome picks the item a bare share link lands on.
// An empty item slug clears the choice so the link lands on the client page.
func (s *HubService) SetShareHome(client, rawItem string) (*model.Preview, error) {
	itemSlug := slug.Slugify(rawItem)
	if strings.TrimSpace(rawItem) != "" && itemSlug == "" {
		return nil, usageErrorf("invalid item slug %q", rawItem)
	}

	var updated *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, client)
		if err != nil {
			return err
		}
		if itemSlug != "" && p.FindItem(itemSlug) == nil {
			return notFoundf("item not found for %s: %s", p.ClientSlug, itemSlug)
		}
		p.ShareHomeItemSlug = itemSlug
		p.UpdatedAt = s.today()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share home set", "client", updated.ClientSlug, "item", itemSlug)
	return updated, nil
}

// generateToken derives a short lowercase token from a fresh unique ID.
func (s *HubService) generateToken() string {
	token := slug.Slugify(strings.ReplaceAll(s.idgen.New(), "-", ""))
	if len(token) > generatedTokenLength {
		token = token[:generatedTokenLength]
	}
	return token
}
