package hub

import (
	"strings"

	"previewhub/internal/model"
	"previewhub/internal/slug"
)

// Defaults applied when a new client preview is created.
const (
	DefaultFirstPage    = "home-v1"
	DefaultCreatedNotes = "Initial preview scaffold created."
)

// CreateClientRequest is the raw input of create-client.
type CreateClientRequest struct {
	Name   string
	Slug   string // derived from Name when empty
	Status string // defaults to Draft
	Token  string // optional share token
	Page   string // slug of the seed item, defaults to home-v1
	Title  string // seed item title, derived from Page when empty
	Notes  string
}

// AddClientRequest is the raw input of add-client: a preview without items.
type AddClientRequest struct {
	Name   string
	Slug   string
	Status string
	Token  string
}

// CreateClient registers a new preview with one seed item and rebuilds the site.
func (s *HubService) CreateClient(req CreateClientRequest) (*model.Preview, error) {
	page := slug.Slugify(orDefault(req.Page, DefaultFirstPage))
	if page == "" {
		return nil, usageErrorf("invalid page slug %q", req.Page)
	}

	var created *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := s.newPreview(reg, req.Name, req.Slug, req.Status, req.Token)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = slug.TitleFromSlug(page)
		}
		p.Items = []*model.Item{{
			Slug:      page,
			Title:     title,
			Status:    p.Status,
			UpdatedAt: p.UpdatedAt,
			Notes:     orDefault(strings.TrimSpace(req.Notes), DefaultCreatedNotes),
		}}
		reg.Previews = append(reg.Previews, p)
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client created", "client", created.ClientSlug, "preview_id", created.PreviewID, "page", page)
	return created, nil
}

// AddClient registers a new preview with no items and rebuilds the site.
func (s *HubService) AddClient(req AddClientRequest) (*model.Preview, error) {
	var created *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := s.newPreview(reg, req.Name, req.Slug, req.Status, req.Token)
		if err != nil {
			return err
		}
		reg.Previews = append(reg.Previews, p)
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client added", "client", created.ClientSlug, "preview_id", created.PreviewID)
	return created, nil
}

// newPreview validates raw client input against reg and builds an unsaved preview.
func (s *HubService) newPreview(reg *model.Registry, rawName, rawSlug, rawStatus, rawToken string) (*model.Preview, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, usageErrorf("client name is required")
	}

	clientSlug := slug.Slugify(orDefault(rawSlug, name))
	if clientSlug == "" {
		return nil, usageErrorf("could not derive a valid client slug from %q", orDefault(rawSlug, name))
	}
	if reg.FindByClientSlug(clientSlug) != nil {
		return nil, collisionf("client slug already exists: %s", clientSlug)
	}

	status, err := parseStatus(rawStatus, model.StatusDraft)
	if err != nil {
		return nil, err
	}

	p := &model.Preview{
		PreviewID:  slug.BuildPreviewID(clientSlug, reg.PreviewIDs(), s.clock.Now()),
		ClientName: name,
		ClientSlug: clientSlug,
		Status:     status,
		UpdatedAt:  s.today(),
		Items:      []*model.Item{},
	}

	if rawToken != "" {
		token := slug.Slugify(rawToken)
		if token == "" {
			return nil, usageErrorf("invalid share token %q", rawToken)
		}
		if owner := reg.FindByShareToken(token); owner != nil {
			return nil, collisionf("token already used by %s: %s", owner.ClientSlug, token)
		}
		p.ShareToken = token
	}

	return p, nil
}

// SetStatus changes a preview's status. Item statuses are left untouched.
func (s *HubService) SetStatus(client, rawStatus string) (*model.Preview, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return nil, usageErrorf("status is required")
	}
	status, err := parseStatus(rawStatus, "")
	if err != nil {
		return nil, err
	}

	var updated *model.Preview
	err = s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, client)
		if err != nil {
			return err
		}
		p.Status = status
		p.UpdatedAt = s.today()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("status updated", "client", updated.ClientSlug, "status", string(status))
	return updated, nil
}

// ArchiveClient soft-retires a preview by setting its status to Archived.
func (s *HubService) ArchiveClient(client string) (*model.Preview, error) {
	var updated *model.Preview
	err := s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, client)
		if err != nil {
			return err
		}
		p.Status = model.StatusArchived
		p.UpdatedAt = s.today()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client archived", "client", updated.ClientSlug)
	return updated, nil
}

// RemoveClient deletes a preview from the registry and rebuilds.
// Its item pages stay on disk; only the listings and redirects drop it.
func (s *HubService) RemoveClient(client string) (string, error) {
	clientSlug := slug.Slugify(client)
	if clientSlug == "" {
		return "", usageErrorf("missing client slug")
	}

	err := s.mutate(func(reg *model.Registry) error {
		if !reg.Remove(clientSlug) {
			return notFoundf("client not found: %s", clientSlug)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("client removed", "client", clientSlug)
	return clientSlug, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
