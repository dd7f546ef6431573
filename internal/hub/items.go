package hub

import (
	"strings"

	"previewhub/internal/model"
	"previewhub/internal/slug"
)

// DefaultItemNotes is logged on an item added without notes.
const DefaultItemNotes = "New variant added."

// AddItemRequest is the raw input of add-item.
type AddItemRequest struct {
	Client string
	Slug   string
	Title  string // derived from Slug when empty
	Status string // defaults to the preview's status
	Notes  string
}

// AddItem appends a page variant to a preview and rebuilds, which scaffolds the item page.
func (s *HubService) AddItem(req AddItemRequest) (*model.Preview, *model.Item, error) {
	itemSlug := slug.Slugify(req.Slug)
	if itemSlug == "" {
		return nil, nil, usageErrorf("item slug is required")
	}

	var (
		preview *model.Preview
		item    *model.Item
	)
	err := s.mutate(func(reg *model.Registry) error {
		p, err := findClient(reg, req.Client)
		if err != nil {
			return err
		}
		if p.FindItem(itemSlug) != nil {
			return collisionf("item already exists for %s: %s", p.ClientSlug, itemSlug)
		}

		status, err := parseStatus(req.Status, p.Status)
		if err != nil {
			return err
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = slug.TitleFromSlug(itemSlug)
		}

		today := s.today()
		item = &model.Item{
			Slug:      itemSlug,
			Title:     title,
			Status:    status,
			UpdatedAt: today,
			Notes:     orDefault(strings.TrimSpace(req.Notes), DefaultItemNotes),
		}
		p.Items = append(p.Items, item)
		p.UpdatedAt = today
		preview = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("item added", "client", preview.ClientSlug, "item", item.Slug)
	return preview, item, nil
}
