package registry

import (
	"fmt"
	"strings"

	"previewhub/internal/hub"
	"previewhub/internal/model"
	"previewhub/internal/slug"
)

// Validate checks every registry invariant in a single pass and returns the
// first violation as a *hub.ValidationError. It never repairs anything.
func Validate(reg *model.Registry) error {
	previewIDs := make(map[string]struct{}, len(reg.Previews))
	clientSlugs := make(map[string]struct{}, len(reg.Previews))
	shareTokens := make(map[string]struct{})

	for i, p := range reg.Previews {
		if p == nil {
			return violation(hub.RuleMalformedDocument, fmt.Sprintf("previews[%d]", i), "preview entry is null")
		}

		if p.PreviewID == "" {
			return violation(hub.RuleRequiredField, subjectFor(p, i), `preview is missing "preview_id"`)
		}
		if p.ClientName == "" {
			return violation(hub.RuleRequiredField, p.PreviewID, `preview is missing "client_name"`)
		}
		if p.ClientSlug == "" {
			return violation(hub.RuleRequiredField, p.PreviewID, `preview is missing "client_slug"`)
		}

		if err := checkSegment(p.PreviewID, "client_slug", p.ClientSlug); err != nil {
			return err
		}

		if _, dup := previewIDs[p.PreviewID]; dup {
			return violation(hub.RuleDuplicatePreviewID, p.PreviewID, "duplicate preview_id")
		}
		previewIDs[p.PreviewID] = struct{}{}

		if _, dup := clientSlugs[p.ClientSlug]; dup {
			return violation(hub.RuleDuplicateClientSlug, p.ClientSlug, "duplicate client_slug")
		}
		clientSlugs[p.ClientSlug] = struct{}{}

		if !p.Status.Valid() {
			return violation(hub.RuleInvalidStatus, p.ClientSlug, invalidStatusMessage("status", p.Status))
		}

		if p.ShareToken != "" {
			if err := checkSegment(p.ClientSlug, "share_token", p.ShareToken); err != nil {
				return err
			}
			if _, dup := shareTokens[p.ShareToken]; dup {
				return violation(hub.RuleDuplicateShareToken, p.ClientSlug, fmt.Sprintf("duplicate share_token %q", p.ShareToken))
			}
			shareTokens[p.ShareToken] = struct{}{}
		}

		itemSlugs := make(map[string]struct{}, len(p.Items))
		for j, it := range p.Items {
			if it == nil {
				return violation(hub.RuleMalformedDocument, fmt.Sprintf("%s/items[%d]", p.ClientSlug, j), "item entry is null")
			}
			if it.Slug == "" {
				return violation(hub.RuleRequiredField, fmt.Sprintf("%s/items[%d]", p.ClientSlug, j), `item is missing "slug"`)
			}
			if err := checkSegment(p.ClientSlug+"/"+it.Slug, "item slug", it.Slug); err != nil {
				return err
			}
			if _, dup := itemSlugs[it.Slug]; dup {
				return violation(hub.RuleDuplicateItemSlug, p.ClientSlug+"/"+it.Slug, "duplicate item slug")
			}
			itemSlugs[it.Slug] = struct{}{}

			if status := it.EffectiveStatus(p.Status); !status.Valid() {
				return violation(hub.RuleInvalidStatus, p.ClientSlug+"/"+it.Slug, invalidStatusMessage("item status", status))
			}
		}

		if p.ShareHomeItemSlug != "" {
			if _, ok := itemSlugs[p.ShareHomeItemSlug]; !ok {
				return violation(hub.RuleUnknownShareHome, p.ClientSlug,
					fmt.Sprintf("share_home_item_slug %q does not match any item", p.ShareHomeItemSlug))
			}
		}
	}

	return nil
}

func violation(rule hub.Rule, subject, message string) error {
	return &hub.ValidationError{Rule: rule, Subject: subject, Message: message}
}

// checkSegment rejects values that would not survive slug.Slugify unchanged.
// They become path segments of generated pages.
func checkSegment(subject, field, value string) error {
	if slug.Slugify(value) != value {
		return violation(hub.RuleUnsafeSegment, subject,
			fmt.Sprintf("%s %q is not a lowercase a-z0-9 slug", field, value))
	}
	return nil
}

func subjectFor(p *model.Preview, index int) string {
	if p.ClientSlug != "" {
		return p.ClientSlug
	}
	return fmt.Sprintf("previews[%d]", index)
}

func invalidStatusMessage(field string, status model.Status) string {
	return fmt.Sprintf("invalid %s %q, expected one of: %s", field, status, strings.Join(model.StatusNames(), ", "))
}
