// Package registry persists the preview registry as a single JSON document.
package registry

import (
	"encoding/json"
	"fmt"
	"io"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

// document is the on-disk shape. Previews is a pointer so a missing array
// can be told apart from an empty one.
type document struct {
	Version  int               `json:"registry_version"`
	Previews *[]*model.Preview `json:"previews"`
}

// Decode parses a registry document and validates it.
func Decode(r io.Reader) (*model.Registry, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &hub.ValidationError{
			Rule:    hub.RuleMalformedDocument,
			Message: fmt.Sprintf("cannot parse registry JSON: %v", err),
		}
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		return nil, &hub.ValidationError{
			Rule:    hub.RuleMalformedDocument,
			Message: "registry JSON has data after the document",
		}
	}
	if doc.Previews == nil {
		return nil, &hub.ValidationError{
			Rule:    hub.RuleMalformedDocument,
			Message: `registry must contain a "previews" array`,
		}
	}

	reg := &model.Registry{Version: doc.Version, Previews: *doc.Previews}
	if reg.Version == 0 {
		reg.Version = model.CurrentRegistryVersion
	}

	if err := Validate(reg); err != nil {
		return nil, err
	}

	for _, p := range reg.Previews {
		if p.Items == nil {
			p.Items = []*model.Item{}
		}
	}
	return reg, nil
}

// Encode writes reg with previews sorted newest first, two-space indentation,
// no HTML escaping and a trailing newline. reg itself is not modified.
func Encode(w io.Writer, reg *model.Registry) error {
	version := reg.Version
	if version == 0 {
		version = model.CurrentRegistryVersion
	}

	previews := model.SortPreviews(reg.Previews)
	for i, p := range previews {
		if p.Items == nil {
			cp := *p
			cp.Items = []*model.Item{}
			previews[i] = &cp
		}
	}

	out := model.Registry{Version: version, Previews: previews}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	return nil
}
