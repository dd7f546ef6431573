package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"previewhub/internal/model"
)

func sampleRegistry() *model.Registry {
	return &model.Registry{
		Version: 1,
		Previews: []*model.Preview{
			{
				PreviewID:  "pvw_atlas_202602010800",
				ClientName: "Atlas",
				ClientSlug: "atlas",
				Status:     model.StatusApproved,
				UpdatedAt:  "2026-02-01",
				Items:      []*model.Item{},
			},
			{
				PreviewID:         "pvw_sunbeam-co_202603040941",
				ClientName:        "Sunbeam <Co> & Sons",
				ClientSlug:        "sunbeam-co",
				Status:            model.StatusDraft,
				UpdatedAt:         "2026-03-04",
				ShareToken:        "sb26",
				ShareHomeItemSlug: "home-v1",
				Items: []*model.Item{
					{Slug: "home-v1", Title: "Home v1", Status: model.StatusDraft, UpdatedAt: "2026-03-04", Notes: "First pass; hero swap"},
					{Slug: "pricing-v1", Title: "Pricing v1", UpdatedAt: "2026-03-02"},
				},
			},
			{
				PreviewID:  "pvw_bolt_202602010900",
				ClientName: "Bolt",
				ClientSlug: "bolt",
				Status:     model.StatusReadyForReview,
				UpdatedAt:  "2026-02-01",
				Items:      []*model.Item{},
			},
		},
	}
}

func TestJSONStore_LoadMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "preview-registry.json"))

	reg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reg.Version != 1 {
		t.Errorf("Version = %d, want 1", reg.Version)
	}
	if len(reg.Previews) != 0 {
		t.Errorf("len(Previews) = %d, want 0", len(reg.Previews))
	}
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "nested", "preview-registry.json"))
	original := sampleRegistry()

	if err := store.Save(original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := model.SortPreviews(original.Previews)
	if !reflect.DeepEqual(got.Previews, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got.Previews, want)
	}
	if got.Version != original.Version {
		t.Errorf("Version = %d, want %d", got.Version, original.Version)
	}
}

func TestEncode_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleRegistry()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := buf.String()

	if !strings.HasSuffix(out, "}\n") {
		t.Error("encoded registry must end with a trailing newline")
	}
	if !strings.HasPrefix(out, "{\n  \"registry_version\": 1,\n  \"previews\": [\n") {
		t.Errorf("unexpected header:\n%s", out[:min(len(out), 80)])
	}
	if !strings.Contains(out, `"client_name": "Sunbeam <Co> & Sons"`) {
		t.Error("HTML characters should not be escaped")
	}
	if strings.Contains(out, `"share_token": ""`) {
		t.Error("empty optional fields should be omitted")
	}

	// newest first; atlas and bolt share a date and keep their input order
	sunbeam := strings.Index(out, `"client_slug": "sunbeam-co"`)
	atlas := strings.Index(out, `"client_slug": "atlas"`)
	bolt := strings.Index(out, `"client_slug": "bolt"`)
	if !(sunbeam < atlas && atlas < bolt) {
		t.Errorf("preview order = sunbeam@%d atlas@%d bolt@%d, want sunbeam < atlas < bolt", sunbeam, atlas, bolt)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Encode(&a, sampleRegistry()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := Encode(&b, sampleRegistry()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if a.String() != b.String() {
		t.Error("Encode() output differs between identical registries")
	}
}

func TestEncode_DoesNotModifyInput(t *testing.T) {
	reg := sampleRegistry()
	reg.Previews[0].Items = nil
	firstBefore := reg.Previews[0]

	var buf bytes.Buffer
	if err := Encode(&buf, reg); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if reg.Previews[0] != firstBefore || reg.Previews[0].Items != nil {
		t.Error("Encode() mutated the input registry")
	}
	if !strings.Contains(buf.String(), `"items": []`) {
		t.Error("nil items should encode as an empty array")
	}
}

func TestJSONStore_LoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview-registry.json")
	bad := doc(validPreview, strings.Replace(otherPreview, `"client_slug": "atlas"`, `"client_slug": "sunbeam-co"`, 1))
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
}

func TestMemoryStore(t *testing.T) {
	t.Run("empty until saved", func(t *testing.T) {
		m := NewMemoryStore()
		reg, err := m.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(reg.Previews) != 0 {
			t.Errorf("len(Previews) = %d, want 0", len(reg.Previews))
		}
	})

	t.Run("loads are independent copies", func(t *testing.T) {
		m := NewMemoryStore()
		if err := m.Save(sampleRegistry()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		first, _ := m.Load()
		first.Previews[0].ClientName = "changed"

		second, _ := m.Load()
		if second.Previews[0].ClientName == "changed" {
			t.Error("mutating a loaded registry leaked into the store")
		}
		if m.Saves() != 1 {
			t.Errorf("Saves() = %d, want 1", m.Saves())
		}
	})
}
