package hub_test

import (
	"bytes"
	"strings"
	"testing"

	"previewhub/internal/encryption"
	"previewhub/internal/hub"
)

func TestBackupRestore_RoundTrip(t *testing.T) {
	h := newHarness(t)
	h.createSunbeam(t)
	if _, _, err := h.svc.AddItem(hub.AddItemRequest{Client: "sunbeam-co", Slug: "pricing-v1"}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	saved := string(h.store.Bytes())

	enc := encryption.NewTestEncryptor()
	var backup bytes.Buffer
	if err := h.svc.BackupRegistry(enc, &backup); err != nil {
		t.Fatalf("BackupRegistry() error = %v", err)
	}
	if strings.HasPrefix(backup.String(), "{") {
		t.Error("backup should not be the plaintext registry")
	}

	// restore into an empty service
	other := newHarness(t)
	dc, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	reg, err := other.svc.RestoreRegistry(dc, &backup)
	if err != nil {
		t.Fatalf("RestoreRegistry() error = %v", err)
	}

	if len(reg.Previews) != 1 || len(reg.Previews[0].Items) != 2 {
		t.Fatalf("restored registry = %+v, want 1 preview with 2 items", reg)
	}
	if got := string(other.store.Bytes()); got != saved {
		t.Errorf("restored document differs:\n got %s\nwant %s", got, saved)
	}
	if other.builder.calls != 1 {
		t.Errorf("rebuilds after restore = %d, want 1", other.builder.calls)
	}
	if !other.fsys.Exists("clients/sunbeam-co/pricing-v1/index.html") {
		t.Error("restore should rebuild the site")
	}
}

func TestRestoreRegistry_InvalidBackupLeavesRegistryUntouched(t *testing.T) {
	enc := encryption.NewTestEncryptor()
	encrypt := func(t *testing.T, doc string) *bytes.Buffer {
		t.Helper()
		var buf bytes.Buffer
		if err := enc.Encrypt(strings.NewReader(doc), &buf); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		return &buf
	}

	tests := []struct {
		name   string
		backup func(t *testing.T) *bytes.Buffer
	}{
		{"not encrypted", func(t *testing.T) *bytes.Buffer {
			return bytes.NewBufferString(`{"registry_version": 1, "previews": []}`)
		}},
		{"not json", func(t *testing.T) *bytes.Buffer { return encrypt(t, "definitely not json") }},
		{"missing required field", func(t *testing.T) *bytes.Buffer {
			return encrypt(t, `{"registry_version": 1, "previews": [{"preview_id": "pvw_x_1", "client_slug": "x", "status": "Draft", "updated_at": "2026-03-04", "items": []}]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.createSunbeam(t)
			before := string(h.store.Bytes())
			saves := h.store.Saves()
			calls := h.builder.calls

			dc, _ := enc.Unlock("")
			if _, err := h.svc.RestoreRegistry(dc, tt.backup(t)); err == nil {
				t.Fatal("RestoreRegistry() expected error, got nil")
			}
			if got := string(h.store.Bytes()); got != before {
				t.Error("invalid backup modified the registry")
			}
			if h.store.Saves() != saves || h.builder.calls != calls {
				t.Error("invalid backup should neither save nor rebuild")
			}
		})
	}
}

func TestBackupRegistry_EmptyRegistry(t *testing.T) {
	h := newHarness(t)

	var backup bytes.Buffer
	if err := h.svc.BackupRegistry(encryption.NewTestEncryptor(), &backup); err != nil {
		t.Fatalf("BackupRegistry() error = %v", err)
	}
	if !strings.Contains(backup.String(), `"previews": []`) {
		t.Errorf("backup of an empty registry = %q", backup.String())
	}
}
