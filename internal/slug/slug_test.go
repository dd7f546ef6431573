package slug

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "company name with punctuation", input: "Sunbeam Co.", want: "sunbeam-co"},
		{name: "already a slug", input: "home-v1", want: "home-v1"},
		{name: "surrounding whitespace", input: "   Atlas Labs  ", want: "atlas-labs"},
		{name: "runs of separators", input: "a -- b__c", want: "a-b-c"},
		{name: "leading and trailing punctuation", input: "--Checkout!!", want: "checkout"},
		{name: "non-ascii letters dropped", input: "Café Noël", want: "caf-no-l"},
		{name: "digits kept", input: "Q3 2026 Launch", want: "q3-2026-launch"},
		{name: "empty", input: "", want: ""},
		{name: "all punctuation", input: "?!.,;", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugifyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("idempotent", prop.ForAll(
		func(s string) bool {
			once := Slugify(s)
			return Slugify(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("deterministic", prop.ForAll(
		func(s string) bool {
			return Slugify(s) == Slugify(s)
		},
		gen.AnyString(),
	))

	properties.Property("output uses only [a-z0-9-] without edge or double hyphens", prop.ForAll(
		func(s string) bool {
			out := Slugify(s)
			if out == "" {
				return true
			}
			if out[0] == '-' || out[len(out)-1] == '-' {
				return false
			}
			prev := byte(0)
			for i := 0; i < len(out); i++ {
				c := out[i]
				ok := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
				if !ok || (c == '-' && prev == '-') {
					return false
				}
				prev = c
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestTitleFromSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "home-v1", want: "Home v1"},
		{input: "checkout-flow-v12", want: "Checkout Flow v12"},
		{input: "landing", want: "Landing"},
		{input: "v2", want: "v2"},
		{input: "pricing-page", want: "Pricing Page"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TitleFromSlug(tt.input); got != tt.want {
				t.Errorf("TitleFromSlug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildPreviewID(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 41, 37, 0, time.UTC)

	t.Run("uses base when free", func(t *testing.T) {
		got := BuildPreviewID("sunbeam-co", map[string]struct{}{}, now)
		if want := "pvw_sunbeam-co_202603040941"; got != want {
			t.Errorf("BuildPreviewID() = %q, want %q", got, want)
		}
	})

	t.Run("truncates to minute in UTC", func(t *testing.T) {
		local := now.In(time.FixedZone("UTC+2", 2*60*60))
		got := BuildPreviewID("sunbeam-co", nil, local)
		if want := "pvw_sunbeam-co_202603040941"; got != want {
			t.Errorf("BuildPreviewID() = %q, want %q", got, want)
		}
	})

	t.Run("appends counter on collision", func(t *testing.T) {
		existing := map[string]struct{}{
			"pvw_sunbeam-co_202603040941":   {},
			"pvw_sunbeam-co_202603040941_2": {},
		}
		got := BuildPreviewID("sunbeam-co", existing, now)
		if want := "pvw_sunbeam-co_202603040941_3"; got != want {
			t.Errorf("BuildPreviewID() = %q, want %q", got, want)
		}
	})

	t.Run("never reuses an identifier across repeated insertions", func(t *testing.T) {
		existing := map[string]struct{}{}
		for i := 0; i < 50; i++ {
			id := BuildPreviewID("atlas", existing, now)
			if _, dup := existing[id]; dup {
				t.Fatalf("insertion %d: BuildPreviewID() returned existing id %q", i, id)
			}
			existing[id] = struct{}{}
		}
		if len(existing) != 50 {
			t.Errorf("len(existing) = %d, want 50", len(existing))
		}
	})
}

func TestBuildPreviewIDProperties(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 41, 0, 0, time.UTC)
	properties := gopter.NewProperties(nil)

	properties.Property("result is never already present", prop.ForAll(
		func(suffixes []int) bool {
			base := "pvw_client_202603040941"
			existing := map[string]struct{}{base: {}}
			for _, n := range suffixes {
				existing[fmt.Sprintf("%s_%d", base, n)] = struct{}{}
			}
			_, taken := existing[BuildPreviewID("client", existing, now)]
			return !taken
		},
		gen.SliceOf(gen.IntRange(2, 40)),
	))

	properties.TestingRun(t)
}
