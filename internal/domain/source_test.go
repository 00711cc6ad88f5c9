package domain

import (
	"strings"
	"testing"
)

func TestResolveKindSectionScrape(t *testing.T) {
	t.Parallel()

	for _, category := range []string{"Business", "Technology", "Health", "Sport", "News"} {
		src := ResolveKind(Source{Name: "BBC " + category, Category: category})
		if src.Kind != KindSectionScrape {
			t.Fatalf("category %s: expected section scrape, got %s", category, src.Kind)
		}
		if src.SectionURL == "" {
			t.Fatalf("category %s: section URL not resolved", category)
		}
		if !strings.HasPrefix(src.SectionURL, "https://www.bbc.com/") {
			t.Fatalf("category %s: unexpected section URL %s", category, src.SectionURL)
		}
	}
}

func TestResolveKindRSS(t *testing.T) {
	t.Parallel()

	cases := []Source{
		{Name: "Reuters World", Category: "News", FeedURL: "https://example.org/rss"},
		{Name: "BBC Culture", Category: "Culture"},
		{Name: "TechCrunch", Category: "Technology"},
		{Name: "The Verge", Category: ""},
	}

	for _, src := range cases {
		resolved := ResolveKind(src)
		if resolved.Kind != KindRSS {
			t.Fatalf("source %s: expected rss, got %s", src.Name, resolved.Kind)
		}
		if resolved.SectionURL != "" {
			t.Fatalf("source %s: rss source must not carry a section URL", src.Name)
		}
	}
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	withText := ContentHash("  Some article body.  ", "https://example.org/a")
	trimmed := ContentHash("Some article body.", "https://example.org/b")
	if withText != trimmed {
		t.Fatalf("hash must ignore surrounding whitespace")
	}

	fromURL := ContentHash("", "https://example.org/a")
	if fromURL == withText {
		t.Fatalf("URL fallback hash must differ from content hash")
	}
	if len(fromURL) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(fromURL))
	}
}
