package domain

import "strings"

// SourceKind selects the fetch strategy for a source. It is resolved once
// when the registry loads, so downstream code never matches on names.
type SourceKind string

const (
	KindRSS           SourceKind = "rss"
	KindSectionScrape SourceKind = "section"
)

// Source is one registry row describing where articles come from.
type Source struct {
	ID       int64
	Name     string
	FeedURL  string
	BaseURL  string
	Category string
	Active   bool

	Kind       SourceKind
	SectionURL string
}

// sectionURLs maps the categories that support section scraping to their
// canonical listing pages.
var sectionURLs = map[string]string{
	"Business":   "https://www.bbc.com/news/business",
	"Technology": "https://www.bbc.com/news/technology",
	"Health":     "https://www.bbc.com/news/health",
	"Sport":      "https://www.bbc.com/sport",
	"News":       "https://www.bbc.com/news",
}

// ResolveKind tags the source with its fetch strategy. Sources named "BBC…"
// whose category has a known section page are scraped from that page; every
// other source is fetched over RSS.
func ResolveKind(src Source) Source {
	if strings.HasPrefix(src.Name, "BBC") {
		if url, ok := sectionURLs[src.Category]; ok {
			src.Kind = KindSectionScrape
			src.SectionURL = url
			return src
		}
	}
	src.Kind = KindRSS
	src.SectionURL = ""
	return src
}
