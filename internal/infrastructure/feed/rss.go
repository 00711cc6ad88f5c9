package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/fetch"
	"NewsDigest/internal/infrastructure/httpclient"
)

// RSSFetcher turns feed entries into article candidates.
type RSSFetcher struct {
	client *httpclient.Client
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ fetch.Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher wires the shared HTTP client into a gofeed-backed strategy.
func NewRSSFetcher(client *httpclient.Client, logger *slog.Logger) *RSSFetcher {
	return &RSSFetcher{client: client, parser: gofeed.NewParser(), logger: logger}
}

// Fetch downloads and parses the source feed. Entries without links are
// dropped; a missing title becomes "(No title)".
func (f *RSSFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	if src.FeedURL == "" {
		return nil, domain.WrapErr(domain.ErrSourceFetch, fmt.Errorf("source %s has no feed url", src.Name))
	}

	body, err := f.client.Get(ctx, src.FeedURL)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrSourceFetch, err)
	}

	parsed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapErr(domain.ErrSourceFetch, fmt.Errorf("parse feed %s: %w", src.FeedURL, err))
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := itemLink(item)
		if link == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "(No title)"
		}

		candidates = append(candidates, domain.Candidate{
			Title:       title,
			ArticleURL:  link,
			ImageURL:    itemImage(item),
			SourceName:  src.Name,
			PublishedAt: itemDate(item),
		})
	}

	f.debug("feed fetched", "source", src.Name, "entries", len(candidates))
	return candidates, nil
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, link := range item.Links {
		if trimmed := strings.TrimSpace(link); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func itemDate(item *gofeed.Item) *time.Time {
	for _, parsed := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if parsed != nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func (f *RSSFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
