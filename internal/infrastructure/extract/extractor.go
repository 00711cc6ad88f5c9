package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/httpclient"
	"NewsDigest/internal/ports"
)

// minTextRunes is the floor below which a strategy result counts as empty
// and the next strategy in the chain runs.
const minTextRunes = 50

// Page bundles one fetched article page shared by every strategy.
type Page struct {
	URL  *url.URL
	HTML []byte
	Doc  *goquery.Document
}

// Strategy produces article text from a fetched page. Empty output means the
// strategy found nothing there and the chain moves on.
type Strategy interface {
	Name() string
	Text(page Page) string
}

// Extractor fetches an article page once and tries its strategies in order.
type Extractor struct {
	client     *httpclient.Client
	strategies []Strategy
	logger     *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// New builds an extractor with the default chain: BBC text blocks,
// readability, known content selectors, whole-body text.
func New(client *httpclient.Client, logger *slog.Logger) *Extractor {
	return &Extractor{
		client: client,
		strategies: []Strategy{
			bbcTextBlocks{},
			readabilityText{},
			contentSelectors{},
			bodyText{},
		},
		logger: logger,
	}
}

// Extract returns the first sufficiently long text the chain produces for the
// page, together with its lead image and published date when present.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (domain.Extraction, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil {
		return domain.Extraction{}, domain.WrapErr(domain.ErrExtraction, fmt.Errorf("invalid article url %q: %w", articleURL, err))
	}

	html, err := e.client.Get(ctx, articleURL)
	if err != nil {
		return domain.Extraction{}, domain.WrapErr(domain.ErrExtraction, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.Extraction{}, domain.WrapErr(domain.ErrExtraction, fmt.Errorf("parse page %s: %w", articleURL, err))
	}

	page := Page{URL: parsed, HTML: html, Doc: doc}

	var text, strategy string
	for _, s := range e.strategies {
		result := strings.TrimSpace(s.Text(page))
		if len([]rune(result)) < minTextRunes {
			if result != "" {
				e.debug("extraction result too short", "strategy", s.Name(), "url", articleURL, "runes", len([]rune(result)))
			}
			continue
		}
		text, strategy = result, s.Name()
		break
	}

	if text == "" {
		return domain.Extraction{}, domain.WrapErr(domain.ErrExtraction, fmt.Errorf("no content found at %s", articleURL))
	}

	e.debug("content extracted", "url", articleURL, "strategy", strategy, "runes", len([]rune(text)))

	return domain.Extraction{
		Text:        text,
		ImageURL:    pageImage(doc, parsed),
		PublishedAt: pageDate(doc),
		Strategy:    strategy,
	}, nil
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug(msg, args...)
}

// pageImage picks the article's lead image: the og:image meta tag, then a
// BBC ichef asset, then the first image inside the article container.
func pageImage(doc *goquery.Document, pageURL *url.URL) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		if resolved := resolveAsset(pageURL, content); resolved != "" {
			return resolved
		}
	}

	if img := doc.Find(`img[data-src*="ichef"]`).First(); img.Length() > 0 {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if resolved := resolveAsset(pageURL, src); resolved != "" {
			return resolved
		}
	}

	if img := doc.Find("article img, main img").First(); img.Length() > 0 {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		return resolveAsset(pageURL, src)
	}

	return ""
}

// pageDate reads the published timestamp from the page's time element or the
// article:published_time meta tag.
func pageDate(doc *goquery.Document) *time.Time {
	el := doc.Find(`time[data-testid="timestamp"]`).First()
	if el.Length() == 0 {
		el = doc.Find("time").First()
	}
	if el.Length() > 0 {
		attr, ok := el.Attr("datetime")
		if !ok || attr == "" {
			attr, _ = el.Attr("data-datetime")
		}
		if ts := parseTimestamp(attr); ts != nil {
			return ts
		}
	}

	if content, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		return parseTimestamp(content)
	}

	return nil
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	utc := ts.UTC()
	return &utc
}

// resolveAsset makes a protocol-relative or path-relative asset URL absolute
// against the page it was found on.
func resolveAsset(pageURL *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(raw, "//"):
		return pageURL.Scheme + ":" + raw
	case strings.HasPrefix(raw, "/"):
		return pageURL.Scheme + "://" + pageURL.Host + raw
	default:
		return raw
	}
}
