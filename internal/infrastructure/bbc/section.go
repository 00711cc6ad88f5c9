package bbc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/fetch"
	"NewsDigest/internal/infrastructure/httpclient"
)

const (
	listingBase = "https://www.bbc.com"

	maxLinksInspected = 150
	maxCandidates     = 100
	minTitleRunes     = 10
	maxTitleRunes     = 200
)

var (
	titleClassExpr = regexp.MustCompile(`title|headline`)
	trailingIDExpr = regexp.MustCompile(`\d{5,}$`)
	anyIDExpr      = regexp.MustCompile(`\d{5,}`)

	// Section and navigation pages that must not be treated as articles.
	sectionKeywordExpr = regexp.MustCompile(`(world|business|technology|science|health|` +
		`entertainment|arts|video|audio|correspondents|editors|have_your_say|england|` +
		`scotland|wales|northern_ireland|politics|education|magazine|uk|us_canada|africa|` +
		`asia|australia|europe|latin_america|middle_east|pictures|indepth|verify|ouch|` +
		`worklife|culture|future|reel|for_you|more|updated|uk-politics|world-politics)$`)

	skipSegments = []string{"/live/", "/av/", "/weather/", "/travel/", "/help/"}
)

// SectionFetcher scrapes a BBC section listing page for article candidates.
type SectionFetcher struct {
	client *httpclient.Client
	logger *slog.Logger
}

var _ fetch.Fetcher = (*SectionFetcher)(nil)

// NewSectionFetcher wires the shared HTTP client.
func NewSectionFetcher(client *httpclient.Client, logger *slog.Logger) *SectionFetcher {
	return &SectionFetcher{client: client, logger: logger}
}

// Fetch downloads the resolved section page and extracts article links with
// their listing titles and thumbnails. Published dates come later from the
// article pages themselves.
func (f *SectionFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	if src.SectionURL == "" {
		return nil, domain.WrapErr(domain.ErrSourceFetch, fmt.Errorf("source %s has no section url", src.Name))
	}

	body, err := f.client.Get(ctx, src.SectionURL)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrSourceFetch, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapErr(domain.ErrSourceFetch, fmt.Errorf("parse section %s: %w", src.SectionURL, err))
	}

	base, err := url.Parse(listingBase)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrSourceFetch, err)
	}

	var candidates []domain.Candidate
	seen := map[string]struct{}{}
	inspected := 0

	doc.Find(`a[href*="/news/"], a[href*="/sport/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return true
		}

		absolute := resolveHref(base, href)
		if absolute == "" || !isArticleURL(absolute) {
			return true
		}
		if _, dup := seen[absolute]; dup {
			return true
		}
		seen[absolute] = struct{}{}

		inspected++
		if inspected > maxLinksInspected {
			return false
		}

		title := listingTitle(link)
		if len([]rune(title)) < minTitleRunes {
			return true
		}

		candidates = append(candidates, domain.Candidate{
			Title:      title,
			ArticleURL: absolute,
			ImageURL:   listingImage(link, base),
			SourceName: src.Name,
		})
		return len(candidates) < maxCandidates
	})

	f.debug("section scraped", "source", src.Name, "url", src.SectionURL, "candidates", len(candidates))
	return candidates, nil
}

// isArticleURL separates article pages from section, navigation, live, and
// media pages.
func isArticleURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)

	if !strings.Contains(path, "/news/") && !strings.Contains(path, "/sport/") {
		return false
	}
	for _, segment := range skipSegments {
		if strings.Contains(path, segment) {
			return false
		}
	}

	if strings.Contains(path, "/articles/") {
		return true
	}

	lastSegment := path
	if parts := strings.Split(strings.TrimRight(path, "/"), "/"); len(parts) > 0 {
		lastSegment = parts[len(parts)-1]
	}
	if trailingIDExpr.MatchString(lastSegment) {
		return true
	}

	if sectionKeywordExpr.MatchString(path) {
		return false
	}

	if strings.Contains(path, "/sport/") {
		return anyIDExpr.MatchString(path)
	}

	return false
}

func listingTitle(link *goquery.Selection) string {
	var title string
	link.Find("h2, h3, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if titleClassExpr.MatchString(class) {
			title = strings.TrimSpace(s.Text())
			return false
		}
		return true
	})
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}

	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title
}

func listingImage(link *goquery.Selection, base *url.URL) string {
	img := link.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	src, ok := img.Attr("src")
	if !ok || src == "" {
		src, _ = img.Attr("data-src")
	}
	return resolveAsset(base, src)
}

// resolveHref resolves an anchor href against the listing base the way a
// browser would.
func resolveHref(base *url.URL, href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// resolveAsset completes protocol-relative and root-relative asset URLs and
// leaves everything else untouched.
func resolveAsset(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "//"):
		return base.Scheme + ":" + ref
	case strings.HasPrefix(ref, "/"):
		return base.Scheme + "://" + base.Host + ref
	default:
		return ref
	}
}

func (f *SectionFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
