package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	minBlockRunes    = 20
	minSelectorRunes = 100
	maxBodyRunes     = 50000
)

var (
	_ Strategy = bbcTextBlocks{}
	_ Strategy = readabilityText{}
	_ Strategy = contentSelectors{}
	_ Strategy = bodyText{}
)

// bbcTextBlocks joins the data-component="text-block" sections BBC renders
// article bodies with. It claims only bbc.com and bbc.co.uk pages.
type bbcTextBlocks struct{}

func (bbcTextBlocks) Name() string { return "bbc-text-blocks" }

func (bbcTextBlocks) Text(page Page) string {
	if page.URL == nil || !isBBCHost(page.URL.Host) {
		return ""
	}

	container := page.Doc.Find("article, main").First()
	if container.Length() == 0 {
		return ""
	}

	// Strip boilerplate on a clone so the shared document stays intact for
	// metadata extraction and later strategies.
	work := container.Clone()
	work.Find(`script, style, noscript, time, .visually-hidden, figcaption, ` +
		`[data-component="image-block"], [data-component="video-block"]`).Remove()

	var parts []string
	work.Find(`div[data-component="text-block"]`).Each(func(_ int, block *goquery.Selection) {
		if text := nodeText(block); len([]rune(text)) > minBlockRunes {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		work.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := nodeText(p); len([]rune(text)) > minBlockRunes {
				parts = append(parts, text)
			}
		})
	}

	return strings.Join(parts, " ")
}

func isBBCHost(host string) bool {
	host = strings.ToLower(host)
	return host == "bbc.com" || host == "bbc.co.uk" ||
		strings.HasSuffix(host, ".bbc.com") || strings.HasSuffix(host, ".bbc.co.uk")
}

// readabilityText runs the go-readability content extractor over the raw page.
type readabilityText struct{}

func (readabilityText) Name() string { return "readability" }

func (readabilityText) Text(page Page) string {
	article, err := readability.FromReader(bytes.NewReader(page.HTML), page.URL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// contentSelectors probes the containers most sites wrap article bodies in.
type contentSelectors struct{}

var articleSelectors = []string{
	"article", "main", "[role='main']", ".post-content", ".article-body", ".content",
}

func (contentSelectors) Name() string { return "content-selectors" }

func (contentSelectors) Text(page Page) string {
	for _, selector := range articleSelectors {
		node := page.Doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		work := node.Clone()
		work.Find("script, style, noscript").Remove()
		if text := nodeText(work); len([]rune(text)) > minSelectorRunes {
			return text
		}
	}
	return ""
}

// bodyText is the last resort: the whole page body, capped.
type bodyText struct{}

func (bodyText) Name() string { return "body-text" }

func (bodyText) Text(page Page) string {
	body := page.Doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	work := body.Clone()
	work.Find("script, style, noscript").Remove()

	runes := []rune(nodeText(work))
	if len(runes) > maxBodyRunes {
		runes = runes[:maxBodyRunes]
	}
	return string(runes)
}

func nodeText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
