package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Candidate is a single feed entry or listing link produced by a fetch
// strategy. It lives only within one run and is never persisted.
type Candidate struct {
	Title       string
	ArticleURL  string
	ImageURL    string
	SourceName  string
	PublishedAt *time.Time
}

// Extraction is the result of running the strategy chain over an article page.
type Extraction struct {
	Text        string
	ImageURL    string
	PublishedAt *time.Time
	Strategy    string
}

// Article is the persisted record, upserted by ArticleURL.
type Article struct {
	ID          int64
	ArticleURL  string
	Title       string
	FullContent string
	Summary     string
	ImageURL    string
	SourceID    int64
	SourceName  string
	Category    string
	PublishedAt *time.Time
	ContentHash string
	CreatedAt   time.Time
}

// ArticleQuery narrows ListArticles results for dashboard-style reads.
type ArticleQuery struct {
	Limit    int
	Category string
	OrderBy  string
	Desc     bool
}

// RunReport aggregates the outcome of one pipeline run.
type RunReport struct {
	Fetched int
	Stored  int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// ContentHash returns the SHA-256 hex digest of the trimmed text, falling
// back to the article URL when no text was extracted.
func ContentHash(text, articleURL string) string {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		normalized = articleURL
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
