package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// Extractor pulls full text, image URL, and published date from an article
// page, trying its strategies in order.
type Extractor interface {
	Extract(ctx context.Context, articleURL string) (domain.Extraction, error)
}

// Summarizer turns extracted text into a short factual summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// ArticleRepository persists articles and answers registry and dashboard reads.
type ArticleRepository interface {
	UpsertArticle(ctx context.Context, article domain.Article) error
	ExistsByURL(ctx context.Context, articleURL string) (bool, error)
	ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error)
	UpsertSource(ctx context.Context, src domain.Source) error
	ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error)
	Categories(ctx context.Context) ([]string, error)
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
