package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// psql builds queries with Postgres-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const defaultArticleLimit = 50

// PostgresRepository persists sources and articles in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id        BIGSERIAL PRIMARY KEY,
    name      TEXT NOT NULL,
    feed_url  TEXT NOT NULL UNIQUE,
    base_url  TEXT NOT NULL DEFAULT '',
    category  TEXT NOT NULL DEFAULT 'General',
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    article_url  TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '',
    full_content TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    image_url    TEXT NOT NULL DEFAULT '',
    source_id    BIGINT,
    source_name  TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ,
    content_hash TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source_name ON articles (source_name);
`

// EnsureSchema creates the sources and articles tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return domain.WrapErr(domain.ErrPersistence, fmt.Errorf("ensure schema: %w", err))
	}
	return nil
}

const upsertArticleQuery = `INSERT INTO articles
              (article_url, title, full_content, summary, image_url, source_id, source_name, category, published_at, content_hash)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              ON CONFLICT (article_url) DO UPDATE
              SET title = EXCLUDED.title,
                  full_content = EXCLUDED.full_content,
                  summary = EXCLUDED.summary,
                  image_url = EXCLUDED.image_url,
                  source_id = EXCLUDED.source_id,
                  source_name = EXCLUDED.source_name,
                  category = EXCLUDED.category,
                  published_at = EXCLUDED.published_at,
                  content_hash = EXCLUDED.content_hash`

// UpsertArticle inserts the article or refreshes the stored row keyed by
// article_url. Text columns always carry strings, never NULLs.
func (r *PostgresRepository) UpsertArticle(ctx context.Context, article domain.Article) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, upsertArticleQuery,
		article.ArticleURL,
		article.Title,
		article.FullContent,
		article.Summary,
		article.ImageURL,
		nullInt64(article.SourceID),
		article.SourceName,
		article.Category,
		nullTime(article.PublishedAt),
		article.ContentHash,
	)
	if err != nil {
		return domain.WrapErr(domain.ErrPersistence, fmt.Errorf("upsert article: %w", err))
	}

	return nil
}

// ExistsByURL reports whether an article with this URL is already stored.
func (r *PostgresRepository) ExistsByURL(ctx context.Context, articleURL string) (bool, error) {
	if r.db == nil {
		return false, nil
	}

	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE article_url = $1 LIMIT 1`, articleURL).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("exists by url: %w", err))
	}

	return true, nil
}

// ListSources returns sources ordered by name with their fetch kind resolved.
func (r *PostgresRepository) ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	if r.db == nil {
		return nil, nil
	}

	builder := psql.Select("id", "name", "feed_url", "base_url", "category", "is_active").
		From("sources").
		OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("build sources query: %w", err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("query sources: %w", err))
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var src domain.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.FeedURL, &src.BaseURL, &src.Category, &src.Active); err != nil {
			return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("scan source: %w", err))
		}
		if src.Category == "" {
			src.Category = "General"
		}
		sources = append(sources, domain.ResolveKind(src))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("iterate sources: %w", err))
	}

	return sources, nil
}

const upsertSourceQuery = `INSERT INTO sources (name, feed_url, base_url, category, is_active)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (feed_url) DO UPDATE
              SET name = EXCLUDED.name,
                  base_url = EXCLUDED.base_url,
                  category = EXCLUDED.category`

// UpsertSource seeds or refreshes a source keyed by feed_url. The is_active
// flag is left alone on update so a deactivated source stays off.
func (r *PostgresRepository) UpsertSource(ctx context.Context, src domain.Source) error {
	if r.db == nil {
		return nil
	}

	category := strings.TrimSpace(src.Category)
	if category == "" {
		category = "General"
	}

	_, err := r.db.ExecContext(ctx, upsertSourceQuery, src.Name, src.FeedURL, src.BaseURL, category, src.Active)
	if err != nil {
		return domain.WrapErr(domain.ErrPersistence, fmt.Errorf("upsert source: %w", err))
	}

	return nil
}

// ListArticles serves the read side: recent articles, optionally filtered by
// source category, ordered by published_at or created_at.
func (r *PostgresRepository) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	if r.db == nil {
		return nil, nil
	}

	var sourceNames []string
	category := strings.TrimSpace(q.Category)
	if category != "" && !strings.EqualFold(category, "all") {
		names, err := r.sourceNamesByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return []domain.Article{}, nil
		}
		sourceNames = names
	}

	query, args, err := listArticlesQuery(q, sourceNames)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("build articles query: %w", err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("query articles: %w", err))
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			a           domain.Article
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.FullContent, &a.SourceName,
			&a.ArticleURL, &a.ImageURL, &a.Category, &publishedAt, &a.CreatedAt); err != nil {
			return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("scan article: %w", err))
		}
		if publishedAt.Valid {
			ts := publishedAt.Time
			a.PublishedAt = &ts
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("iterate articles: %w", err))
	}

	return articles, nil
}

// Categories returns the distinct categories of active sources, sorted.
func (r *PostgresRepository) Categories(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select("category").Distinct().
		From("sources").
		Where(sq.Eq{"is_active": true}).
		OrderBy("category").
		ToSql()
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("build categories query: %w", err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("query categories: %w", err))
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("scan category: %w", err))
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("iterate categories: %w", err))
	}

	return categories, nil
}

func (r *PostgresRepository) sourceNamesByCategory(ctx context.Context, category string) ([]string, error) {
	query, args, err := sourceNamesQuery(category)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("build source names query: %w", err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("query source names: %w", err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("scan source name: %w", err))
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapErr(domain.ErrPersistence, fmt.Errorf("iterate source names: %w", err))
	}

	return names, nil
}

// listArticlesQuery builds the dynamic read query. A nil sourceNames slice
// means no category filter.
func listArticlesQuery(q domain.ArticleQuery, sourceNames []string) (string, []interface{}, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultArticleLimit
	}

	column := "published_at"
	if q.OrderBy == "created_at" {
		column = "created_at"
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	builder := psql.Select("id", "title", "summary", "full_content", "source_name",
		"article_url", "image_url", "category", "published_at", "created_at").
		From("articles").
		OrderBy(column + " " + direction).
		Limit(uint64(limit))

	if len(sourceNames) > 0 {
		builder = builder.Where(sq.Eq{"source_name": sourceNames})
	}

	return builder.ToSql()
}

// sourceNamesQuery maps a category to its active source names. The News
// category folds in General and World.
func sourceNamesQuery(category string) (string, []interface{}, error) {
	category = strings.TrimSpace(category)

	builder := psql.Select("name").From("sources").Where(sq.Eq{"is_active": true})
	if strings.EqualFold(category, "news") {
		builder = builder.Where(sq.Eq{"category": []string{"News", "General", "World"}})
	} else {
		builder = builder.Where(sq.Eq{"category": category})
	}

	return builder.ToSql()
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
