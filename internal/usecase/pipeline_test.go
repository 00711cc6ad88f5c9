package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/fetch"
	"NewsDigest/internal/ports"
)

type fakeFetcher struct {
	entries []domain.Candidate
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ domain.Source) ([]domain.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeExtractor struct {
	failURLs map[string]bool
	calls    int
}

func (f *fakeExtractor) Extract(_ context.Context, articleURL string) (domain.Extraction, error) {
	f.calls++
	if f.failURLs[articleURL] {
		return domain.Extraction{}, domain.WrapErr(domain.ErrExtraction, errors.New("no content"))
	}
	return domain.Extraction{
		Text:     strings.Repeat("article body ", 20),
		ImageURL: "https://example.com/page.jpg",
		Strategy: "stub",
	}, nil
}

type fakeSummarizer struct {
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "a concise summary", nil
}

type fakeRepo struct {
	sources   []domain.Source
	existing  map[string]bool
	stored    []domain.Article
	upsertErr error
	listErr   error
}

func (f *fakeRepo) UpsertArticle(_ context.Context, article domain.Article) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.stored = append(f.stored, article)
	return nil
}

func (f *fakeRepo) ExistsByURL(_ context.Context, articleURL string) (bool, error) {
	return f.existing[articleURL], nil
}

func (f *fakeRepo) ListSources(_ context.Context, _ bool) ([]domain.Source, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sources, nil
}

func (f *fakeRepo) UpsertSource(_ context.Context, _ domain.Source) error { return nil }

func (f *fakeRepo) ListArticles(_ context.Context, _ domain.ArticleQuery) ([]domain.Article, error) {
	return nil, nil
}

func (f *fakeRepo) Categories(_ context.Context) ([]string, error) { return nil, nil }

func rssCandidates(source string, n int) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Candidate{
			Title:      fmt.Sprintf("Story %d", i),
			ArticleURL: fmt.Sprintf("https://example.com/story/%d", i),
			SourceName: source,
		})
	}
	return out
}

func newTestPipeline(repo *fakeRepo, registry *fetch.Registry, extractor *fakeExtractor, summarizer ports.Summarizer, limits Limits, required bool) *Pipeline {
	return NewPipeline(PipelineDeps{
		Registry:        registry,
		Repository:      repo,
		Extractor:       extractor,
		Summarizer:      summarizer,
		Limits:          limits,
		SummaryRequired: required,
	})
}

func TestRunStoresCandidates(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 3, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
		existing: map[string]bool{},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 3)})
	extractor := &fakeExtractor{}

	p := newTestPipeline(repo, registry, extractor, &fakeSummarizer{}, Limits{PerSource: 25, PerRun: 100, SkipExisting: true}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched != 3 || report.Stored != 3 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(repo.stored) != 3 {
		t.Fatalf("expected 3 stored articles, got %d", len(repo.stored))
	}

	first := repo.stored[0]
	if first.SourceID != 3 || first.Category != "News" || first.SourceName != "BBC News" {
		t.Fatalf("unexpected source fields: %+v", first)
	}
	if first.Summary != "a concise summary" {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.ImageURL != "https://example.com/page.jpg" {
		t.Fatalf("unexpected image: %q", first.ImageURL)
	}
	if len(first.ContentHash) != 64 {
		t.Fatalf("unexpected content hash: %q", first.ContentHash)
	}
}

func TestRunIsolatesFailingSource(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "Broken Feed", Category: "World", Active: true, Kind: domain.KindRSS},
			{ID: 2, Name: "BBC Business", Category: "Business", Active: true, Kind: domain.KindSectionScrape},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{err: domain.WrapErr(domain.ErrSourceFetch, errors.New("boom"))})
	registry.Register(domain.KindSectionScrape, &fakeFetcher{entries: rssCandidates("BBC Business", 2)})

	p := newTestPipeline(repo, registry, &fakeExtractor{}, nil, Limits{PerRun: 100}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched != 2 || report.Stored != 2 {
		t.Fatalf("expected the healthy source to be processed, got %+v", report)
	}
}

func TestRunSkipsExistingURLs(t *testing.T) {
	t.Parallel()

	candidates := rssCandidates("BBC News", 3)
	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
		existing: map[string]bool{candidates[0].ArticleURL: true},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: candidates})
	extractor := &fakeExtractor{}

	p := newTestPipeline(repo, registry, extractor, nil, Limits{PerRun: 100, SkipExisting: true}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Skipped != 1 || report.Stored != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if extractor.calls != 2 {
		t.Fatalf("expected extraction only for new urls, got %d calls", extractor.calls)
	}
}

func TestRunSecondPassStoresNothing(t *testing.T) {
	t.Parallel()

	candidates := rssCandidates("BBC News", 3)
	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
		existing: map[string]bool{},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: candidates})

	p := newTestPipeline(repo, registry, &fakeExtractor{}, nil, Limits{PerRun: 100, SkipExisting: true}, false)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, article := range repo.stored {
		repo.existing[article.ArticleURL] = true
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Stored != 0 || report.Skipped != 3 {
		t.Fatalf("expected idempotent second pass, got %+v", report)
	}
	if len(repo.stored) != 3 {
		t.Fatalf("expected no new rows, got %d", len(repo.stored))
	}
}

func TestRunPerSourceCap(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 5)})

	p := newTestPipeline(repo, registry, &fakeExtractor{}, nil, Limits{PerSource: 2, PerRun: 100}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched != 2 || report.Stored != 2 {
		t.Fatalf("expected per-source cap at 2, got %+v", report)
	}
}

func TestRunPerRunCap(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 5)})
	extractor := &fakeExtractor{}

	p := newTestPipeline(repo, registry, extractor, nil, Limits{PerRun: 2}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Stored != 2 {
		t.Fatalf("expected per-run cap at 2, got %+v", report)
	}
	if extractor.calls != 2 {
		t.Fatalf("expected extraction to stop at the cap, got %d calls", extractor.calls)
	}
}

func TestRunExtractionFailureCountsFailed(t *testing.T) {
	t.Parallel()

	candidates := rssCandidates("BBC News", 3)
	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: candidates})
	extractor := &fakeExtractor{failURLs: map[string]bool{candidates[1].ArticleURL: true}}

	p := newTestPipeline(repo, registry, extractor, nil, Limits{PerRun: 100}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 || report.Stored != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for _, article := range repo.stored {
		if article.ArticleURL == candidates[1].ArticleURL {
			t.Fatal("expected failed article not to be stored")
		}
	}
}

func TestRunSummarizerFailureStoresWithoutSummary(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 1)})
	summarizer := &fakeSummarizer{err: domain.WrapErr(domain.ErrSummarization, errors.New("quota"))}

	p := newTestPipeline(repo, registry, &fakeExtractor{}, summarizer, Limits{PerRun: 100}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Stored != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if repo.stored[0].Summary != "" {
		t.Fatalf("expected empty summary, got %q", repo.stored[0].Summary)
	}
}

func TestRunSummarizerFailureRequired(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 1)})
	summarizer := &fakeSummarizer{err: domain.WrapErr(domain.ErrSummarization, errors.New("quota"))}

	p := newTestPipeline(repo, registry, &fakeExtractor{}, summarizer, Limits{PerRun: 100}, true)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Stored != 0 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(repo.stored) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(repo.stored))
	}
}

func TestRunNoActiveSources(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&fakeRepo{}, fetch.NewRegistry(), &fakeExtractor{}, nil, Limits{}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched != 0 || report.Stored != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunSourceLoadError(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{listErr: domain.WrapErr(domain.ErrPersistence, errors.New("connection refused"))}
	p := newTestPipeline(repo, fetch.NewRegistry(), &fakeExtractor{}, nil, Limits{}, false)

	_, err := p.Run(context.Background())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestRunPersistFailureCountsFailed(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		sources: []domain.Source{
			{ID: 1, Name: "BBC News", Category: "News", Active: true, Kind: domain.KindRSS},
		},
		upsertErr: domain.WrapErr(domain.ErrPersistence, errors.New("constraint")),
	}
	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, &fakeFetcher{entries: rssCandidates("BBC News", 2)})

	p := newTestPipeline(repo, registry, &fakeExtractor{}, nil, Limits{PerRun: 100}, false)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 2 || report.Stored != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
