package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/fetch"
	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
)

// Limits bounds how much one run ingests.
type Limits struct {
	PerSource    int
	PerRun       int
	SkipExisting bool
}

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Registry        *fetch.Registry
	Repository      ports.ArticleRepository
	Extractor       ports.Extractor
	Summarizer      ports.Summarizer
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	Limits          Limits
	Delay           time.Duration
	SummaryRequired bool
}

// Pipeline implements the fetch → extract → summarize → store workflow.
type Pipeline struct {
	registry        *fetch.Registry
	repository      ports.ArticleRepository
	extractor       ports.Extractor
	summarizer      ports.Summarizer
	metrics         *metrics.Metrics
	logger          *slog.Logger
	limits          Limits
	delay           time.Duration
	summaryRequired bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		registry:        deps.Registry,
		repository:      deps.Repository,
		extractor:       deps.Extractor,
		summarizer:      deps.Summarizer,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		limits:          deps.Limits,
		delay:           deps.Delay,
		summaryRequired: deps.SummaryRequired,
	}
}

// Run executes one full ingestion pass. One bad source or article never fails
// the run; per-item failures are logged and counted. The returned report is
// valid even when an error is returned.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	started := time.Now()
	var report domain.RunReport

	if p.registry == nil || p.repository == nil || p.extractor == nil {
		return report, errors.New("pipeline misconfigured")
	}

	sources, err := p.repository.ListSources(ctx, true)
	if err != nil {
		report.Elapsed = time.Since(started)
		p.metrics.RecordRun(report, err)
		return report, fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		p.warn("no active sources configured")
		report.Elapsed = time.Since(started)
		p.metrics.RecordRun(report, nil)
		return report, nil
	}

	candidates := p.collect(ctx, sources)
	report.Fetched = len(candidates)
	p.info("candidates collected", "sources", len(sources), "candidates", len(candidates))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(started)
			p.metrics.RecordRun(report, err)
			return report, err
		}
		if p.limits.PerRun > 0 && report.Stored >= p.limits.PerRun {
			p.info("per-run article cap reached", "cap", p.limits.PerRun)
			break
		}
		p.process(ctx, candidate, sources, &report)
	}

	report.Elapsed = time.Since(started)
	p.metrics.RecordRun(report, nil)
	p.info("run finished",
		"fetched", report.Fetched,
		"stored", report.Stored,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"elapsed", report.Elapsed)

	return report, nil
}

// collect gathers candidates from every source, isolating fetch failures.
func (p *Pipeline) collect(ctx context.Context, sources []domain.Source) []domain.Candidate {
	var candidates []domain.Candidate
	for _, src := range sources {
		fetcher, err := p.registry.Resolve(src.Kind)
		if err != nil {
			p.warn("source has no fetcher", "source", src.Name, "error", err)
			continue
		}

		entries, err := fetcher.Fetch(ctx, src)
		if err != nil {
			p.warn("source fetch failed", "source", src.Name, "error", err)
			continue
		}
		if p.limits.PerSource > 0 && len(entries) > p.limits.PerSource {
			entries = entries[:p.limits.PerSource]
		}

		p.debug("source fetched", "source", src.Name, "candidates", len(entries))
		candidates = append(candidates, entries...)
	}
	return candidates
}

func (p *Pipeline) process(ctx context.Context, candidate domain.Candidate, sources []domain.Source, report *domain.RunReport) {
	if candidate.ArticleURL == "" {
		return
	}

	if p.limits.SkipExisting {
		exists, err := p.repository.ExistsByURL(ctx, candidate.ArticleURL)
		if err != nil {
			p.warn("exists check failed", "url", candidate.ArticleURL, "error", err)
			report.Failed++
			return
		}
		if exists {
			p.debug("skipping stored article", "url", candidate.ArticleURL)
			report.Skipped++
			return
		}
	}

	// Politeness pause before each article fetch.
	if err := p.pause(ctx); err != nil {
		return
	}

	extraction, err := p.extractor.Extract(ctx, candidate.ArticleURL)
	if err != nil {
		p.warn("extraction failed", "url", candidate.ArticleURL, "error", err)
		report.Failed++
		return
	}

	var summary string
	if p.summarizer != nil {
		summary, err = p.summarizer.Summarize(ctx, candidate.Title, extraction.Text)
		if err != nil {
			p.metrics.RecordSummary(false)
			if p.summaryRequired {
				p.warn("summarization failed, dropping article", "url", candidate.ArticleURL, "error", err)
				report.Failed++
				return
			}
			p.warn("summarization failed, storing without summary", "url", candidate.ArticleURL, "error", err)
			summary = ""
		} else if summary != "" {
			p.metrics.RecordSummary(true)
		}
	}

	article := buildArticle(candidate, extraction, summary, matchSource(sources, candidate.SourceName))
	if err := p.repository.UpsertArticle(ctx, article); err != nil {
		p.warn("persist failed", "url", candidate.ArticleURL, "error", err)
		report.Failed++
		return
	}

	report.Stored++
	p.info("article stored", "source", article.SourceName, "title", article.Title)
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

// buildArticle merges listing and page data into the stored record. The page
// image wins over the listing image; the listing date wins over the page date.
func buildArticle(candidate domain.Candidate, extraction domain.Extraction, summary string, src domain.Source) domain.Article {
	imageURL := extraction.ImageURL
	if imageURL == "" {
		imageURL = candidate.ImageURL
	}

	publishedAt := candidate.PublishedAt
	if publishedAt == nil {
		publishedAt = extraction.PublishedAt
	}

	sourceName := candidate.SourceName
	if sourceName == "" {
		sourceName = "Unknown"
	}

	return domain.Article{
		ArticleURL:  candidate.ArticleURL,
		Title:       candidate.Title,
		FullContent: extraction.Text,
		Summary:     summary,
		ImageURL:    imageURL,
		SourceID:    src.ID,
		SourceName:  sourceName,
		Category:    src.Category,
		PublishedAt: publishedAt,
		ContentHash: domain.ContentHash(extraction.Text, candidate.ArticleURL),
	}
}

// matchSource finds the registry row a candidate came from by source name.
func matchSource(sources []domain.Source, name string) domain.Source {
	for _, src := range sources {
		if src.Name == name {
			return src
		}
	}
	return domain.Source{}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Info(msg, args...)
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, args...)
}
