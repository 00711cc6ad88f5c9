package fetch

import (
	"context"
	"fmt"

	"NewsDigest/internal/domain"
)

// Fetcher captures a single fetch strategy (RSS feed, section page scrape).
// One finite pass of candidates per invocation.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.Candidate, error)
}

// Registry keeps the mapping from source kinds to their fetch strategies.
type Registry struct {
	fetchers map[domain.SourceKind]Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[domain.SourceKind]Fetcher{}}
}

// Register adds or replaces the strategy for a source kind.
func (r *Registry) Register(kind domain.SourceKind, fetcher Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[domain.SourceKind]Fetcher{}
	}
	r.fetchers[kind] = fetcher
}

// Resolve returns the strategy for a kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (Fetcher, error) {
	if fetcher, ok := r.fetchers[kind]; ok {
		return fetcher, nil
	}
	return nil, fmt.Errorf("no fetcher registered for kind %s", kind)
}
