package domain

import (
	"errors"
	"fmt"
)

// Pipeline error kinds. Adapters wrap these so the job runner can classify
// a failure by stage while keeping the underlying cause in the chain.
var (
	ErrSourceFetch   = errors.New("source fetch failed")
	ErrExtraction    = errors.New("content extraction failed")
	ErrSummarization = errors.New("summarization failed")
	ErrPersistence   = errors.New("persistence failed")
)

// WrapErr tags err with one of the pipeline kinds, keeping the cause in the
// chain so errors.Is matches both.
func WrapErr(kind, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, err)
}
