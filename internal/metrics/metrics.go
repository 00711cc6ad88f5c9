package metrics

import (
	"sync"
	"time"

	"NewsDigest/internal/domain"
)

// Metrics tracks run outcomes for the monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	Runs               int64
	ArticlesFetched    int64
	ArticlesStored     int64
	ArticlesSkipped    int64
	ArticlesFailed     int64
	SummariesGenerated int64
	SummariesFailed    int64

	// Status
	LastRunTime     time.Time
	LastRunDuration time.Duration
	LastErrorTime   time.Time
	LastError       string
	IsHealthy       bool
}

// Global is the process-wide instance the app wires by default.
var Global = &Metrics{IsHealthy: true}

// RecordRun folds one run report into the counters and refreshes the
// health status.
func (m *Metrics) RecordRun(report domain.RunReport, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.ArticlesFetched += int64(report.Fetched)
	m.ArticlesStored += int64(report.Stored)
	m.ArticlesSkipped += int64(report.Skipped)
	m.ArticlesFailed += int64(report.Failed)
	m.LastRunTime = time.Now()
	m.LastRunDuration = report.Elapsed

	if err != nil {
		m.LastError = err.Error()
		m.LastErrorTime = time.Now()
		m.IsHealthy = false
		return
	}
	m.LastError = ""
	m.IsHealthy = true
}

// RecordSummary counts one summarization attempt.
func (m *Metrics) RecordSummary(ok bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok {
		m.SummariesGenerated++
	} else {
		m.SummariesFailed++
	}
}

// Healthy reports whether the latest run completed without a fatal error.
func (m *Metrics) Healthy() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

// Snapshot returns the current values as a map ready for JSON encoding.
func (m *Metrics) Snapshot() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	lastRun := ""
	if !m.LastRunTime.IsZero() {
		lastRun = m.LastRunTime.Format(time.RFC3339)
	}
	lastErrorTime := ""
	if !m.LastErrorTime.IsZero() {
		lastErrorTime = m.LastErrorTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"runs":                 m.Runs,
		"articles_fetched":     m.ArticlesFetched,
		"articles_stored":      m.ArticlesStored,
		"articles_skipped":     m.ArticlesSkipped,
		"articles_failed":      m.ArticlesFailed,
		"summaries_generated":  m.SummariesGenerated,
		"summaries_failed":     m.SummariesFailed,
		"last_run_time":        lastRun,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_error_time":      lastErrorTime,
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
