package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsDigest/internal/ports"
)

// CronScheduler triggers the daily job through robfig/cron.
type CronScheduler struct {
	spec       string
	runOnStart bool
	cron       *cron.Cron
	entryID    cron.EntryID
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// DailySpec builds the standard cron expression for one run per day at
// hour:minute.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// NewCronScheduler builds a scheduler from a cron expression. With runOnStart
// the job also fires once right after Start.
func NewCronScheduler(spec string, runOnStart bool) *CronScheduler {
	return &CronScheduler{spec: spec, runOnStart: runOnStart}
}

// Start registers the job and starts the cron runner.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	runner := cron.New()
	id, err := runner.AddFunc(c.spec, func() { job(time.Now()) })
	if err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}
	c.cron = runner
	c.entryID = id
	runner.Start()

	if c.runOnStart {
		go job(time.Now())
	}

	return nil
}

// Stop halts the cron runner and waits for an in-flight job to finish or the
// context to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	stopCtx := c.cron.Stop()
	c.cron = nil

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
