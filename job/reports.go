package job

import (
	gocontext "context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/store"
)

// SessionSweeper closes report sessions that were not used for a while.
type SessionSweeper interface {
	EvictIdle(ctx context.Context, idle time.Duration) int
}

// EvictIdleSessions flushes and closes sessions idle for longer than idle.
func EvictIdleSessions(ctx context.Context, sweeper SessionSweeper, idle time.Duration) *Job {
	return NewJob(ctx, "EvictIdleSessions", fmt.Sprintf("@every %s", idle/2), func(ctx *JobRuntime) error {
		ctx.Affected = sweeper.EvictIdle(ctx.Context, idle)
		return nil
	})
}

// PurgeDeletedReports removes soft deleted reports older than retention.
// Runs that find the database locked are retried.
func PurgeDeletedReports(ctx context.Context, retention time.Duration) *Job {
	return NewJob(ctx, "PurgeDeletedReports", "@every 1h", func(ctx *JobRuntime) error {
		backoff := retry.WithJitter(100*time.Millisecond, retry.WithMaxRetries(3, retry.NewExponential(time.Second)))
		return retry.Do(ctx, backoff, func(_ gocontext.Context) error {
			count, err := store.Purge(ctx.Context, retention)
			if store.IsBusyError(err) {
				return retry.RetryableError(err)
			}
			ctx.Affected = int(count)
			return err
		})
	}).SetTimeout(time.Minute).RunOnStart()
}
