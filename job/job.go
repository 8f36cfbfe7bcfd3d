package job

import (
	gocontext "context"
	"fmt"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/robfig/cron/v3"

	"github.com/flanksource/reports/context"
)

var log = logger.GetLogger("job")

// Job is a named function run on a cron schedule.
type Job struct {
	context.Context
	Name     string
	Schedule string
	Timeout  time.Duration
	Fn       func(ctx *JobRuntime) error
	RunNow   bool
	entryID  *cron.EntryID
}

type JobRuntime struct {
	context.Context
	Job     *Job
	Started time.Time
	// Affected counts the items the run changed, reported in the log line.
	Affected int
}

func NewJob(ctx context.Context, name string, schedule string, fn func(ctx *JobRuntime) error) *Job {
	return &Job{
		Context:  ctx,
		Name:     name,
		Schedule: schedule,
		Fn:       fn,
	}
}

func (j *Job) SetTimeout(t time.Duration) *Job {
	j.Timeout = t
	return j
}

func (j *Job) RunOnStart() *Job {
	j.RunNow = true
	return j
}

// Run executes the job once. Errors are logged and counted, never returned.
func (j *Job) Run() {
	ctx, span := j.Wrap(gocontext.Background()).StartSpan(j.Name)
	defer span.End()

	if j.Timeout > 0 {
		var cancel gocontext.CancelFunc
		ctx, cancel = ctx.WithTimeout(j.Timeout)
		defer cancel()
	}

	r := JobRuntime{Context: ctx, Job: j, Started: time.Now()}
	err := j.Fn(&r)
	ctx.Histogram("job_duration", context.LatencyBuckets, "name", j.Name).Since(r.Started)

	if err != nil {
		span.RecordError(err)
		ctx.Counter("job_runs_total", "name", j.Name, "status", "failed").Add(1)
		log.Errorf("job %s failed: %v", j.Name, err)
		return
	}
	ctx.Counter("job_runs_total", "name", j.Name, "status", "success").Add(1)
	log.V(1).Infof("job %s finished in %s, %d affected", j.Name, time.Since(r.Started), r.Affected)
}

func (j *Job) AddToScheduler(cronRunner *cron.Cron) error {
	entryID, err := cronRunner.AddJob(j.Schedule, j)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", j.Name, err)
	}
	j.entryID = &entryID
	if j.RunNow {
		j.Run()
	}
	return nil
}

func (j *Job) GetEntry(cronRunner *cron.Cron) *cron.Entry {
	if j.entryID == nil {
		return nil
	}
	entry := cronRunner.Entry(*j.entryID)
	return &entry
}

func (j *Job) RemoveFromScheduler(cronRunner *cron.Cron) {
	if j.entryID != nil {
		cronRunner.Remove(*j.entryID)
		j.entryID = nil
	}
}
