package main

import (
	gocontext "context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/google/gops/agent"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/flanksource/reports"
	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/echo"
	"github.com/flanksource/reports/job"
	"github.com/flanksource/reports/shutdown"
	"github.com/flanksource/reports/store"
	"github.com/flanksource/reports/telemetry"
)

var gops bool

var serve = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, p, stop, err := reports.Start("reports")
		if err != nil {
			return err
		}
		shutdown.AddHookWithPriority("database", shutdown.PriorityCritical, stop)

		stopTracer := telemetry.InitTracer()
		shutdown.AddHookWithPriority("tracer", shutdown.PriorityCritical, func() {
			timeout, cancel := gocontext.WithTimeout(gocontext.Background(), 30*time.Second)
			defer cancel()
			if err := stopTracer(timeout); err != nil {
				logger.Errorf("failed to shutdown tracer: %v", err)
			}
		})

		config := api.DefaultConfig.ReadEnv()
		if config.Metrics {
			if err := store.RegisterMetrics(ctx, "reports"); err != nil {
				return err
			}
		}
		if gops {
			if err := agent.Listen(agent.Options{}); err != nil {
				logger.Errorf("failed to start gops agent: %v", err)
			}
			shutdown.AddHook(agent.Close)
		}
		e, server := echo.New(ctx, p, config)

		shutdown.AddHookWithPriority("echo", shutdown.PriorityIngress, func() {
			timeout, cancel := gocontext.WithTimeout(gocontext.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(timeout); err != nil {
				logger.Errorf("failed to shutdown echo: %v", err)
			}
		})
		shutdown.AddHookWithPriority("sessions", shutdown.PrioritySessions, func() {
			server.Flush(ctx)
		})

		scheduler := cron.New()
		var jobs []*job.Job
		if config.SessionIdle > 0 {
			jobs = append(jobs, job.EvictIdleSessions(ctx, server, config.SessionIdle))
		}
		if config.Retention > 0 {
			jobs = append(jobs, job.PurgeDeletedReports(ctx, config.Retention))
		}
		for _, j := range jobs {
			if err := j.AddToScheduler(scheduler); err != nil {
				return err
			}
		}
		echo.RegisterCron(scheduler)
		scheduler.Start()
		shutdown.AddHookWithPriority("jobs", shutdown.PriorityIngress, func() {
			<-scheduler.Stop().Done()
		})

		done := shutdown.WaitForSignal()

		listenAddr := fmt.Sprintf(":%d", config.Port)
		logger.Infof("Listening on %s", listenAddr)
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-done
		return nil
	},
}

func init() {
	serve.Flags().BoolVar(&gops, "gops", false, "Start the gops diagnostics agent")
}
