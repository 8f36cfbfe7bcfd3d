package echo

import (
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/commons/properties"
	echov4 "github.com/labstack/echo/v4"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/job"
)

var Crons = cmap.New[*cron.Cron]()

// RegisterCron exposes the jobs of a scheduler on the debug routes.
func RegisterCron(c *cron.Cron) {
	Crons.SetIfAbsent(fmt.Sprintf("%p", c), c)
}

type cronEntry struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitempty"`
	Prev     time.Time `json:"prev,omitempty"`
	job      *job.Job
}

func cronEntries() []cronEntry {
	var entries []cronEntry
	for item := range Crons.IterBuffered() {
		for _, e := range item.Val.Entries() {
			if j, ok := e.Job.(*job.Job); ok {
				entries = append(entries, cronEntry{Name: j.Name, Schedule: j.Schedule, Next: e.Next, Prev: e.Prev, job: j})
			}
		}
	}
	return entries
}

// RestrictToLocalhost is a middleware that restricts access to localhost
func RestrictToLocalhost(next echov4.HandlerFunc) echov4.HandlerFunc {
	return func(c echov4.Context) error {
		remoteIP := net.ParseIP(c.RealIP())
		if remoteIP == nil {
			return echov4.NewHTTPError(http.StatusForbidden, "Invalid IP address")
		}

		if !remoteIP.IsLoopback() {
			return echov4.NewHTTPError(http.StatusForbidden, "Access restricted to localhost")
		}

		return next(c)
	}
}

func AddDebugHandlers(ctx context.Context, e *echov4.Echo) {
	debug := e.Group("/debug", RestrictToLocalhost)

	pprofGroup := debug.Group("/pprof")
	pprofGroup.GET("/*", echov4.WrapHandler(http.HandlerFunc(pprof.Index)))
	pprofGroup.GET("/profile*", echov4.WrapHandler(http.HandlerFunc(pprof.Profile)))
	pprofGroup.GET("/trace*", echov4.WrapHandler(http.HandlerFunc(pprof.Trace)))

	debug.GET("/routes", func(c echov4.Context) error {
		return c.JSON(http.StatusOK, e.Routes())
	})

	debug.GET("/loggers", func(c echov4.Context) error {
		return c.JSON(http.StatusOK, logger.GetNamedLoggingLevels())
	})

	debug.POST("/loggers", func(c echov4.Context) error {
		logName := c.Request().FormValue("logger")
		logLevel := c.Request().FormValue("level")
		if logName == "" || logLevel == "" {
			return c.String(http.StatusBadRequest, "logger name or level is missing")
		}

		named := logger.GetLogger(logName)
		currentLevel := named.GetLevel()
		if duration := c.Request().FormValue("duration"); duration != "" {
			d, err := time.ParseDuration(duration)
			if err != nil {
				return c.String(http.StatusBadRequest, err.Error())
			}
			logger.Infof("Setting logger %s level to %s for %v", logName, logLevel, d)
			time.AfterFunc(d, func() { named.SetLogLevel(currentLevel) })
		} else {
			logger.Infof("Setting logger %s level to %s", logName, logLevel)
		}
		named.SetLogLevel(logLevel)
		return c.String(http.StatusOK, fmt.Sprintf("Changed %s from %s to %s", logName, currentLevel, logLevel))
	})

	debug.GET("/properties", func(c echov4.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"supported": context.SupportedProperties(),
			"context":   ctx.Properties(),
			"system":    properties.Global.GetAll(),
		})
	})

	debug.GET("/cron", func(c echov4.Context) error {
		return c.JSON(http.StatusOK, cronEntries())
	})

	debug.POST("/cron/run", func(c echov4.Context) error {
		name := c.Request().FormValue("name")
		entry, ok := lo.Find(cronEntries(), func(e cronEntry) bool { return e.Name == name })
		if !ok {
			return c.String(http.StatusNotFound, fmt.Sprintf("job %q not found", name))
		}
		entry.job.Run()
		return c.String(http.StatusOK, fmt.Sprintf("Ran %s", name))
	})

	debug.POST("/property", func(c echov4.Context) error {
		name := c.Request().FormValue("name")
		value := c.Request().FormValue("value")
		if name == "" || value == "" {
			return c.String(http.StatusBadRequest, "property name or value is missing")
		}
		properties.Set(name, value)
		return c.NoContent(http.StatusOK)
	})
}
