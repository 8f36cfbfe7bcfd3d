package echo

import (
	gocontext "context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/flanksource/commons/logger"
	echov4 "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/report"
	"github.com/flanksource/reports/store"
)

var log = logger.GetLogger("http")

// Server serves reports stored in the database attached to its context.
// Open report sessions are kept between requests so debounced filter writes
// survive the request that caused them.
type Server struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	config   api.Config
	sessions cmap.ConcurrentMap[string, *report.Session]
	lastUsed cmap.ConcurrentMap[string, time.Time]
}

func NewServer(ctx context.Context, p *pipeline.Pipeline, config api.Config) *Server {
	return &Server{
		ctx:      ctx,
		pipeline: p,
		config:   config,
		sessions: cmap.New[*report.Session](),
		lastUsed: cmap.New[time.Time](),
	}
}

// New builds the echo instance with every route registered.
func New(ctx context.Context, p *pipeline.Pipeline, config api.Config) (*echov4.Echo, *Server) {
	s := NewServer(ctx, p, config)

	e := echov4.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(s.withContext)

	e.GET("/catalog", s.Catalog)
	if config.Metrics {
		e.GET("/metrics", echov4.WrapHandler(promhttp.Handler()))
	}

	reports := e.Group("/reports", s.authorize)
	reports.GET("", s.ListReports)
	reports.POST("", s.CreateReport)
	reports.GET("/:id", s.GetReport)
	reports.DELETE("/:id", s.DeleteReport)
	reports.PUT("/:id/content", s.PutContent)
	reports.GET("/:id/render", s.Render)
	reports.GET("/:id/export", s.Export)
	reports.GET("/:id/options", s.FilterOptions)
	reports.PATCH("/:id/title", s.PatchTitle)
	reports.PATCH("/:id/fields", s.PatchFields)
	reports.PATCH("/:id/filters", s.PatchFilters)
	reports.PATCH("/:id/sorting", s.PatchSorting)
	reports.PATCH("/:id/chart", s.PatchChart)
	reports.PATCH("/:id/conditions", s.PatchConditions)

	AddDebugHandlers(ctx, e)
	return e, s
}

// withContext replaces the request context with one carrying the database
// and the properties of the server.
func (s *Server) withContext(next echov4.HandlerFunc) echov4.HandlerFunc {
	return func(c echov4.Context) error {
		ctx := s.ctx.Wrap(c.Request().Context())
		if user := c.Request().Header.Get("X-User"); user != "" {
			ctx = ctx.WithUser(user)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requestContext(c echov4.Context) context.Context {
	if ctx, ok := c.Request().Context().(context.Context); ok {
		return ctx
	}
	return context.New(c.Request().Context())
}

// authorize requires the configured bearer token on mutating requests.
func (s *Server) authorize(next echov4.HandlerFunc) echov4.HandlerFunc {
	if s.config.Token == "" {
		return next
	}
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(c echov4.Context) bool {
			return c.Request().Method == http.MethodGet
		},
		Validator: func(key string, _ echov4.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.Token)) == 1, nil
		},
	})(next)
}

// session returns the open session of a report, loading it on first use.
func (s *Server) session(ctx context.Context, id string) (*report.Session, error) {
	if session, ok := s.sessions.Get(id); ok {
		s.lastUsed.Set(id, time.Now())
		return session, nil
	}

	state, err := s.state(ctx, id)
	if err != nil {
		return nil, err
	}

	callbacks := store.Callbacks(s.ctx, id)
	var session *report.Session
	reload := func() {
		state, err := s.state(s.ctx.Wrap(gocontext.Background()), id)
		if err != nil {
			log.Warnf("failed to reload report %s: %v", id, err)
			return
		}
		session.Update(state)
	}
	callbacks.Refetch = reload
	callbacks.RefetchContent = reload
	callbacks.NavigateBack = func() { s.drop(id) }

	var opts []report.Option
	if s.config.Debounce > 0 {
		opts = append(opts, report.WithDebounce(s.config.Debounce))
	}
	session = report.New(s.ctx, s.pipeline, state, callbacks, opts...)
	s.lastUsed.Set(id, time.Now())
	if !s.sessions.SetIfAbsent(id, session) {
		session.Close()
		existing, _ := s.sessions.Get(id)
		return existing, nil
	}
	s.ctx.Gauge("report_sessions").Set(float64(s.sessions.Count()))
	return session, nil
}

func (s *Server) state(ctx context.Context, id string) (report.State, error) {
	state, err := store.State(ctx, id)
	if err != nil {
		return state, err
	}
	state.DataSources = s.pipeline.Catalog().DataSources()
	return state, nil
}

func (s *Server) drop(id string) {
	if session, ok := s.sessions.Pop(id); ok {
		session.Close()
	}
	s.lastUsed.Remove(id)
	s.ctx.Gauge("report_sessions").Set(float64(s.sessions.Count()))
}

// Flush persists every pending filter write, used on shutdown.
func (s *Server) Flush(ctx context.Context) {
	for item := range s.sessions.IterBuffered() {
		if _, err := item.Val.Flush(ctx); err != nil {
			log.Errorf("failed to flush filters of %s: %v", item.Key, err)
		}
	}
}

// EvictIdle flushes and closes the sessions not used for longer than idle.
func (s *Server) EvictIdle(ctx context.Context, idle time.Duration) int {
	var evicted int
	for item := range s.lastUsed.IterBuffered() {
		if time.Since(item.Val) < idle {
			continue
		}
		if session, ok := s.sessions.Get(item.Key); ok {
			if _, err := session.Flush(ctx); err != nil {
				log.Warnf("keeping session %s, flush failed: %v", item.Key, err)
				continue
			}
		}
		s.drop(item.Key)
		evicted++
	}
	return evicted
}
