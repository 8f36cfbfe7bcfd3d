package reports

import (
	gocontext "context"
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/store"
)

const DefaultDSN = "reports.db"

func BindPFlags(flags *pflag.FlagSet) {
	flags.StringVar(&api.DefaultConfig.DSN, "db", "REPORTS_DB", "sqlite database file, :memory: for a throwaway database")
	flags.StringVar(&api.DefaultConfig.Catalog, "catalog", "", "YAML or JSON field catalog replacing the built in one")
	flags.StringVar(&api.DefaultConfig.LogLevel, "log-level", "", "Log level (info, debug, trace)")
	flags.StringVar(&api.DefaultConfig.DBLogLevel, "db-log-level", "", "Set gorm logging level. trace, debug & info")
	flags.IntVar(&api.DefaultConfig.Port, "port", api.DefaultConfig.Port, "HTTP port")
	flags.BoolVar(&api.DefaultConfig.Metrics, "metrics", api.DefaultConfig.Metrics, "Serve prometheus metrics on /metrics")
	flags.DurationVar(&api.DefaultConfig.Debounce, "filter-debounce", api.DefaultConfig.Debounce, "Quiet period before filter edits are persisted")
	flags.DurationVar(&api.DefaultConfig.CacheTTL, "cache-ttl", api.DefaultConfig.CacheTTL, "How long rendered reports are cached, 0 disables the cache")
	flags.DurationVar(&api.DefaultConfig.SessionIdle, "session-idle", api.DefaultConfig.SessionIdle, "Close report sessions unused for this long, 0 keeps them open")
	flags.DurationVar(&api.DefaultConfig.Retention, "retention", api.DefaultConfig.Retention, "Purge deleted reports after this long, 0 keeps them")
	flags.StringVar(&api.DefaultConfig.Token, "token", "REPORTS_TOKEN", "Bearer token required on mutating requests")
}

type StartOption func(config api.Config) api.Config

var InMemory = func(config api.Config) api.Config {
	config.DSN = store.MemoryDSN
	return config
}

var WithoutCache = func(config api.Config) api.Config {
	config.CacheTTL = 0
	return config
}

var WithDSN = func(dsn string) StartOption {
	return func(config api.Config) api.Config {
		config.DSN = dsn
		return config
	}
}

var WithCatalog = func(path string) StartOption {
	return func(config api.Config) api.Config {
		config.Catalog = path
		return config
	}
}

// LoadCatalog returns the catalog file of config, or the built in catalog.
func LoadCatalog(config api.Config) (*catalog.Catalog, error) {
	if config.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(config.Catalog)
}

// Start opens the database and builds the pipeline for the catalog of the
// effective config.
func Start(name string, opts ...StartOption) (context.Context, *pipeline.Pipeline, func(), error) {
	config := api.DefaultConfig
	for _, opt := range opts {
		config = opt(config)
	}
	config = config.ReadEnv()

	if config.LogLevel != "" {
		logger.StandardLogger().SetLogLevel(config.LogLevel)
	}

	ctx := context.New(gocontext.Background()).WithProperties(config.Properties())
	ctx, closeDB, err := store.Open(ctx, lo.CoalesceOrEmpty(config.DSN, DefaultDSN))
	if err != nil {
		return context.Context{}, nil, nil, err
	}
	stop := func() {
		if err := closeDB(); err != nil {
			logger.Errorf("failed to close database: %v", err)
		}
	}

	cat, err := LoadCatalog(config)
	if err != nil {
		stop()
		return context.Context{}, nil, nil, err
	}

	p, err := pipeline.New(cat, pipeline.WithCacheTTL(config.CacheTTL))
	if err != nil {
		stop()
		return context.Context{}, nil, nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	logger.Infof("%s started: %s", name, config)
	return ctx, p, stop, nil
}
