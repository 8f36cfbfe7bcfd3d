package pipeline

import (
	"strconv"
	"time"

	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/flanksource/commons/logger"
	"github.com/gohugoio/hashstructure"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/flanksource/reports/cache"
	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/chart"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/filter"
	"github.com/flanksource/reports/grouping"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/sorting"
	"github.com/flanksource/reports/transform"
	"github.com/flanksource/reports/types"
)

var log = logger.GetLogger("pipeline")

const DefaultCacheTTL = 5 * time.Minute

// Input is everything a report view is computed from.
type Input struct {
	Report  models.Report       `json:"report"`
	Content []any               `json:"content"`
	Fields  models.Fields       `json:"fields"`
	Filters models.FilterGroups `json:"filters,omitempty"`
	// Sorting overrides the sort directions of the display fields when set.
	Sorting models.SortingList `json:"sorting,omitempty"`
}

// Result holds every projection of a run. Results may be shared between
// callers through the cache and must not be modified.
type Result struct {
	Fields   models.Fields  `json:"fields"`
	Rows     []types.Row    `json:"rows"`
	Filtered []types.Row    `json:"filtered"`
	Table    []types.Row    `json:"table"`
	Buckets  []chart.Bucket `json:"buckets"`
	Chart    chart.Chart    `json:"chart"`
}

type Pipeline struct {
	catalog     *catalog.Catalog
	transformer *transform.Transformer
	ttl         time.Duration
	cache       gocache.CacheInterface[*Result]
	flight      singleflight.Group
}

type Option func(*Pipeline)

// WithCacheTTL sets how long results are cached. A zero TTL disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Pipeline) { p.ttl = ttl }
}

// New builds a pipeline for the report types of the catalog.
func New(cat *catalog.Catalog, opts ...Option) (*Pipeline, error) {
	transformer, err := transform.New(cat.ReportTypes()...)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{catalog: cat, transformer: transformer, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(p)
	}
	if p.ttl > 0 {
		p.cache = cache.NewCache[*Result](p.ttl)
	}
	return p, nil
}

func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Run computes the table and chart projections of in. Identical concurrent
// runs share one computation.
func (p *Pipeline) Run(ctx context.Context, in Input) Result {
	ctx, span := ctx.StartSpan("pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("report_type", in.Report.Type),
		attribute.Int("items", len(in.Content)),
	)

	result := p.cached(ctx, in)
	span.SetAttributes(
		attribute.Int("rows", len(result.Rows)),
		attribute.Int("filtered", len(result.Filtered)),
	)
	return result
}

func (p *Pipeline) cached(ctx context.Context, in Input) Result {
	key, cacheable := p.key(in)
	if !cacheable {
		return p.run(ctx, in)
	}

	if cached, err := p.cache.Get(ctx, key); err == nil && cached != nil {
		ctx.Counter("report_pipeline_cache", "result", "hit").Add(1)
		return *cached
	}
	ctx.Counter("report_pipeline_cache", "result", "miss").Add(1)

	v, _, shared := p.flight.Do(key, func() (any, error) {
		result := p.run(ctx, in)
		if err := p.cache.Set(ctx, key, &result); err != nil {
			log.Warnf("failed to cache result of %s: %v", in.Report.Type, err)
		}
		return &result, nil
	})
	if shared {
		log.V(3).Infof("shared pipeline run for %s", in.Report.Type)
	}
	return *(v.(*Result))
}

func (p *Pipeline) key(in Input) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	hash, err := hashstructure.Hash(in, nil)
	if err != nil {
		log.V(2).Infof("input of %s is not hashable: %v", in.Report.Type, err)
		return "", false
	}
	return strconv.FormatUint(hash, 16), true
}

func (p *Pipeline) run(ctx context.Context, in Input) Result {
	histogram := ctx.Histogram("report_pipeline_duration", context.LatencyBuckets, "report_type", in.Report.Type, "stage", "")
	stage := func(name string) func() {
		start := time.Now()
		return func() { histogram.Label("stage", name).Since(start) }
	}

	done := stage("transform")
	rows := p.transformer.Flatten(in.Content, in.Report.Type)
	done()

	fields := p.annotate(in.Fields, rows)

	done = stage("filter")
	filtered := filter.ApplyGroups(rows, in.Filters)
	done()

	done = stage("sort")
	rules := sorting.RulesFromFields(fields)
	if len(in.Sorting) > 0 {
		rules = sorting.RulesFromSorting(in.Sorting, fields)
	}
	filtered = sorting.Sort(filtered, rules)
	done()

	done = stage("group")
	columns := grouping.ColumnsFromFields(fields)
	if in.Report.Meta != nil && len(in.Report.Meta.Grouping) > 0 {
		columns = grouping.ColumnsFromMeta(in.Report.Meta.Grouping)
	}
	table := grouping.Group(filtered, columns, grouping.WithSubtotals(grouping.SubtotalsEnabled(fields)))
	done()

	done = stage("chart")
	buckets := chart.FromFields(filtered, fields)
	series := chart.BuildSeries(chart.Kind(in.Report.ChartOrDefault()), buckets, fields.Grouping())
	done()

	ctx.Counter("report_pipeline_rows", "report_type", in.Report.Type).Add(len(rows))
	log.V(3).Infof("%s: %d items, %d rows, %d filtered, %d table rows, %d buckets",
		in.Report.Type, len(in.Content), len(rows), len(filtered), len(table), len(buckets))

	return Result{
		Fields:   fields,
		Rows:     rows,
		Filtered: filtered,
		Table:    table,
		Buckets:  buckets,
		Chart:    series,
	}
}

// annotate fills in data types from the catalog and infers those of entity
// types the catalog does not know.
func (p *Pipeline) annotate(fields models.Fields, rows []types.Row) models.Fields {
	fields = p.catalog.Annotate(fields)

	untyped := lo.Uniq(lo.FilterMap(fields, func(f models.Field, _ int) (string, bool) {
		return f.Type, f.DataType == ""
	}))
	if len(untyped) == 0 {
		return fields
	}

	cat := p.catalog
	for _, entityType := range untyped {
		if _, known := cat.Entity(entityType); known {
			continue
		}
		cat = cat.WithEntity(catalog.Infer(entityType, rows))
	}
	return cat.Annotate(fields)
}
