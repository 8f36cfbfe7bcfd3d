package report

import (
	"strings"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/chart"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/filter"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/types"
)

var (
	log  = logger.GetLogger("report")
	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// DefaultDebounce is how long filter edits are collected before they are
// persisted.
const DefaultDebounce = 300 * time.Millisecond

// State is the host supplied state of a report view.
type State struct {
	Report      models.Report       `json:"report"`
	Content     []any               `json:"content,omitempty"`
	Fields      models.Fields       `json:"fields"`
	Filters     models.FilterGroups `json:"filters,omitempty"`
	Sorting     models.SortingList  `json:"sorting,omitempty"`
	Chart       string              `json:"chart,omitempty"`
	DataSources []models.DataSource `json:"dataSources,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Fields = s.Fields.Clone()
	out.Filters = lo.Map(s.Filters, func(g models.FilterGroup, _ int) models.FilterGroup { return g.Clone() })
	out.Sorting = append(models.SortingList{}, s.Sorting...)
	return out
}

// Session holds the state of one report view. Changes other than filter
// edits are applied only after the host has persisted them. Filter edits are
// applied at once and persisted after a quiet period.
type Session struct {
	ctx       context.Context
	pipeline  *pipeline.Pipeline
	callbacks Callbacks
	debounce  time.Duration

	mu         sync.Mutex
	state      State
	pending    models.FilterGroups
	hasPending bool
	generation int
	timer      *time.Timer
	closed     bool
}

type Option func(*Session)

func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

func New(ctx context.Context, p *pipeline.Pipeline, state State, callbacks Callbacks, opts ...Option) *Session {
	s := &Session{
		ctx:       ctx.WithReport(state.Report.ID),
		pipeline:  p,
		callbacks: callbacks,
		debounce:  ctx.Properties().Duration("reports.filters.debounce", DefaultDebounce),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.normalize(state.clone())
	return s
}

func (s *Session) catalog() *catalog.Catalog {
	return s.pipeline.Catalog()
}

func (s *Session) normalize(state State) State {
	if state.Fields == nil {
		state.Fields = models.Fields{}
	}
	state.Chart = lo.CoalesceOrEmpty(state.Chart, state.Report.ChartOrDefault())
	state.Filters = s.withDefaultRange(state, state.Filters)
	return state
}

// withDefaultRange injects the open range filter on the configured range
// field when there are no filters.
func (s *Session) withDefaultRange(state State, groups models.FilterGroups) models.FilterGroups {
	if len(groups) > 0 {
		return groups
	}
	if field := s.catalog().DefaultRangeField(state.Report.Type, state.Fields); field != "" {
		return filter.DefaultRangeGroups(field)
	}
	return models.FilterGroups{}
}

func (s *Session) isDefaultRange(state State) filter.IsDefaultRange {
	return filter.DefaultRange(s.catalog().DefaultRangeField(state.Report.Type, state.Fields))
}

func (s *Session) scope(ctx context.Context) context.Context {
	if ctx.ReportID() != "" {
		return ctx
	}
	return ctx.WithReport(s.state.Report.ID)
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Update replaces the state after the host refetched it. Local filters are
// kept while a filter write is pending.
func (s *Session) Update(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := state.clone()
	if s.hasPending {
		next.Filters = s.state.Filters
	}
	s.state = s.normalize(next)
}

// Render runs the pipeline on the current state.
func (s *Session) Render(ctx context.Context) pipeline.Result {
	s.mu.Lock()
	in := pipeline.Input{
		Report:  s.state.Report,
		Content: s.state.Content,
		Fields:  s.state.Fields.Clone(),
		Filters: s.state.clone().Filters,
		Sorting: s.state.Sorting,
	}
	in.Report.Chart = s.state.Chart
	s.mu.Unlock()

	return s.pipeline.Run(s.scope(ctx), in)
}

// ArrayFilterOptions lists the values an array filter on key can select.
func (s *Session) ArrayFilterOptions(ctx context.Context, key string) []string {
	return catalog.ArrayFilterOptions(s.Render(ctx).Rows, key)
}

// AvailableFields lists the catalog entries of the displayed fields.
func (s *Session) AvailableFields() []catalog.AvailableField {
	return s.catalog().AvailableFields(s.State().Fields)
}

func (s *Session) applyFields(ctx context.Context, operation string, compute func(models.Fields) (models.Fields, error)) (bool, error) {
	next, err := compute(s.State().Fields)
	if err != nil {
		return false, err
	}
	if s.callbacks.UpdateFields == nil {
		return false, unsupported(operation)
	}

	ctx = s.scope(ctx)
	ok, err := persist(ctx, operation, func() (bool, error) { return s.callbacks.UpdateFields(ctx, next) })
	if !ok {
		return false, err
	}

	s.mu.Lock()
	s.state.Fields = next
	s.state.Filters = s.withDefaultRange(s.state, s.state.Filters)
	s.mu.Unlock()

	notify(s.callbacks.Refetch)
	return true, nil
}

func (s *Session) GroupByColumn(ctx context.Context, key string) (bool, error) {
	return s.applyFields(ctx, "group_by_column", func(f models.Fields) (models.Fields, error) {
		return GroupByColumn(f, key)
	})
}

func (s *Session) SortByColumn(ctx context.Context, key string, direction types.SortDirection) (bool, error) {
	return s.applyFields(ctx, "sort_by_column", func(f models.Fields) (models.Fields, error) {
		return SortByColumn(f, key, direction)
	})
}

func (s *Session) ReorderColumns(ctx context.Context, order []ColumnOrder) (bool, error) {
	return s.applyFields(ctx, "reorder_columns", func(f models.Fields) (models.Fields, error) {
		return ReorderColumns(f, order), nil
	})
}

// SetFields replaces the display fields.
func (s *Session) SetFields(ctx context.Context, fields models.Fields) (bool, error) {
	return s.applyFields(ctx, "update_fields", func(models.Fields) (models.Fields, error) {
		return fields.Clone(), nil
	})
}

// AddField displays a catalog field of an entity type the report carries.
func (s *Session) AddField(ctx context.Context, entityType, field string) (bool, error) {
	state := s.State()
	if entities := s.catalog().EntitiesFor(state.Report.Type); len(entities) > 0 && !lo.Contains(entities, entityType) {
		return false, api.Errorf(api.EINVALID, "report type %s does not carry %s fields", state.Report.Type, entityType)
	}
	fc, ok := lo.Find(s.catalog().FieldsFor(entityType), func(fc models.FieldConfig) bool { return fc.Value == field })
	if !ok {
		return false, api.Errorf(api.ENOTFOUND, "unknown field %s", types.ColumnKey(entityType, field))
	}
	return s.applyFields(ctx, "add_field", func(f models.Fields) (models.Fields, error) {
		return AddField(f, entityType, fc)
	})
}

func (s *Session) RemoveField(ctx context.Context, key string) (bool, error) {
	return s.applyFields(ctx, "remove_field", func(f models.Fields) (models.Fields, error) {
		return RemoveField(f, key)
	})
}

func (s *Session) AddSort(ctx context.Context) (bool, error) {
	return s.applyFields(ctx, "add_sort", func(f models.Fields) (models.Fields, error) {
		candidates := lo.Map(s.catalog().AvailableFields(f), func(af catalog.AvailableField, _ int) string { return af.Value })
		return AddSort(f, lo.Uniq(append(candidates, f.SortedByOrder().Keys()...)))
	})
}

func (s *Session) RemoveSort(ctx context.Context, key string) (bool, error) {
	return s.applyFields(ctx, "remove_sort", func(f models.Fields) (models.Fields, error) {
		return RemoveSort(f, key)
	})
}

func (s *Session) ClearSort(ctx context.Context) (bool, error) {
	return s.applyFields(ctx, "clear_sort", func(f models.Fields) (models.Fields, error) {
		return ClearSort(f), nil
	})
}

func (s *Session) UpdateSortField(ctx context.Context, current, next string) (bool, error) {
	return s.applyFields(ctx, "update_sort_field", func(f models.Fields) (models.Fields, error) {
		return UpdateSortField(f, current, next)
	})
}

func (s *Session) UpdateSortDirection(ctx context.Context, key string, direction types.SortDirection) (bool, error) {
	return s.applyFields(ctx, "update_sort_direction", func(f models.Fields) (models.Fields, error) {
		return UpdateSortDirection(f, key, direction)
	})
}

func (s *Session) AddGrouping(ctx context.Context, key string) (bool, error) {
	return s.applyFields(ctx, "add_grouping", func(f models.Fields) (models.Fields, error) {
		return AddGrouping(f, key)
	})
}

func (s *Session) RemoveGrouping(ctx context.Context, key string) (bool, error) {
	return s.applyFields(ctx, "remove_grouping", func(f models.Fields) (models.Fields, error) {
		return RemoveGrouping(f, key)
	})
}

func (s *Session) ClearGrouping(ctx context.Context) (bool, error) {
	return s.applyFields(ctx, "clear_grouping", func(f models.Fields) (models.Fields, error) {
		return ClearGrouping(f), nil
	})
}

func (s *Session) MoveGrouping(ctx context.Context, key string, direction MoveDirection) (bool, error) {
	return s.applyFields(ctx, "move_grouping", func(f models.Fields) (models.Fields, error) {
		return MoveGrouping(f, key, direction)
	})
}

// SetChart switches the chart kind.
func (s *Session) SetChart(ctx context.Context, kind string) (bool, error) {
	if !lo.Contains(chart.Kinds, chart.Kind(kind)) {
		return false, api.Errorf(api.EINVALID, "unknown chart %q", kind)
	}
	return s.updateChart(ctx, "update_chart", kind, s.State().Fields)
}

// SetChartAggregation sums key in the chart and clears every other
// aggregation.
func (s *Session) SetChartAggregation(ctx context.Context, key string) (bool, error) {
	state := s.State()
	fields, err := ChartAggregation(state.Fields, key)
	if err != nil {
		return false, err
	}
	return s.updateChart(ctx, "update_chart_aggregation", state.Chart, fields)
}

func (s *Session) updateChart(ctx context.Context, operation, kind string, fields models.Fields) (bool, error) {
	if s.callbacks.UpdateChart == nil {
		return false, unsupported(operation)
	}
	ctx = s.scope(ctx)
	ok, err := persist(ctx, operation, func() (bool, error) { return s.callbacks.UpdateChart(ctx, kind, fields) })
	if !ok {
		return false, err
	}

	s.mu.Lock()
	s.state.Chart = kind
	s.state.Report.Chart = kind
	s.state.Fields = fields
	s.mu.Unlock()

	notify(s.callbacks.Refetch)
	return true, nil
}

// UpdateTitle renames the report. An unchanged title is not persisted.
func (s *Session) UpdateTitle(ctx context.Context, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == s.State().Report.Title {
		return true, nil
	}
	if s.callbacks.UpdateTitle == nil {
		return false, unsupported("update_title")
	}
	ctx = s.scope(ctx)
	ok, err := persist(ctx, "update_title", func() (bool, error) { return s.callbacks.UpdateTitle(ctx, title) })
	if !ok {
		return false, err
	}

	s.mu.Lock()
	s.state.Report.Title = title
	s.mu.Unlock()

	notify(s.callbacks.Refetch)
	return true, nil
}

// UpdateConditions selects the values of a data source as the report
// conditions and asks the host to reload the content.
func (s *Session) UpdateConditions(ctx context.Context, sourceID string, values []string) (bool, error) {
	state := s.State()
	source, ok := lo.Find(state.DataSources, func(d models.DataSource) bool { return d.ID == sourceID })
	if !ok {
		return false, api.Errorf(api.ENOTFOUND, "unknown data source %s", sourceID)
	}

	var selected []string
	for _, v := range values {
		if !source.HasOption(v) {
			return false, api.Errorf(api.EINVALID, "%s is not an option of %s", v, sourceID)
		}
		selected = source.Select(selected, v)
	}
	conditions, err := source.Conditions(selected)
	if err != nil {
		return false, api.Wrap(api.EINTERNAL, err, "failed to encode conditions")
	}

	if s.callbacks.UpdateConditions == nil {
		return false, unsupported("update_conditions")
	}
	ctx = s.scope(ctx)
	ok, err = persist(ctx, "update_conditions", func() (bool, error) { return s.callbacks.UpdateConditions(ctx, conditions) })
	if !ok {
		return false, err
	}

	s.mu.Lock()
	s.state.Report.Conditions = conditions
	s.mu.Unlock()

	notify(s.callbacks.Refetch)
	notify(s.callbacks.RefetchContent)
	return true, nil
}

// SelectedConditions returns the data source and values encoded in the
// report conditions.
func (s *Session) SelectedConditions() (string, []string) {
	state := s.State()
	if state.Report.Conditions == "" {
		return "", nil
	}

	var conditions []models.Condition
	if err := json.Unmarshal([]byte(state.Report.Conditions), &conditions); err != nil {
		log.V(2).Infof("report %s has unreadable conditions: %v", state.Report.ID, err)
		return "", nil
	}

	for _, source := range state.DataSources {
		values := lo.FilterMap(conditions, func(c models.Condition, _ int) (string, bool) {
			return c.Value, c.Key == source.ConditionKey
		})
		if len(values) == 0 {
			continue
		}
		if source.Selection == models.SelectionSingle {
			values = values[:1]
		}
		return source.ID, values
	}
	return "", nil
}

func (s *Session) UpdateSorting(ctx context.Context, sorting models.SortingList) (bool, error) {
	if s.callbacks.UpdateSorting == nil {
		return false, unsupported("update_sorting")
	}
	ctx = s.scope(ctx)
	ok, err := persist(ctx, "update_sorting", func() (bool, error) { return s.callbacks.UpdateSorting(ctx, sorting) })
	if !ok {
		return false, err
	}

	s.mu.Lock()
	s.state.Sorting = append(models.SortingList{}, sorting...)
	s.mu.Unlock()

	notify(s.callbacks.Refetch)
	return true, nil
}

// Delete deletes the report on the host and closes the session.
func (s *Session) Delete(ctx context.Context) (bool, error) {
	if s.callbacks.Delete == nil {
		return false, unsupported("delete")
	}
	ctx = s.scope(ctx)
	ok, err := persist(ctx, "delete", func() (bool, error) { return s.callbacks.Delete(ctx) })
	if !ok {
		return false, err
	}
	s.Close()
	notify(s.callbacks.NavigateBack)
	return true, nil
}
