package report

import (
	"slices"

	"github.com/samber/lo"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/sorting"
	"github.com/flanksource/reports/types"
)

type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// ColumnOrder assigns a new column position to a display field.
type ColumnOrder struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
}

func indexOf(fields models.Fields, key string) (int, error) {
	i := fields.IndexOf(key)
	if i < 0 {
		return -1, api.Errorf(api.ENOTFOUND, "field %s is not displayed", key)
	}
	return i, nil
}

// GroupByColumn toggles grouping of a column and moves grouped columns to the
// front, keeping the relative order of both partitions.
func GroupByColumn(fields models.Fields, key string) (models.Fields, error) {
	i, err := indexOf(fields, key)
	if err != nil {
		return nil, err
	}
	out := fields.Clone()
	out[i].Grouping = !out[i].Grouping
	return groupedFirst(out, nil), nil
}

// SortByColumn sets the sort direction of a column.
func SortByColumn(fields models.Fields, key string, direction types.SortDirection) (models.Fields, error) {
	if !direction.Valid() {
		return nil, api.Errorf(api.EINVALID, "invalid sort direction %q", direction)
	}
	i, err := indexOf(fields, key)
	if err != nil {
		return nil, err
	}
	out := fields.Clone()
	out[i].Sort = direction
	return out, nil
}

// ReorderColumns applies new column positions and returns the fields ordered
// by position, re-sequenced to 0..n-1. Fields not named keep their position.
func ReorderColumns(fields models.Fields, order []ColumnOrder) models.Fields {
	out := fields.Clone()
	for _, o := range order {
		if i := out.IndexOf(o.Key); i >= 0 {
			out[i].Order = o.Order
		}
	}
	return out.SortedByOrder().Reindex()
}

// AddField appends a visible field at the end of the column list.
func AddField(fields models.Fields, entityType string, fc models.FieldConfig) (models.Fields, error) {
	key := types.ColumnKey(entityType, fc.Value)
	if fields.IndexOf(key) >= 0 {
		return nil, api.Errorf(api.ECONFLICT, "field %s is already displayed", key)
	}
	return append(fields.SortedByOrder(), models.Field{
		Field:       fc.Value,
		Type:        entityType,
		DataType:    fc.DataType,
		Visible:     true,
		Aggregation: types.AggregationNone,
	}).Reindex(), nil
}

func RemoveField(fields models.Fields, key string) (models.Fields, error) {
	i, err := indexOf(fields, key)
	if err != nil {
		return nil, err
	}
	return slices.Delete(fields.Clone(), i, i+1).SortedByOrder().Reindex(), nil
}

// AddSort sorts the first candidate column that is not sorted yet ascending,
// after all existing sort rules.
func AddSort(fields models.Fields, candidates []string) (models.Fields, error) {
	rules := sorting.RulesFromFields(fields)
	used := lo.Map(rules, func(r sorting.Rule, _ int) string { return r.Field })

	next, ok := lo.Find(candidates, func(key string) bool {
		return !lo.Contains(used, key) && fields.IndexOf(key) >= 0
	})
	if !ok {
		return nil, api.Errorf(api.ECONFLICT, "every column is sorted already")
	}

	out := fields.Clone()
	i := out.IndexOf(next)
	out[i].Sort = types.SortAsc
	out[i].SortOrder = lo.ToPtr(len(rules))
	return sorting.ReindexSortOrders(out), nil
}

func RemoveSort(fields models.Fields, key string) (models.Fields, error) {
	i, err := indexOf(fields, key)
	if err != nil {
		return nil, err
	}
	out := fields.Clone()
	out[i].Sort = ""
	out[i].SortOrder = nil
	return sorting.ReindexSortOrders(out), nil
}

func ClearSort(fields models.Fields) models.Fields {
	out := fields.Clone()
	for i := range out {
		out[i].Sort = ""
		out[i].SortOrder = nil
	}
	return out
}

// UpdateSortField moves a sort rule to another column, keeping its direction
// and priority.
func UpdateSortField(fields models.Fields, current, next string) (models.Fields, error) {
	if current == next {
		return fields.Clone(), nil
	}
	from, err := indexOf(fields, current)
	if err != nil {
		return nil, err
	}
	to, err := indexOf(fields, next)
	if err != nil {
		return nil, err
	}
	if fields[from].Sort == "" {
		return nil, api.Errorf(api.EINVALID, "field %s is not sorted", current)
	}

	out := fields.Clone()
	out[to].Sort = out[from].Sort
	out[to].SortOrder = lo.ToPtr(out[from].EffectiveSortOrder())
	out[from].Sort = ""
	out[from].SortOrder = nil
	return sorting.ReindexSortOrders(out), nil
}

func UpdateSortDirection(fields models.Fields, key string, direction types.SortDirection) (models.Fields, error) {
	return SortByColumn(fields, key, direction)
}

func AddGrouping(fields models.Fields, key string) (models.Fields, error) {
	return setGrouping(fields, key, true)
}

func RemoveGrouping(fields models.Fields, key string) (models.Fields, error) {
	return setGrouping(fields, key, false)
}

func setGrouping(fields models.Fields, key string, grouping bool) (models.Fields, error) {
	i, err := indexOf(fields, key)
	if err != nil {
		return nil, err
	}
	out := fields.Clone()
	out[i].Grouping = grouping
	return groupedFirst(out, nil), nil
}

func ClearGrouping(fields models.Fields) models.Fields {
	out := fields.Clone()
	for i := range out {
		out[i].Grouping = false
	}
	return groupedFirst(out, nil)
}

// MoveGrouping swaps a grouping column with its neighbour. Moving past
// either end leaves the fields unchanged.
func MoveGrouping(fields models.Fields, key string, direction MoveDirection) (models.Fields, error) {
	grouped := fields.Grouping().Keys()
	current := slices.Index(grouped, key)
	if current < 0 {
		return nil, api.Errorf(api.ENOTFOUND, "field %s is not grouped", key)
	}

	target := current + 1
	if direction == MoveUp {
		target = current - 1
	}
	if target < 0 || target >= len(grouped) {
		return fields.Clone(), nil
	}
	grouped[current], grouped[target] = grouped[target], grouped[current]
	return groupedFirst(fields.Clone(), grouped), nil
}

// groupedFirst orders grouping columns before the others and reindexes the
// column order. groupedOrder overrides the order of the grouping columns.
func groupedFirst(fields models.Fields, groupedOrder []string) models.Fields {
	grouped := lo.Filter(fields.SortedByOrder(), func(f models.Field, _ int) bool { return f.Grouping })
	rest := lo.Filter(fields.SortedByOrder(), func(f models.Field, _ int) bool { return !f.Grouping })
	if groupedOrder != nil {
		slices.SortStableFunc(grouped, func(a, b models.Field) int {
			return slices.Index(groupedOrder, a.Key()) - slices.Index(groupedOrder, b.Key())
		})
	}
	return append(grouped, rest...).Reindex()
}

// ChartAggregation makes key the only summed field. An empty key clears the
// aggregation of every field.
func ChartAggregation(fields models.Fields, key string) (models.Fields, error) {
	if key != "" {
		if _, err := indexOf(fields, key); err != nil {
			return nil, err
		}
	}
	out := fields.Clone()
	for i := range out {
		out[i].Aggregation = lo.Ternary(out[i].Key() == key, types.AggregationSum, types.AggregationNone)
	}
	return out, nil
}
