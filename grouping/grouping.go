package grouping

import (
	"slices"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

var log = logger.GetLogger("grouping")

// Synthetic keys added to grouped rows. Per level keys are suffixed with the
// grouping column key.
const (
	KeyIsSubtotal    = "_isSubtotal"
	KeySubtotalLevel = "_subtotalLevel"

	PrefixIsFirstInGroup = "_isFirstInGroup_"
	PrefixGroupSize      = "_groupSize_"
	PrefixGroupValue     = "_groupValue_"
	PrefixGroupKey       = "_groupKey_"
	PrefixIsSubtotal     = "_isSubtotal_"
	PrefixGroupAggregate = "_groupAggregate_"
)

// Column is one grouping level.
type Column struct {
	AccessorKey       string            `json:"accessorKey"`
	AggregationField  string            `json:"aggregationField,omitempty"`
	AggregationMethod types.Aggregation `json:"aggregationMethod,omitempty"`
}

type options struct {
	subtotals bool
}

type Option func(*options)

// WithSubtotals controls whether a subtotal row closes every bucket.
func WithSubtotals(enabled bool) Option {
	return func(o *options) { o.subtotals = enabled }
}

// Group partitions rows by each column in turn and returns them depth first
// with rowspan annotations and, optionally, subtotal rows. Buckets keep the
// order in which their key first appears. The input rows are not modified.
func Group(rows []types.Row, columns []Column, opts ...Option) []types.Row {
	o := options{subtotals: true}
	for _, opt := range opts {
		opt(&o)
	}
	if len(columns) == 0 {
		return types.CloneRows(rows)
	}
	return group(rows, columns, 0, o)
}

func group(rows []types.Row, columns []Column, level int, o options) []types.Row {
	if level >= len(columns) {
		return rows
	}

	col := columns[level]
	key := col.AccessorKey

	var order []string
	buckets := map[string][]types.Row{}
	for _, row := range expand(rows, key, types.NoGroupLabel) {
		label := types.Stringify(row[PrefixGroupValue+key])
		if _, ok := buckets[label]; !ok {
			order = append(order, label)
		}
		buckets[label] = append(buckets[label], row)
	}

	var result []types.Row
	for _, bucketKey := range order {
		items := buckets[bucketKey]
		grouped := group(items, columns, level+1, o)

		var aggregate *float64
		if col.AggregationField != "" {
			aggregate = lo.ToPtr(types.AggregateField(items, col.AggregationField, methodOrCount(col.AggregationMethod)))
		}

		for i, row := range grouped {
			row[PrefixIsFirstInGroup+key] = i == 0
			row[PrefixGroupSize+key] = len(grouped)
			if aggregate != nil {
				row[PrefixGroupAggregate+key] = *aggregate
			}
		}
		result = append(result, grouped...)

		if o.subtotals {
			subtotal := types.Row{
				PrefixIsSubtotal + key: true,
				PrefixGroupKey + key:   bucketKey,
				PrefixGroupSize + key:  len(grouped),
				KeyIsSubtotal:          true,
				KeySubtotalLevel:       level,
				key:                    bucketKey,
			}
			if aggregate != nil {
				subtotal[PrefixGroupAggregate+key] = *aggregate
			}
			for field, sum := range sums(items, key) {
				subtotal[field] = sum
			}
			result = append(result, subtotal)
		}
	}
	return result
}

// expand copies every row once per element of an array valued key. Empty
// arrays yield one copy labelled with the fallback.
func expand(rows []types.Row, key, fallback string) []types.Row {
	fallbackKey := ""
	if _, after, ok := strings.Cut(key, "_"); ok {
		fallbackKey = after
	}

	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		raw, present := row[key]
		usedFallback := false
		if !present && fallbackKey != "" {
			raw, present = row[fallbackKey]
			usedFallback = present
		}
		if !present {
			log.V(2).Infof("grouping key %s not found (fallback %s)", key, fallbackKey)
		}

		if items, ok := types.AsSlice(raw); ok {
			if len(items) == 0 {
				items = []any{fallback}
			}
			for _, item := range items {
				label := types.GroupLabel(item, fallback)
				expanded := row.Clone()
				expanded[key] = label
				expanded[PrefixGroupValue+key] = label
				out = append(out, expanded)
			}
			continue
		}

		label := types.GroupLabel(raw, fallback)
		expanded := row.Clone()
		if usedFallback || !present {
			expanded[key] = label
		}
		expanded[PrefixGroupValue+key] = label
		out = append(out, expanded)
	}
	return out
}

// sums adds up the numeric values of every data column except the bucket's
// own key. Columns without any numeric value are omitted.
func sums(rows []types.Row, key string) map[string]float64 {
	out := map[string]float64{}
	for _, row := range rows {
		for field, v := range row {
			if types.IsMetaKey(field) || field == key {
				continue
			}
			if n, ok := subtotalNumber(v); ok {
				out[field] += n
			}
		}
	}
	return out
}

// subtotalNumber accepts numbers and numeric text.
func subtotalNumber(v any) (float64, bool) {
	switch v.(type) {
	case string:
		return types.ToNumber(v)
	case bool:
		return 0, false
	}
	if types.IsNumber(v) {
		return types.ToNumber(v)
	}
	return 0, false
}

func methodOrCount(method types.Aggregation) types.Aggregation {
	if method.IsSet() {
		return method
	}
	return types.AggregationCount
}

// ColumnsFromFields returns one column per grouping field in column order.
// The first field designating an aggregation is aggregated on every level.
func ColumnsFromFields(fields models.Fields) []Column {
	aggregated, hasAggregation := fields.SortedByOrder().AggregationField()
	return lo.Map(fields.Grouping(), func(f models.Field, _ int) Column {
		col := Column{AccessorKey: f.Key()}
		if hasAggregation {
			col.AggregationField = aggregated.Key()
			col.AggregationMethod = aggregated.Aggregation
		}
		return col
	})
}

// ColumnsFromMeta returns the columns of a report level grouping definition.
func ColumnsFromMeta(meta []models.MetaGrouping) []Column {
	sorted := slices.Clone(meta)
	slices.SortStableFunc(sorted, func(a, b models.MetaGrouping) int { return a.Order - b.Order })
	return lo.Map(sorted, func(m models.MetaGrouping, _ int) Column {
		col := Column{AccessorKey: m.Key()}
		if m.Aggregate != nil {
			col.AggregationField = m.Aggregate.Field
			col.AggregationMethod = m.Aggregate.Method
		}
		return col
	})
}

// SubtotalsEnabled reports whether any field sums or counts.
func SubtotalsEnabled(fields models.Fields) bool {
	return lo.SomeBy(fields, func(f models.Field) bool {
		return f.Aggregation == types.AggregationSum || f.Aggregation == types.AggregationCount
	})
}

// IsSubtotal reports whether row is a synthetic subtotal row.
func IsSubtotal(row types.Row) bool {
	v, _ := row[KeyIsSubtotal].(bool)
	return v
}
