package chart

import (
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

var log = logger.GetLogger("chart")

// Bucket is one chart category. Primary buckets aggregate every row under
// their value; secondary buckets are nested under Parent.
type Bucket struct {
	Group          string      `json:"group"`
	Items          []types.Row `json:"items"`
	GroupAggregate *float64    `json:"groupAggregate"`
	IsPrimaryGroup bool        `json:"isPrimaryGroup"`
	Parent         string      `json:"parent,omitempty"`
}

type partition struct {
	order []string
	rows  map[string][]types.Row
}

func (p *partition) add(label string, row types.Row) {
	if p.rows == nil {
		p.rows = map[string][]types.Row{}
	}
	if _, ok := p.rows[label]; !ok {
		p.order = append(p.order, label)
	}
	p.rows[label] = append(p.rows[label], row)
}

// Aggregate buckets rows by up to two grouping keys. Without a primary key
// all rows form a single unaggregated bucket. Array values contribute the row
// to every element's bucket. Without an aggregation field each row counts as 1.
func Aggregate(rows []types.Row, primary, secondary, aggregationField string, method types.Aggregation) []Bucket {
	if primary == "" {
		return []Bucket{{Group: types.NoGroupLabel, Items: rows, IsPrimaryGroup: true}}
	}
	if !method.IsSet() {
		method = types.AggregationCount
	}

	var primaries partition
	secondaries := map[string]*partition{}
	for _, row := range rows {
		for _, p := range labels(row[primary], types.NoGroupLabel) {
			primaries.add(p, row)
			if secondary == "" {
				continue
			}
			if secondaries[p] == nil {
				secondaries[p] = &partition{}
			}
			for _, s := range labels(row[secondary], types.NoSubgroupLabel) {
				secondaries[p].add(s, row)
			}
		}
	}

	aggregate := func(items []types.Row) *float64 {
		return lo.ToPtr(types.AggregateField(items, aggregationField, method))
	}

	var out []Bucket
	for _, p := range primaries.order {
		items := primaries.rows[p]
		bucket := Bucket{Group: p, GroupAggregate: aggregate(items), IsPrimaryGroup: true}
		if secondary == "" {
			bucket.Items = items
			out = append(out, bucket)
			continue
		}

		bucket.Items = []types.Row{}
		out = append(out, bucket)
		sub := secondaries[p]
		for _, s := range sub.order {
			out = append(out, Bucket{
				Group:          s,
				Items:          sub.rows[s],
				GroupAggregate: aggregate(sub.rows[s]),
				Parent:         p,
			})
		}
	}
	log.V(4).Infof("aggregated %d rows into %d buckets by %s/%s (%s of %q)", len(rows), len(out), primary, secondary, method, aggregationField)
	return out
}

// FromFields buckets rows by the first two grouping fields in column order,
// aggregating the first field that designates an aggregation.
func FromFields(rows []types.Row, fields models.Fields) []Bucket {
	grouping := fields.Grouping()
	var primary, secondary string
	if len(grouping) > 0 {
		primary = grouping[0].Key()
	}
	if len(grouping) > 1 {
		secondary = grouping[1].Key()
	}

	var field string
	method := types.AggregationCount
	if f, ok := fields.SortedByOrder().AggregationField(); ok {
		field = f.Key()
		method = f.Aggregation
	}
	return Aggregate(rows, primary, secondary, field, method)
}

func labels(v any, fallback string) []string {
	items, ok := types.AsSlice(v)
	if !ok {
		return []string{types.GroupLabel(v, fallback)}
	}
	if len(items) == 0 {
		return []string{fallback}
	}
	return lo.Map(items, func(item any, _ int) string { return types.GroupLabel(item, fallback) })
}

// Primaries returns the primary buckets in order.
func Primaries(buckets []Bucket) []Bucket {
	return lo.Filter(buckets, func(b Bucket, _ int) bool { return b.IsPrimaryGroup })
}

// Children returns the secondary buckets nested under parent.
func Children(buckets []Bucket, parent string) []Bucket {
	return lo.Filter(buckets, func(b Bucket, _ int) bool { return !b.IsPrimaryGroup && b.Parent == parent })
}
