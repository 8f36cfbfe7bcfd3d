package chart

import (
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

type Kind string

const (
	KindBar     Kind = "bar"
	KindPie     Kind = "pie"
	KindTreemap Kind = "treemap"
)

var Kinds = []Kind{KindBar, KindPie, KindTreemap}

// DefaultSeriesName names the single series of an ungrouped chart.
const DefaultSeriesName = "Wert"

const maxLabelLength = 25

// Point is one value of a series. Treemap points nest their secondary values.
type Point struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Children []Point `json:"children,omitempty"`
}

type Series struct {
	Name string  `json:"name"`
	Type Kind    `json:"type"`
	Data []Point `json:"data"`
}

// Chart is the renderer independent description of a chart.
type Chart struct {
	Kind       Kind     `json:"kind"`
	Categories []string `json:"categories,omitempty"`
	Legend     []string `json:"legend,omitempty"`
	Series     []Series `json:"series"`
}

// Truncate shortens category labels longer than 25 characters.
func Truncate(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelLength {
		return label
	}
	return string(runes[:maxLabelLength]) + "..."
}

func value(b Bucket) float64 {
	if b.GroupAggregate == nil {
		return 0
	}
	return *b.GroupAggregate
}

func lookup(buckets []Bucket, parent, group string) float64 {
	b, ok := lo.Find(buckets, func(b Bucket) bool {
		return !b.IsPrimaryGroup && b.Parent == parent && b.Group == group
	})
	if !ok {
		return 0
	}
	return value(b)
}

// BuildSeries lays out buckets for the chart kind. With two grouping fields
// bar charts get one series per secondary value across the primary
// categories and pie charts one series per primary value.
func BuildSeries(kind Kind, buckets []Bucket, groupingFields models.Fields) Chart {
	if !lo.Contains(Kinds, kind) {
		kind = Kind(models.DefaultChart)
	}

	if kind == KindTreemap {
		return treemap(buckets, groupingFields)
	}

	primaries := lo.Uniq(lo.Map(Primaries(buckets), func(b Bucket, _ int) string { return b.Group }))
	secondaries := lo.Uniq(lo.FilterMap(buckets, func(b Bucket, _ int) (string, bool) {
		return b.Group, !b.IsPrimaryGroup
	}))

	if len(groupingFields) > 1 {
		switch kind {
		case KindPie:
			return Chart{
				Kind:   kind,
				Legend: secondaries,
				Series: lo.Map(primaries, func(p string, _ int) Series {
					return Series{Name: p, Type: kind, Data: lo.Map(secondaries, func(s string, _ int) Point {
						return Point{Name: s, Value: lookup(buckets, p, s)}
					})}
				}),
			}
		default:
			return Chart{
				Kind:       kind,
				Categories: lo.Map(primaries, func(p string, _ int) string { return Truncate(p) }),
				Legend:     secondaries,
				Series: lo.Map(secondaries, func(s string, _ int) Series {
					return Series{Name: s, Type: kind, Data: lo.Map(primaries, func(p string, _ int) Point {
						return Point{Name: p, Value: lookup(buckets, p, s)}
					})}
				}),
			}
		}
	}

	points := lo.Map(buckets, func(b Bucket, _ int) Point {
		return Point{Name: lo.CoalesceOrEmpty(b.Group, types.NoGroupLabel), Value: value(b)}
	})
	out := Chart{
		Kind:   kind,
		Series: []Series{{Name: seriesName(groupingFields), Type: kind, Data: points}},
	}
	if kind == KindBar {
		out.Categories = lo.Map(points, func(p Point, _ int) string { return Truncate(p.Name) })
	}
	return out
}

func treemap(buckets []Bucket, groupingFields models.Fields) Chart {
	points := lo.Map(Primaries(buckets), func(p Bucket, _ int) Point {
		return Point{
			Name:  p.Group,
			Value: value(p),
			Children: lo.Map(Children(buckets, p.Group), func(c Bucket, _ int) Point {
				return Point{Name: c.Group, Value: value(c)}
			}),
		}
	})
	return Chart{
		Kind:   KindTreemap,
		Series: []Series{{Name: seriesName(groupingFields), Type: KindTreemap, Data: points}},
	}
}

func seriesName(groupingFields models.Fields) string {
	if len(groupingFields) == 0 {
		return DefaultSeriesName
	}
	return lo.CoalesceOrEmpty(groupingFields[0].Field, DefaultSeriesName)
}
