package models

import (
	"database/sql/driver"
	"slices"

	"github.com/samber/lo"

	"github.com/flanksource/reports/types"
)

// Field is a display field: a column selected for the report.
// Identity is (Type, Field).
type Field struct {
	Field       string              `json:"field" yaml:"field"`
	Type        string              `json:"type" yaml:"type"`
	Visible     bool                `json:"visible" yaml:"visible"`
	Order       int                 `json:"order" yaml:"order"`
	Width       *float64            `json:"width,omitempty" yaml:"width,omitempty"`
	DataType    types.DataType      `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Grouping    bool                `json:"grouping,omitempty" yaml:"grouping,omitempty"`
	Aggregation types.Aggregation   `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Sort        types.SortDirection `json:"sort,omitempty" yaml:"sort,omitempty"`
	SortOrder   *int                `json:"sortOrder,omitempty" yaml:"sortOrder,omitempty"`
}

// Key is the composite column key of the field in a flattened row.
func (f Field) Key() string {
	return types.ColumnKey(f.Type, f.Field)
}

func (f Field) Is(entityType, field string) bool {
	return f.Type == entityType && f.Field == field
}

// EffectiveSortOrder falls back to the column order when no sort order is set.
func (f Field) EffectiveSortOrder() int {
	if f.SortOrder != nil {
		return *f.SortOrder
	}
	return f.Order
}

type Fields []Field

func (fs Fields) Clone() Fields {
	return slices.Clone(fs)
}

func (fs Fields) IndexOf(key string) int {
	return slices.IndexFunc(fs, func(f Field) bool { return f.Key() == key })
}

func (fs Fields) ByKey(key string) (Field, bool) {
	return lo.Find(fs, func(f Field) bool { return f.Key() == key })
}

func (fs Fields) Keys() []string {
	return lo.Map(fs, func(f Field, _ int) string { return f.Key() })
}

// SortedByOrder returns a copy ordered by Order, stable for ties.
func (fs Fields) SortedByOrder() Fields {
	out := fs.Clone()
	slices.SortStableFunc(out, func(a, b Field) int { return a.Order - b.Order })
	return out
}

// Visible returns the visible fields in column order.
func (fs Fields) Visible() Fields {
	return lo.Filter(fs.SortedByOrder(), func(f Field, _ int) bool { return f.Visible })
}

// Grouping returns the grouping fields in column order.
func (fs Fields) Grouping() Fields {
	return lo.Filter(fs.SortedByOrder(), func(f Field, _ int) bool { return f.Grouping })
}

// Reindex re-sequences Order to 0..n-1 in slice order.
func (fs Fields) Reindex() Fields {
	out := fs.Clone()
	for i := range out {
		out[i].Order = i
	}
	return out
}

// AggregationField returns the first field that designates an aggregation.
func (fs Fields) AggregationField() (Field, bool) {
	return lo.Find(fs, func(f Field) bool { return f.Aggregation.IsSet() })
}

func (fs Fields) Value() (driver.Value, error) {
	return types.GenericStructValue(fs, true)
}

func (fs *Fields) Scan(val any) error {
	return types.GenericStructScan(fs, val)
}
