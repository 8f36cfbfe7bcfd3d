package types

import (
	"maps"
	"strings"
)

const (
	// NoGroupLabel is the group label of rows without a value.
	NoGroupLabel = "Ohne Gruppe"

	// NoSubgroupLabel is the secondary group label of rows without a value.
	NoSubgroupLabel = "Ohne Untergruppe"

	// MetaPrefix marks synthetic keys added by the pipeline.
	MetaPrefix = "_"
)

// Row is one flattened report row keyed by composite column keys.
type Row map[string]any

func (r Row) Clone() Row {
	if r == nil {
		return Row{}
	}
	return maps.Clone(r)
}

// Get returns the value of key and whether it is present.
func (r Row) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Data returns a copy without synthetic keys.
func (r Row) Data() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if !IsMetaKey(k) {
			out[k] = v
		}
	}
	return out
}

func IsMetaKey(key string) bool {
	return strings.HasPrefix(key, MetaPrefix)
}

// ColumnKey builds the composite key of a flattened column.
// It is the only place that joins an entity type and a field name.
func ColumnKey(entityType, field string) string {
	return entityType + "_" + field
}

// Rows converts decoded JSON objects into rows without copying.
func Rows(items []map[string]any) []Row {
	out := make([]Row, 0, len(items))
	for _, item := range items {
		out = append(out, Row(item))
	}
	return out
}

// CloneRows returns a shallow copy of each row.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
