package filter

import (
	"slices"

	"github.com/flanksource/commons/collections/set"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// Add appends f. The input slice is never modified.
func Add(filters []models.Filter, f models.Filter) []models.Filter {
	out := make([]models.Filter, 0, len(filters)+1)
	out = append(out, filters...)
	return append(out, f)
}

// Remove drops the filter at index. Out of range indexes return a copy.
func Remove(filters []models.Filter, index int) []models.Filter {
	if index < 0 || index >= len(filters) {
		return slices.Clone(filters)
	}
	return slices.Delete(slices.Clone(filters), index, index+1)
}

// UpdateOperator replaces the operator at index and resets its value.
func UpdateOperator(filters []models.Filter, index int, op types.Operator) []models.Filter {
	out := slices.Clone(filters)
	if index >= 0 && index < len(out) {
		out[index].Operator = op
		out[index].Value = op.InitialValue()
	}
	return out
}

func UpdateValue(filters []models.Filter, index int, value string) []models.Filter {
	out := slices.Clone(filters)
	if index >= 0 && index < len(out) {
		out[index].Value = value
	}
	return out
}

// SelectedFields returns the keys that already carry a filter.
func SelectedFields(filters []models.Filter) set.Set[string] {
	s := set.New[string]()
	for _, f := range filters {
		s.Add(f.Field)
	}
	return s
}
