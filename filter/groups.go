package filter

import (
	"slices"

	"github.com/flanksource/commons/collections/set"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// IsDefaultRange reports whether a filter is the system injected range filter.
type IsDefaultRange func(models.Filter) bool

// DefaultRange matches the between filter on field. An empty field matches nothing.
func DefaultRange(field string) IsDefaultRange {
	return func(f models.Filter) bool {
		return field != "" && f.Field == field && f.Operator == types.OperatorBetween
	}
}

// DefaultRangeGroups is the filter state of a report without filters that
// has a default range field.
func DefaultRangeGroups(field string) models.FilterGroups {
	return models.FilterGroups{{
		Filters:    []models.Filter{{Field: field, Operator: types.OperatorBetween, Value: types.RangeSeparator}},
		Connectors: []models.Connector{},
	}}
}

// normalize joins every group with AND connectors and drops empty groups.
func normalize(groups models.FilterGroups) models.FilterGroups {
	out := make(models.FilterGroups, 0, len(groups))
	for _, g := range groups {
		if len(g.Filters) == 0 {
			continue
		}
		g.Connectors = make([]models.Connector, len(g.Filters)-1)
		for i := range g.Connectors {
			g.Connectors[i] = models.ConnectorAnd
		}
		out = append(out, g)
	}
	return out
}

// AddToGroups appends f to the last group, or starts a new group when there
// is none or the last one holds only the default range filter.
func AddToGroups(groups models.FilterGroups, f models.Filter, isDefaultRange IsDefaultRange) models.FilterGroups {
	out := cloneGroups(groups)

	if len(out) == 0 {
		return normalize(append(out, models.FilterGroup{Filters: []models.Filter{f}}))
	}

	last := &out[len(out)-1]
	if len(last.Filters) == 1 && isDefaultRange != nil && isDefaultRange(last.Filters[0]) {
		return normalize(append(out, models.FilterGroup{Filters: []models.Filter{f}}))
	}

	last.Filters = append(last.Filters, f)
	return normalize(out)
}

// RemoveFromGroups drops a filter together with its adjacent connector.
// Groups left empty are removed.
func RemoveFromGroups(groups models.FilterGroups, groupIndex, filterIndex int) models.FilterGroups {
	out := cloneGroups(groups)
	if !inRange(out, groupIndex, filterIndex) {
		return out
	}

	g := &out[groupIndex]
	g.Filters = slices.Delete(g.Filters, filterIndex, filterIndex+1)

	connector := filterIndex - 1
	if filterIndex == 0 {
		connector = 0
	}
	if connector >= 0 && connector < len(g.Connectors) {
		g.Connectors = slices.Delete(g.Connectors, connector, connector+1)
	}

	return normalize(out)
}

// UpdateOperatorInGroups replaces the operator of one filter and resets its value.
func UpdateOperatorInGroups(groups models.FilterGroups, groupIndex, filterIndex int, op types.Operator) models.FilterGroups {
	out := cloneGroups(groups)
	if inRange(out, groupIndex, filterIndex) {
		out[groupIndex].Filters = UpdateOperator(out[groupIndex].Filters, filterIndex, op)
	}
	return normalize(out)
}

func UpdateValueInGroups(groups models.FilterGroups, groupIndex, filterIndex int, value string) models.FilterGroups {
	out := cloneGroups(groups)
	if inRange(out, groupIndex, filterIndex) {
		out[groupIndex].Filters = UpdateValue(out[groupIndex].Filters, filterIndex, value)
	}
	return normalize(out)
}

// SelectedFieldsInGroups returns the keys filtered in any group.
func SelectedFieldsInGroups(groups models.FilterGroups) set.Set[string] {
	return SelectedFields(groups.Filters())
}

// Flatten returns the filters of all groups as one AND joined list.
func Flatten(groups models.FilterGroups) []models.Filter {
	return groups.Filters()
}

func cloneGroups(groups models.FilterGroups) models.FilterGroups {
	return lo.Map(groups, func(g models.FilterGroup, _ int) models.FilterGroup { return g.Clone() })
}

func inRange(groups models.FilterGroups, groupIndex, filterIndex int) bool {
	return groupIndex >= 0 && groupIndex < len(groups) &&
		filterIndex >= 0 && filterIndex < len(groups[groupIndex].Filters)
}
