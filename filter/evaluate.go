package filter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// IsApplied reports whether f carries a value meaningful for its operator.
// Filters that are not applied pass every row.
func IsApplied(f models.Filter) bool {
	switch f.Operator {
	case "":
		return false
	case types.OperatorArrayIsEmpty, types.OperatorArrayIsNotEmpty:
		return true
	case types.OperatorArrayContains, types.OperatorArrayNotContains:
		return len(selectedValues(f.Value)) > 0
	case types.OperatorBetween:
		from, to := bounds(f.Value)
		return from != "" || to != ""
	default:
		return strings.TrimSpace(f.Value) != ""
	}
}

// Matches evaluates one filter against row[f.Field]. Unknown operators match.
func Matches(row types.Row, f models.Filter) bool {
	value := row[f.Field]

	switch f.Operator {
	case types.OperatorEquals:
		if types.IsDateLike(value) || types.IsDateLike(f.Value) {
			left, lok := types.ToDateMs(value)
			right, rok := types.ToDateMs(f.Value)
			return lok && rok && left == right
		}
		left, lok := types.ToNumber(value)
		right, rok := types.ToNumber(f.Value)
		if lok && rok {
			return left == right
		}
		return types.Stringify(value) == f.Value

	case types.OperatorGreater:
		left, right, ok := operands(value, f.Value)
		return ok && left > right

	case types.OperatorLess:
		left, right, ok := operands(value, f.Value)
		return ok && left < right

	case types.OperatorContains:
		return strings.Contains(lower(value), strings.ToLower(f.Value))

	case types.OperatorStartsWith:
		return strings.HasPrefix(lower(value), strings.ToLower(f.Value))

	case types.OperatorEndsWith:
		return strings.HasSuffix(lower(value), strings.ToLower(f.Value))

	case types.OperatorBetween:
		return between(value, f.Value)

	case types.OperatorArrayContains:
		items, ok := types.AsSlice(value)
		if !ok {
			return false
		}
		present := normalizedItems(items)
		return lo.EveryBy(selectedValues(f.Value), func(v string) bool { return present[v] })

	case types.OperatorArrayNotContains:
		items, ok := types.AsSlice(value)
		if !ok {
			return true
		}
		present := normalizedItems(items)
		// passes when at least one selected value is absent
		return lo.SomeBy(selectedValues(f.Value), func(v string) bool { return !present[v] })

	case types.OperatorArrayIsEmpty:
		if items, ok := types.AsSlice(value); ok {
			return len(items) == 0
		}
		return types.IsBlank(value)

	case types.OperatorArrayIsNotEmpty:
		if items, ok := types.AsSlice(value); ok {
			return len(items) > 0
		}
		return !types.IsBlank(value)
	}

	return true
}

// Apply keeps the rows matching every applied filter, in their original order.
func Apply(rows []types.Row, filters []models.Filter) []types.Row {
	applied := lo.Filter(filters, func(f models.Filter, _ int) bool { return IsApplied(f) })
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if lo.EveryBy(applied, func(f models.Filter) bool { return Matches(row, f) }) {
			out = append(out, row)
		}
	}
	return out
}

// ApplyGroups keeps the rows matching every group. Within a group AND binds
// tighter than OR. A connector is dropped together with the unapplied filter
// it precedes.
func ApplyGroups(rows []types.Row, groups models.FilterGroups) []types.Row {
	type term struct {
		filter models.Filter
		or     bool
	}

	compiled := make([][]term, 0, len(groups))
	for _, g := range groups {
		var terms []term
		for i, f := range g.Filters {
			if !IsApplied(f) {
				continue
			}
			or := i > 0 && i-1 < len(g.Connectors) && g.Connectors[i-1] == models.ConnectorOr
			terms = append(terms, term{filter: f, or: or && len(terms) > 0})
		}
		if len(terms) > 0 {
			compiled = append(compiled, terms)
		}
	}

	matchesGroup := func(row types.Row, terms []term) bool {
		result, conjunction := false, true
		for _, t := range terms {
			if t.or {
				result = result || conjunction
				conjunction = true
			}
			conjunction = conjunction && Matches(row, t.filter)
		}
		return result || conjunction
	}

	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if lo.EveryBy(compiled, func(terms []term) bool { return matchesGroup(row, terms) }) {
			out = append(out, row)
		}
	}
	return out
}

// operands coerces both sides to dates when either looks like one, else to numbers.
func operands(value any, filterValue string) (float64, float64, bool) {
	convert := types.ToNumber
	if types.IsDateLike(value) || types.IsDateLike(filterValue) {
		convert = types.ToDateMs
	}
	left, lok := convert(value)
	right, rok := convert(filterValue)
	return left, right, lok && rok
}

func between(value any, filterValue string) bool {
	rawFrom, rawTo := bounds(filterValue)
	hasFrom, hasTo := rawFrom != "", rawTo != ""
	if !hasFrom && !hasTo {
		return true
	}

	convert := types.ToNumber
	if types.IsDateLike(value) || types.IsDateLike(rawFrom) || types.IsDateLike(rawTo) {
		convert = types.ToDateMs
	}

	current, ok := convert(value)
	if !ok {
		return false
	}
	if hasFrom {
		from, ok := convert(rawFrom)
		if !ok || current < from {
			return false
		}
	}
	if hasTo {
		to, ok := convert(rawTo)
		if !ok || current > to {
			return false
		}
	}
	return true
}

// bounds splits "{from}|{to}". Parts after the second are ignored.
func bounds(value string) (string, string) {
	parts := strings.Split(value, types.RangeSeparator)
	from := strings.TrimSpace(parts[0])
	var to string
	if len(parts) > 1 {
		to = strings.TrimSpace(parts[1])
	}
	return from, to
}

// selectedValues splits "a||b" into lower case non blank values.
func selectedValues(value string) []string {
	var out []string
	for _, v := range strings.Split(value, types.ListSeparator) {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

func normalizedItems(items []any) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		if item != nil {
			out[lower(item)] = true
		}
	}
	return out
}

func lower(v any) string {
	return strings.ToLower(types.Stringify(v))
}
