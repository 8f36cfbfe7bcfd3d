package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// Rule sorts on one column. Lower Order takes priority.
type Rule struct {
	Field     string              `json:"field"`
	Direction types.SortDirection `json:"direction"`
	DataType  types.DataType      `json:"dataType,omitempty"`
	Order     int                 `json:"order"`
}

// RulesFromFields derives the rules of display fields carrying a sort
// direction, ordered by sort order and then column order.
func RulesFromFields(fields models.Fields) []Rule {
	rules := lo.FilterMap(fields, func(f models.Field, _ int) (Rule, bool) {
		return Rule{
			Field:     f.Key(),
			Direction: f.Sort,
			DataType:  f.DataType,
			Order:     f.EffectiveSortOrder(),
		}, f.Sort != ""
	})
	slices.SortStableFunc(rules, func(a, b Rule) int { return a.Order - b.Order })
	return rules
}

// RulesFromSorting converts an explicit sort list, taking data types from
// the display fields.
func RulesFromSorting(sorting models.SortingList, fields models.Fields) []Rule {
	rules := lo.Map(sorting, func(s models.Sorting, _ int) Rule {
		field, _ := fields.ByKey(s.Field)
		return Rule{Field: s.Field, Direction: s.Direction, DataType: field.DataType, Order: s.Order}
	})
	slices.SortStableFunc(rules, func(a, b Rule) int { return a.Order - b.Order })
	return rules
}

// Normalize converts a cell into a comparable value: a float64, a lower case
// string or nil. Blank and unparseable values are nil.
func Normalize(value any, dataType types.DataType) any {
	if value == nil || strings.TrimSpace(types.Stringify(value)) == "" {
		return nil
	}

	switch dataType {
	case types.DataTypeDate:
		return optional(types.ToDateMs(value))
	case types.DataTypeNumber, types.DataTypeFloat:
		return optional(types.ToNumber(value))
	case types.DataTypeBoolean:
		if types.Truthy(value) {
			return float64(1)
		}
		return float64(0)
	case types.DataTypeArray:
		if items, ok := types.AsSlice(value); ok {
			return strings.ToLower(strings.Join(lo.Map(items, func(item any, _ int) string { return types.Stringify(item) }), ", "))
		}
		return strings.ToLower(types.Stringify(value))
	}

	if types.IsDateLike(value) {
		return optional(types.ToDateMs(value))
	}
	if types.IsNumber(value) {
		n, _ := types.ToNumber(value)
		return n
	}
	return strings.ToLower(types.Stringify(value))
}

func optional(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// compare orders numbers before strings when a column mixes both.
func compare(a, b any) int {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
		return -1
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
		return 1
	}
	return 0
}

// Sort returns a sorted copy of rows. Nil values sort last in both
// directions; ties keep their input order.
func Sort(rows []types.Row, rules []Rule) []types.Row {
	if len(rules) == 0 {
		return slices.Clone(rows)
	}

	type keyed struct {
		row  types.Row
		keys []any
	}
	items := lo.Map(rows, func(row types.Row, _ int) keyed {
		return keyed{row: row, keys: lo.Map(rules, func(rule Rule, _ int) any {
			return Normalize(row[rule.Field], rule.DataType)
		})}
	})

	slices.SortStableFunc(items, func(left, right keyed) int {
		for i, rule := range rules {
			l, r := left.keys[i], right.keys[i]

			switch {
			case l == nil && r == nil:
				continue
			case l == nil:
				return 1
			case r == nil:
				return -1
			}

			if c := compare(l, r); c != 0 {
				if rule.Direction == types.SortDesc {
					return -c
				}
				return c
			}
		}
		return 0
	})
	return lo.Map(items, func(item keyed, _ int) types.Row { return item.row })
}

// ReindexSortOrders gives sorted fields dense sort orders, keeping their
// relative priority, and clears the sort order of unsorted fields.
func ReindexSortOrders(fields models.Fields) models.Fields {
	out := fields.Clone()

	sorted := lo.Filter(lo.Range(len(out)), func(i int, _ int) bool { return out[i].Sort != "" })
	slices.SortStableFunc(sorted, func(a, b int) int {
		return out[a].EffectiveSortOrder() - out[b].EffectiveSortOrder()
	})

	for i := range out {
		out[i].SortOrder = nil
	}
	for order, i := range sorted {
		out[i].SortOrder = lo.ToPtr(order)
	}
	return out
}
