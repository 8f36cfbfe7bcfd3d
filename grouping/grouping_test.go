package grouping

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

func TestGrouping(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Grouping Suite")
}

func dataRows(rows []types.Row) []types.Row {
	return lo.Reject(rows, func(r types.Row, _ int) bool { return IsSubtotal(r) })
}

func values(rows []types.Row, key string) []any {
	return lo.Map(rows, func(r types.Row, _ int) any { return r[key] })
}

// checkRowspans verifies that every bucket of key starts with exactly one
// first row and that its group size covers the rows up to its own subtotal.
func checkRowspans(rows []types.Row, key string) {
	for i := 0; i < len(rows); i++ {
		first, _ := rows[i][PrefixIsFirstInGroup+key].(bool)
		if !first {
			continue
		}
		size := rows[i][PrefixGroupSize+key].(int)
		Expect(i + size).To(BeNumerically("<=", len(rows)))
		for j := i + 1; j < i+size; j++ {
			Expect(rows[j][PrefixIsFirstInGroup+key]).To(BeFalse())
			Expect(rows[j][PrefixGroupSize+key]).To(Equal(size))
		}
		if i+size < len(rows) {
			next := rows[i+size]
			boundary := next[PrefixIsFirstInGroup+key] == true || next[PrefixIsSubtotal+key] == true
			Expect(boundary).To(BeTrue())
		}
	}
}

var _ = Describe("Group", func() {
	tags := []types.Row{
		{"organisation_tags": []any{"a", "b"}, "n": 1},
		{"organisation_tags": []any{"b"}, "n": 2},
		{"organisation_tags": []any{}, "n": 3},
	}
	columns := []Column{{AccessorKey: "organisation_tags"}}

	It("expands array keys into buckets in order of first appearance", func() {
		out := Group(tags, columns, WithSubtotals(false))
		Expect(out).To(HaveLen(4))
		Expect(values(out, "organisation_tags")).To(Equal([]any{"a", "b", "b", types.NoGroupLabel}))
		Expect(values(out, "n")).To(Equal([]any{1, 1, 2, 3}))
		Expect(values(out, PrefixGroupSize+"organisation_tags")).To(Equal([]any{1, 2, 2, 1}))
		Expect(values(out, PrefixIsFirstInGroup+"organisation_tags")).To(Equal([]any{true, true, false, true}))
		Expect(values(out, PrefixGroupValue+"organisation_tags")).To(Equal([]any{"a", "b", "b", types.NoGroupLabel}))
	})

	It("does not modify its input", func() {
		Group(tags, columns)
		Expect(tags[0]).To(Equal(types.Row{"organisation_tags": []any{"a", "b"}, "n": 1}))
	})

	It("closes every bucket with a subtotal row", func() {
		out := Group(tags, columns)
		Expect(out).To(HaveLen(7))
		Expect(dataRows(out)).To(HaveLen(4))

		subtotal := out[4]
		Expect(subtotal).To(Equal(types.Row{
			KeyIsSubtotal:                          true,
			KeySubtotalLevel:                       0,
			PrefixIsSubtotal + "organisation_tags": true,
			PrefixGroupKey + "organisation_tags":   "b",
			PrefixGroupSize + "organisation_tags":  2,
			"organisation_tags":                    "b",
			"n":                                    float64(3),
		}))
		checkRowspans(out, "organisation_tags")
	})

	It("keeps scalar keys and labels blank ones", func() {
		rows := []types.Row{
			{"o_city": "Köln", "n": "2"},
			{"o_city": nil, "n": 5},
			{"o_city": "Köln", "n": "x"},
			{"o_city": " ", "n": 1.5},
		}
		out := Group(rows, []Column{{AccessorKey: "o_city"}})
		Expect(values(out, "o_city")).To(Equal([]any{"Köln", "Köln", "Köln", nil, " ", types.NoGroupLabel}))
		Expect(out[2]["n"]).To(Equal(float64(2)))
		Expect(out[5]["n"]).To(Equal(6.5))
		Expect(out[5][PrefixGroupSize+"o_city"]).To(Equal(2))
	})

	It("uses the field name when the composite key is missing", func() {
		out := Group([]types.Row{{"city": "Bonn"}}, []Column{{AccessorKey: "organisation_city"}}, WithSubtotals(false))
		Expect(out[0]["organisation_city"]).To(Equal("Bonn"))
		Expect(out[0][PrefixGroupValue+"organisation_city"]).To(Equal("Bonn"))
	})

	It("labels object keys", func() {
		out := Group([]types.Row{{"o_k": []any{map[string]any{"name": "N"}, map[string]any{"id": 4}}}}, []Column{{AccessorKey: "o_k"}}, WithSubtotals(false))
		Expect(values(out, "o_k")).To(Equal([]any{"N", "4"}))
	})

	Context("two levels", func() {
		rows := []types.Row{
			{"o_state": "NRW", "o_city": "Köln", "o_size": 10},
			{"o_state": "BY", "o_city": "München", "o_size": 5},
			{"o_state": "NRW", "o_city": "Bonn", "o_size": 3},
			{"o_state": "NRW", "o_city": "Köln", "o_size": 1},
			{"o_state": "NRW", "o_size": 2},
		}
		columns := []Column{
			{AccessorKey: "o_state", AggregationField: "o_size", AggregationMethod: types.AggregationSum},
			{AccessorKey: "o_city"},
		}

		It("recurses depth first with subtotals per level", func() {
			out := Group(rows, columns)
			Expect(out).To(HaveLen(11))
			Expect(values(out, "o_city")).To(Equal([]any{
				"Köln", "Köln", "Köln", "Bonn", "Bonn", types.NoGroupLabel, types.NoGroupLabel, nil,
				"München", "München", nil,
			}))
			Expect(values(out, KeySubtotalLevel)).To(Equal([]any{nil, nil, 1, nil, 1, nil, 1, 0, nil, 1, 0}))
		})

		It("keeps rowspans consistent on every level", func() {
			out := Group(rows, columns)
			checkRowspans(out, "o_state")
			checkRowspans(out, "o_city")

			Expect(out[0][PrefixGroupSize+"o_state"]).To(Equal(7))
			Expect(out[0][PrefixGroupSize+"o_city"]).To(Equal(2))
		})

		It("sums every data column of a bucket", func() {
			out := Group(rows, columns)
			subtotals := lo.Filter(out, func(r types.Row, _ int) bool { return IsSubtotal(r) })
			Expect(values(subtotals, "o_size")).To(Equal([]any{
				float64(11), float64(3), float64(2), float64(16), float64(5), float64(5),
			}))
			Expect(subtotals[3]["o_state"]).To(Equal("NRW"))
			Expect(subtotals[3]).ToNot(HaveKey("o_city"))
		})

		It("annotates the bucket aggregate", func() {
			out := Group(rows, columns)
			Expect(out[0][PrefixGroupAggregate+"o_state"]).To(Equal(float64(16)))
			Expect(out[7][PrefixGroupAggregate+"o_state"]).To(Equal(float64(16)))
			Expect(out[8][PrefixGroupAggregate+"o_state"]).To(Equal(float64(5)))
		})

		It("yields the expanded row count without subtotals", func() {
			Expect(Group(rows, columns, WithSubtotals(false))).To(HaveLen(len(rows)))
		})
	})

	It("labels empty arrays on nested levels as ungrouped", func() {
		out := Group([]types.Row{
			{"o_name": "A", "o_tags": []any{"x"}},
			{"o_name": "B", "o_tags": []any{}},
		}, []Column{{AccessorKey: "o_name"}, {AccessorKey: "o_tags"}}, WithSubtotals(false))
		Expect(values(out, "o_tags")).To(Equal([]any{"x", types.NoGroupLabel}))
		Expect(values(out, PrefixGroupValue+"o_tags")).To(Equal([]any{"x", types.NoGroupLabel}))
	})

	It("sums numeric keys of nested levels into outer subtotals", func() {
		out := Group([]types.Row{
			{"o_state": "NRW", "s_year": 2023, "s_count": 4},
			{"o_state": "NRW", "s_year": 2024, "s_count": 6},
		}, []Column{{AccessorKey: "o_state"}, {AccessorKey: "s_year"}})
		subtotals := lo.Filter(out, func(r types.Row, _ int) bool { return IsSubtotal(r) })
		Expect(subtotals).To(HaveLen(3))

		outer := subtotals[2]
		Expect(outer[KeySubtotalLevel]).To(Equal(0))
		Expect(outer["o_state"]).To(Equal("NRW"))
		Expect(outer["s_count"]).To(Equal(float64(10)))
		Expect(outer["s_year"]).To(Equal(float64(4047)))

		Expect(subtotals[0]["s_year"]).To(Equal("2023"))
		Expect(subtotals[0]["s_count"]).To(Equal(float64(4)))
	})
})

var _ = Describe("Columns", func() {
	fields := models.Fields{
		{Type: "o", Field: "b", Order: 1, Grouping: true},
		{Type: "o", Field: "a", Order: 0, Grouping: true},
		{Type: "o", Field: "n", Order: 2, Aggregation: types.AggregationAverage},
	}

	It("derives columns from grouping fields", func() {
		Expect(ColumnsFromFields(fields)).To(Equal([]Column{
			{AccessorKey: "o_a", AggregationField: "o_n", AggregationMethod: types.AggregationAverage},
			{AccessorKey: "o_b", AggregationField: "o_n", AggregationMethod: types.AggregationAverage},
		}))
	})

	It("derives columns from report grouping", func() {
		Expect(ColumnsFromMeta([]models.MetaGrouping{
			{Field: "b", EntityType: "o", Order: 1},
			{Field: "a", EntityType: "o", Order: 0, Aggregate: &models.MetaAggregate{Method: types.AggregationMax, Field: "o_n"}},
		})).To(Equal([]Column{
			{AccessorKey: "o_a", AggregationField: "o_n", AggregationMethod: types.AggregationMax},
			{AccessorKey: "o_b"},
		}))
	})

	It("enables subtotals for sums and counts", func() {
		Expect(SubtotalsEnabled(fields)).To(BeFalse())
		fields[2].Aggregation = types.AggregationCount
		Expect(SubtotalsEnabled(fields)).To(BeTrue())
		fields[2].Aggregation = types.AggregationAverage
	})
})
