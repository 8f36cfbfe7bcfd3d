package sorting

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

func TestSorting(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sorting Suite")
}

func column(rows []types.Row, key string) []any {
	return lo.Map(rows, func(r types.Row, _ int) any { return r[key] })
}

var _ = Describe("Sort", func() {
	const year = "organisation_foundingYear"
	rows := []types.Row{{year: 2001}, {year: 1999}, {year: 2010}}

	It("sorts descending", func() {
		out := Sort(rows, []Rule{{Field: year, Direction: types.SortDesc}})
		Expect(column(out, year)).To(Equal([]any{2010, 2001, 1999}))
		Expect(column(rows, year)).To(Equal([]any{2001, 1999, 2010}))
	})

	It("returns a copy without rules", func() {
		out := Sort(rows, nil)
		Expect(out).To(Equal(rows))
		out[0] = nil
		Expect(rows[0]).ToNot(BeNil())
	})

	DescribeTable("puts nulls last in both directions",
		func(direction types.SortDirection, expected []any) {
			in := []types.Row{{"v": nil}, {"v": 2}, {"v": ""}, {"v": 1}}
			Expect(column(Sort(in, []Rule{{Field: "v", Direction: direction}}), "v")).To(Equal(expected))
		},
		Entry("asc", types.SortAsc, []any{1, 2, nil, ""}),
		Entry("desc", types.SortDesc, []any{2, 1, nil, ""}),
	)

	It("is stable on ties", func() {
		in := []types.Row{
			{"k": "b", "id": 1},
			{"k": "a", "id": 2},
			{"k": "B", "id": 3},
			{"k": "a", "id": 4},
		}
		out := Sort(in, []Rule{{Field: "k", Direction: types.SortAsc}})
		Expect(column(out, "id")).To(Equal([]any{2, 4, 1, 3}))
	})

	It("applies rules by order", func() {
		in := []types.Row{
			{"a": 1, "b": 1},
			{"a": 2, "b": 1},
			{"a": 1, "b": 2},
		}
		rules := RulesFromSorting(models.SortingList{
			{Field: "a", Direction: types.SortDesc, Order: 1},
			{Field: "b", Direction: types.SortDesc, Order: 0},
		}, nil)
		out := Sort(in, rules)
		Expect(out).To(Equal([]types.Row{in[2], in[1], in[0]}))
	})

	It("is idempotent", func() {
		in := []types.Row{
			{"d": "2024-01-02", "n": "3"},
			{"d": "2023-05-01", "n": "x"},
			{"d": nil, "n": "1"},
			{"d": "2024-01-02", "n": nil},
		}
		rules := []Rule{
			{Field: "d", Direction: types.SortDesc, DataType: types.DataTypeDate},
			{Field: "n", Direction: types.SortAsc, DataType: types.DataTypeNumber, Order: 1},
		}
		once := Sort(in, rules)
		Expect(Sort(once, rules)).To(Equal(once))
		Expect(once).To(Equal([]types.Row{in[0], in[3], in[1], in[2]}))
	})
})

var _ = Describe("Normalize", func() {
	DescribeTable("by data type",
		func(value any, dataType types.DataType, expected any) {
			if expected == nil {
				Expect(Normalize(value, dataType)).To(BeNil())
				return
			}
			Expect(Normalize(value, dataType)).To(Equal(expected))
		},
		Entry("nil", nil, types.DataTypeString, nil),
		Entry("blank", "  ", types.DataTypeString, nil),
		Entry("empty array", []any{}, types.DataTypeArray, nil),
		Entry("date", "1970-01-02", types.DataTypeDate, float64(86400000)),
		Entry("invalid date", "soon", types.DataTypeDate, nil),
		Entry("time", time.UnixMilli(5), types.DataTypeDate, float64(5)),
		Entry("number string", "42", types.DataTypeNumber, float64(42)),
		Entry("float", 1.5, types.DataTypeFloat, 1.5),
		Entry("invalid number", "many", types.DataTypeNumber, nil),
		Entry("boolean true", true, types.DataTypeBoolean, float64(1)),
		Entry("boolean text", "false", types.DataTypeBoolean, float64(1)),
		Entry("boolean false", false, types.DataTypeBoolean, float64(0)),
		Entry("array", []any{"B", "a"}, types.DataTypeArray, "b, a"),
		Entry("array scalar", "X", types.DataTypeArray, "x"),
		Entry("detected date", "1970-01-01T00:00:01Z", types.DataType(""), float64(1000)),
		Entry("detected number", 7, types.DataType(""), float64(7)),
		Entry("numeric text stays text", "7", types.DataTypeString, "7"),
		Entry("text", "Berlin", types.DataTypeString, "berlin"),
	)
})

var _ = Describe("Rules", func() {
	It("derives rules from sorted display fields", func() {
		fields := models.Fields{
			{Type: "o", Field: "a", Order: 0, Sort: types.SortAsc, SortOrder: lo.ToPtr(1)},
			{Type: "o", Field: "b", Order: 1},
			{Type: "o", Field: "c", Order: 2, Sort: types.SortDesc, DataType: types.DataTypeDate, SortOrder: lo.ToPtr(0)},
			{Type: "o", Field: "d", Order: 3, Sort: types.SortAsc},
		}
		Expect(RulesFromFields(fields)).To(Equal([]Rule{
			{Field: "o_c", Direction: types.SortDesc, DataType: types.DataTypeDate, Order: 0},
			{Field: "o_a", Direction: types.SortAsc, Order: 1},
			{Field: "o_d", Direction: types.SortAsc, Order: 3},
		}))
	})

	It("reindexes sort orders", func() {
		fields := models.Fields{
			{Type: "o", Field: "a", Order: 0, Sort: types.SortAsc, SortOrder: lo.ToPtr(5)},
			{Type: "o", Field: "b", Order: 1, SortOrder: lo.ToPtr(2)},
			{Type: "o", Field: "c", Order: 2, Sort: types.SortDesc, SortOrder: lo.ToPtr(3)},
		}
		out := ReindexSortOrders(fields)
		Expect(*out[0].SortOrder).To(Equal(1))
		Expect(out[1].SortOrder).To(BeNil())
		Expect(*out[2].SortOrder).To(Equal(0))
		Expect(*fields[0].SortOrder).To(Equal(5))
	})
})
