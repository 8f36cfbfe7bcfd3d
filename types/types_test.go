package types

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTypes(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Types Suite")
}

var _ = Describe("ColumnKey", func() {
	It("joins entity type and field with an underscore", func() {
		Expect(ColumnKey("organisation_statistics", "year")).To(Equal("organisation_statistics_year"))
	})
})

var _ = Describe("Coercion", func() {
	DescribeTable("ToNumber",
		func(in any, expected float64, ok bool) {
			n, isNumber := ToNumber(in)
			Expect(isNumber).To(Equal(ok))
			if ok {
				Expect(n).To(Equal(expected))
			}
		},
		Entry("float", 2.5, 2.5, true),
		Entry("int", 7, 7.0, true),
		Entry("numeric string", " 2001 ", 2001.0, true),
		Entry("blank string", "  ", 0.0, false),
		Entry("text", "abc", 0.0, false),
		Entry("nil", nil, 0.0, false),
		Entry("bool", true, 1.0, true),
		Entry("array", []any{1}, 0.0, false),
	)

	DescribeTable("IsDateLike",
		func(in any, expected bool) {
			Expect(IsDateLike(in)).To(Equal(expected))
		},
		Entry("iso date", "2024-01-02", true),
		Entry("slash date", "01/02/2024", true),
		Entry("time", time.Now(), true),
		Entry("plain number string", "2001", false),
		Entry("number", 2001, false),
		Entry("nil", nil, false),
	)

	It("parses ISO dates as UTC milliseconds", func() {
		ms, ok := ToDateMs("2024-01-02")
		Expect(ok).To(BeTrue())
		Expect(ms).To(Equal(float64(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli())))
	})

	It("parses relative expressions against Now", func() {
		defer func(now func() time.Time) { Now = now }(Now)
		Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

		t, ok := ParseTime("now-1y")
		Expect(ok).To(BeTrue())
		Expect(t.Year()).To(Equal(2023))
	})

	It("rejects garbage", func() {
		_, ok := ToDateMs("not a date")
		Expect(ok).To(BeFalse())
	})

	DescribeTable("GroupLabel",
		func(in any, expected string) {
			Expect(GroupLabel(in, NoGroupLabel)).To(Equal(expected))
		},
		Entry("nil", nil, NoGroupLabel),
		Entry("blank", " ", NoGroupLabel),
		Entry("number", 3.0, "3"),
		Entry("object with label", map[string]any{"label": "Bildung", "id": "1"}, "Bildung"),
		Entry("object with id only", map[string]any{"id": "x1"}, "x1"),
	)

	It("stringifies arrays with commas", func() {
		Expect(Stringify([]any{"a", 1.0, true})).To(Equal("a,1,true"))
	})
})

var _ = Describe("Aggregate", func() {
	values := []float64{4, 1, 7}

	DescribeTable("methods",
		func(method Aggregation, expected float64) {
			Expect(Aggregate(method, values)).To(Equal(expected))
		},
		Entry("sum", AggregationSum, 12.0),
		Entry("average", AggregationAverage, 4.0),
		Entry("count", AggregationCount, 3.0),
		Entry("min", AggregationMin, 1.0),
		Entry("max", AggregationMax, 7.0),
		Entry("none", AggregationNone, 0.0),
	)

	It("returns 0 for empty input", func() {
		Expect(Aggregate(AggregationMax, nil)).To(BeZero())
	})

	It("counts rows when no field is designated", func() {
		rows := []Row{{"a": "x"}, {"a": "y"}}
		Expect(AggregateField(rows, "", AggregationSum)).To(Equal(2.0))
	})

	It("treats non-numeric values as 0", func() {
		rows := []Row{{"a": "5"}, {"a": "n/a"}, {"a": 3}}
		Expect(AggregateField(rows, "a", AggregationSum)).To(Equal(8.0))
	})
})
