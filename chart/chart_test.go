package chart

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

func TestChart(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chart Suite")
}

func groups(buckets []Bucket) []string {
	return lo.Map(buckets, func(b Bucket, _ int) string { return b.Group })
}

func aggregates(buckets []Bucket) []float64 {
	return lo.Map(buckets, func(b Bucket, _ int) float64 { return *b.GroupAggregate })
}

var rows = []types.Row{
	{"o_state": "NRW", "o_kind": "Verein", "o_size": 10},
	{"o_state": "BY", "o_kind": "Schule", "o_size": "5"},
	{"o_state": "NRW", "o_kind": "Schule", "o_size": 3},
	{"o_state": nil, "o_size": "x"},
}

var _ = Describe("Aggregate", func() {
	It("returns one bucket without grouping", func() {
		out := Aggregate(rows, "", "", "", "")
		Expect(out).To(HaveLen(1))
		Expect(out[0].Group).To(Equal(types.NoGroupLabel))
		Expect(out[0].Items).To(HaveLen(4))
		Expect(out[0].GroupAggregate).To(BeNil())
		Expect(out[0].IsPrimaryGroup).To(BeTrue())
	})

	It("counts rows per primary value by default", func() {
		out := Aggregate(rows, "o_state", "", "", "")
		Expect(groups(out)).To(Equal([]string{"NRW", "BY", types.NoGroupLabel}))
		Expect(aggregates(out)).To(Equal([]float64{2, 1, 1}))
		Expect(out[0].Items).To(HaveLen(2))
	})

	It("sums the aggregation field treating text as zero", func() {
		out := Aggregate(rows, "o_state", "", "o_size", types.AggregationSum)
		Expect(aggregates(out)).To(Equal([]float64{13, 5, 0}))
	})

	It("nests secondary buckets under their primary", func() {
		out := Aggregate(rows, "o_state", "o_kind", "o_size", types.AggregationMax)
		Expect(groups(out)).To(Equal([]string{
			"NRW", "Verein", "Schule",
			"BY", "Schule",
			types.NoGroupLabel, types.NoSubgroupLabel,
		}))
		Expect(aggregates(out)).To(Equal([]float64{10, 10, 3, 5, 5, 0, 0}))

		Expect(out[0].Items).To(BeEmpty())
		Expect(out[1].Parent).To(Equal("NRW"))
		Expect(out[4].Parent).To(Equal("BY"))
		Expect(out[4].IsPrimaryGroup).To(BeFalse())
		Expect(Children(out, "NRW")).To(HaveLen(2))
	})

	It("places rows in every bucket of an array value", func() {
		in := []types.Row{
			{"o_tags": []any{"a", map[string]any{"label": "b"}}},
			{"o_tags": []any{}},
			{"o_tags": []any{"a"}},
		}
		out := Aggregate(in, "o_tags", "", "", types.AggregationCount)
		Expect(groups(out)).To(Equal([]string{"a", "b", types.NoGroupLabel}))
		Expect(aggregates(out)).To(Equal([]float64{2, 1, 1}))
	})

	It("aggregates primaries over all of their rows", func() {
		out := Aggregate(rows, "o_state", "o_kind", "", types.AggregationCount)
		for _, p := range Primaries(out) {
			total := lo.SumBy(Children(out, p.Group), func(b Bucket) float64 { return *b.GroupAggregate })
			Expect(*p.GroupAggregate).To(Equal(total))
		}
	})
})

var _ = Describe("FromFields", func() {
	It("uses grouping fields by order and the first aggregation", func() {
		fields := models.Fields{
			{Type: "o", Field: "kind", Order: 2, Grouping: true},
			{Type: "o", Field: "state", Order: 1, Grouping: true},
			{Type: "o", Field: "size", Order: 3, Aggregation: types.AggregationAverage},
		}
		out := FromFields(rows, fields)
		Expect(Primaries(out)).To(HaveLen(3))
		Expect(out[0].Group).To(Equal("NRW"))
		Expect(*out[0].GroupAggregate).To(Equal(6.5))
	})

	It("counts without an aggregation field", func() {
		out := FromFields(rows, models.Fields{{Type: "o", Field: "state", Grouping: true}})
		Expect(aggregates(out)).To(Equal([]float64{2, 1, 1}))
	})
})

var _ = Describe("BuildSeries", func() {
	twoLevels := models.Fields{
		{Type: "o", Field: "state", Grouping: true},
		{Type: "o", Field: "kind", Order: 1, Grouping: true},
	}
	buckets := Aggregate(rows, "o_state", "o_kind", "", types.AggregationCount)

	It("builds one bar series per secondary value", func() {
		out := BuildSeries(KindBar, buckets, twoLevels)
		Expect(out.Categories).To(Equal([]string{"NRW", "BY", types.NoGroupLabel}))
		Expect(out.Legend).To(Equal([]string{"Verein", "Schule", types.NoSubgroupLabel}))
		Expect(out.Series).To(HaveLen(3))
		Expect(out.Series[1].Name).To(Equal("Schule"))
		Expect(lo.Map(out.Series[1].Data, func(p Point, _ int) float64 { return p.Value })).To(Equal([]float64{1, 1, 0}))
	})

	It("builds one pie series per primary value", func() {
		out := BuildSeries(KindPie, buckets, twoLevels)
		Expect(lo.Map(out.Series, func(s Series, _ int) string { return s.Name })).To(Equal([]string{"NRW", "BY", types.NoGroupLabel}))
		Expect(out.Series[0].Data).To(Equal([]Point{{Name: "Verein", Value: 1}, {Name: "Schule", Value: 1}, {Name: types.NoSubgroupLabel}}))
	})

	It("builds a single series for one level", func() {
		one := Aggregate(rows, "o_state", "", "", types.AggregationCount)
		out := BuildSeries(KindBar, one, twoLevels[:1])
		Expect(out.Series).To(HaveLen(1))
		Expect(out.Series[0].Name).To(Equal("state"))
		Expect(out.Series[0].Data[0]).To(Equal(Point{Name: "NRW", Value: 2}))

		Expect(BuildSeries(KindPie, Aggregate(rows, "", "", "", ""), nil).Series[0].Name).To(Equal(DefaultSeriesName))
	})

	It("nests treemap points", func() {
		out := BuildSeries(KindTreemap, buckets, twoLevels)
		Expect(out.Series[0].Data).To(HaveLen(3))
		Expect(out.Series[0].Data[0].Children).To(HaveLen(2))
		Expect(out.Series[0].Data[0].Value).To(Equal(float64(2)))
	})

	It("falls back to bar charts", func() {
		Expect(BuildSeries("radar", buckets, twoLevels).Kind).To(Equal(KindBar))
	})

	It("truncates long category labels", func() {
		long := strings.Repeat("ä", 30)
		Expect(Truncate(long)).To(Equal(strings.Repeat("ä", 25) + "..."))
		Expect(Truncate("short")).To(Equal("short"))
	})
})
