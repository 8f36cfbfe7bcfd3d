package models_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

func TestModels(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Models Suite")
}

var _ = Describe("Fields", func() {
	fields := models.Fields{
		{Field: "name", Type: "organisation", Visible: true, Order: 2},
		{Field: "city", Type: "organisation", Visible: false, Order: 0, Grouping: true},
		{Field: "year", Type: "organisation_statistics", Visible: true, Order: 1, Grouping: true, Aggregation: types.AggregationSum},
	}

	It("returns visible fields in column order", func() {
		Expect(fields.Visible().Keys()).To(Equal([]string{"organisation_statistics_year", "organisation_name"}))
	})

	It("returns grouping fields in column order", func() {
		Expect(fields.Grouping().Keys()).To(Equal([]string{"organisation_city", "organisation_statistics_year"}))
	})

	It("looks fields up by composite key", func() {
		f, ok := fields.ByKey("organisation_statistics_year")
		Expect(ok).To(BeTrue())
		Expect(f.Field).To(Equal("year"))

		_, ok = fields.ByKey("statistics_year")
		Expect(ok).To(BeFalse())
	})

	It("reindexes orders densely without touching the input", func() {
		re := fields.Reindex()
		Expect(lo.Map(re, func(f models.Field, _ int) int { return f.Order })).To(Equal([]int{0, 1, 2}))
		Expect(fields[0].Order).To(Equal(2))
	})

	It("finds the aggregation field", func() {
		f, ok := fields.AggregationField()
		Expect(ok).To(BeTrue())
		Expect(f.Key()).To(Equal("organisation_statistics_year"))
	})

	It("round trips through a json column", func() {
		v, err := fields.Value()
		Expect(err).ToNot(HaveOccurred())

		var scanned models.Fields
		Expect(scanned.Scan(v)).To(Succeed())
		Expect(scanned).To(Equal(fields))
	})
})

var _ = Describe("DataSource", func() {
	single := models.DataSource{ID: "region", Selection: models.SelectionSingle, ConditionKey: "region_id"}
	multi := models.DataSource{ID: "tags", Selection: models.SelectionMulti, ConditionKey: "tag"}

	It("keeps only the latest value for single selection", func() {
		Expect(single.Select([]string{"a"}, "b")).To(Equal([]string{"b"}))
	})

	It("appends distinct values for multi selection", func() {
		sel := multi.Select(nil, "a")
		sel = multi.Select(sel, "b")
		sel = multi.Select(sel, "a")
		Expect(sel).To(Equal([]string{"a", "b"}))
	})

	It("encodes conditions", func() {
		c, err := multi.Conditions([]string{"a", "b"})
		Expect(err).ToNot(HaveOccurred())
		Expect(c).To(MatchJSON(`[{"key":"tag","value":"a","operator":"="},{"key":"tag","value":"b","operator":"="}]`))

		c, err = single.Conditions([]string{"x", "y"})
		Expect(err).ToNot(HaveOccurred())
		Expect(c).To(MatchJSON(`[{"key":"region_id","value":"x","operator":"="}]`))
	})

	It("encodes an empty selection as empty string", func() {
		c, err := multi.Conditions(nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c).To(BeEmpty())
	})
})

var _ = Describe("Report", func() {
	It("falls back to the default chart", func() {
		Expect(models.Report{}.ChartOrDefault()).To(Equal(models.DefaultChart))
		Expect(models.Report{Chart: "pie"}.ChartOrDefault()).To(Equal("pie"))
	})
})
