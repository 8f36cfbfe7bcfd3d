package export

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/grouping"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

var cat = catalog.Default()

var fields = models.Fields{
	{Type: "organisation", Field: "foundingYear", Order: 2, Visible: true},
	{Type: "organisation", Field: "name", Order: 0, Visible: true},
	{Type: "organisation", Field: "city", Order: 1, Visible: false},
	{Type: "organisation", Field: "custom", Order: 3, Visible: true},
}

var _ = Describe("ToCSV", func() {
	rows := []types.Row{
		{"organisation_name": `Verein "Nord"`, "organisation_foundingYear": 1999, "organisation_custom": []any{"a", "b"}},
		{"organisation_name": "Zeile\nzwei", "organisation_foundingYear": 0, "organisation_custom": map[string]any{"k": 1}},
		{"organisation_foundingYear": nil, "organisation_custom": false},
	}

	It("writes a header and one quoted line per row", func() {
		out := ToCSV(rows, fields, cat)
		lines := strings.Split(out, "\n")
		Expect(lines).To(HaveLen(len(rows) + 1))
		Expect(lines[0]).To(Equal("Name,Gründungsjahr,custom"))
		Expect(lines[1]).To(Equal(`"Verein ""Nord""","1999","a, b"`))
		Expect(lines[2]).To(Equal(`"Zeile zwei","0","{""k"":1}"`))
		Expect(lines[3]).To(Equal(`"","","false"`))
	})

	It("writes one field per visible column", func() {
		for _, line := range strings.Split(ToCSV(rows[:1], fields, cat), "\n")[1:] {
			Expect(strings.Count(line, `","`)).To(Equal(len(fields.Visible()) - 1))
		}
	})

	It("writes only the header without rows", func() {
		Expect(ToCSV(nil, fields, cat)).To(Equal("Name,Gründungsjahr,custom"))
	})
})

var _ = Describe("FileName", func() {
	It("uses the title", func() {
		Expect(FileName(models.Report{Title: "Vereine 2024"})).To(Equal("Vereine 2024.csv"))
		Expect(FileName(models.Report{Title: "  "})).To(Equal("report.csv"))
	})
})

var _ = Describe("RenderTable", func() {
	columns := models.Fields{
		{Type: "o", Field: "state", Order: 0, Visible: true, Grouping: true},
		{Type: "o", Field: "size", Order: 1, Visible: true},
	}
	rows := grouping.Group([]types.Row{
		{"o_state": "NRW", "o_size": 10},
		{"o_state": "NRW", "o_size": 3},
	}, grouping.ColumnsFromFields(columns))

	It("blanks repeated group cells and labels subtotals", func() {
		Expect(TableCells(rows[0], columns)).To(Equal([]string{"NRW", "10"}))
		Expect(TableCells(rows[1], columns)).To(Equal([]string{"", "3"}))
		Expect(TableCells(rows[2], columns)).To(Equal([]string{SubtotalLabel + " NRW", "13"}))
	})

	It("prints every row", func() {
		var buf bytes.Buffer
		RenderTable(&buf, rows, columns, cat)
		out := buf.String()
		Expect(strings.Count(out, "\n")).To(BeNumerically(">=", len(rows)+1))
		Expect(out).To(ContainSubstring("state"))
		Expect(out).To(ContainSubstring(SubtotalLabel + " NRW"))
	})
})
