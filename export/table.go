package export

import (
	"io"

	"github.com/rodaine/table"
	"github.com/samber/lo"

	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/grouping"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

const SubtotalLabel = "Zwischensumme"

// RenderTable prints grouped rows as a text table. Group cells are only
// printed on the first row of their group and subtotal rows are labelled.
func RenderTable(w io.Writer, rows []types.Row, displayFields models.Fields, cat *catalog.Catalog) {
	columns := displayFields.Visible()
	if len(columns) == 0 {
		return
	}

	headers := lo.Map(columns, func(f models.Field, _ int) any { return cat.HeaderLabel(f) })
	tbl := table.New(headers...).WithWriter(w)

	for _, row := range rows {
		tbl.AddRow(lo.Map(TableCells(row, columns), func(s string, _ int) any { return s })...)
	}
	tbl.Print()
}

// TableCells renders one row of a grouped table.
func TableCells(row types.Row, columns models.Fields) []string {
	if grouping.IsSubtotal(row) {
		cells := lo.Map(columns, func(f models.Field, _ int) string {
			if v, ok := row[f.Key()]; ok {
				return Cell(v)
			}
			return ""
		})
		cells[0] = lo.Ternary(cells[0] == "", SubtotalLabel, SubtotalLabel+" "+cells[0])
		return cells
	}

	return lo.Map(columns, func(f models.Field, _ int) string {
		key := f.Key()
		if first, grouped := row[grouping.PrefixIsFirstInGroup+key].(bool); grouped && !first {
			return ""
		}
		return Cell(row[key])
	})
}
