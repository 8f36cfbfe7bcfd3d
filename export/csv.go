package export

import (
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

var log = logger.GetLogger("export")

const ContentType = "text/csv; charset=utf-8"

// Cell renders a value for export. Arrays join their elements with ", ",
// objects render as JSON and nil renders empty.
func Cell(v any) string {
	if items, ok := types.AsSlice(v); ok {
		return strings.Join(lo.Map(items, func(item any, _ int) string { return types.Stringify(item) }), ", ")
	}
	return types.Stringify(v)
}

func quote(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func header(label string) string {
	if strings.ContainsAny(label, `,"`) {
		return quote(label)
	}
	return label
}

// ToCSV writes the visible display fields of rows as comma separated lines:
// a header of field labels followed by one line of quoted values per row.
// Line breaks inside values are replaced so every row stays on one line.
func ToCSV(rows []types.Row, displayFields models.Fields, cat *catalog.Catalog) string {
	columns := displayFields.Visible()

	var sb strings.Builder
	sb.WriteString(strings.Join(lo.Map(columns, func(f models.Field, _ int) string {
		return header(cat.HeaderLabel(f))
	}), ","))

	for _, row := range rows {
		sb.WriteByte('\n')
		sb.WriteString(strings.Join(lo.Map(columns, func(f models.Field, _ int) string {
			return quote(Cell(row[f.Key()]))
		}), ","))
	}

	log.V(3).Infof("exported %d rows with %d columns", len(rows), len(columns))
	return sb.String()
}

// FileName is the download name of a report export.
func FileName(report models.Report) string {
	return lo.CoalesceOrEmpty(strings.TrimSpace(report.Title), "report") + ".csv"
}
