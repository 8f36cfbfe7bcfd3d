package catalog

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// InputType is the kind of widget a filter value is entered with.
type InputType string

const (
	InputDate   InputType = "date"
	InputNumber InputType = "number"
	InputText   InputType = "text"
)

var (
	arrayOperators = []types.Operator{
		types.OperatorArrayContains,
		types.OperatorArrayNotContains,
		types.OperatorArrayIsEmpty,
		types.OperatorArrayIsNotEmpty,
	}

	rangeOperators = []types.Operator{
		types.OperatorEquals,
		types.OperatorGreater,
		types.OperatorLess,
		types.OperatorBetween,
	}

	// greater and less stay in the text operators, they compare dates or
	// numbers and fail on other text.
	textOperators = []types.Operator{
		types.OperatorEquals,
		types.OperatorContains,
		types.OperatorGreater,
		types.OperatorLess,
		types.OperatorStartsWith,
		types.OperatorEndsWith,
	}
)

var operatorLabels = map[types.Operator]string{
	types.OperatorEquals:           "ist gleich",
	types.OperatorContains:         "enthält",
	types.OperatorGreater:          "ist größer als",
	types.OperatorLess:             "ist kleiner als",
	types.OperatorStartsWith:       "beginnt mit",
	types.OperatorEndsWith:         "endet mit",
	types.OperatorBetween:          "ist zwischen",
	types.OperatorArrayContains:    "ist",
	types.OperatorArrayNotContains: "ist nicht",
	types.OperatorArrayIsEmpty:     "ist leer",
	types.OperatorArrayIsNotEmpty:  "ist nicht leer",
}

// OperatorLabel returns the German label of an operator.
func OperatorLabel(op types.Operator) string {
	return lo.CoalesceOrEmpty(operatorLabels[op], string(op))
}

// Option is a value with a display label.
type Option[T any] struct {
	Value T      `json:"value"`
	Label string `json:"label"`
}

var aggregationLabels = []Option[types.Aggregation]{
	{Value: types.AggregationSum, Label: "Summe"},
	{Value: types.AggregationAverage, Label: "Durchschnitt"},
	{Value: types.AggregationCount, Label: "Anzahl"},
	{Value: types.AggregationMin, Label: "Minimum"},
	{Value: types.AggregationMax, Label: "Maximum"},
}

// AggregationMethods lists the selectable aggregation methods.
func AggregationMethods() []Option[types.Aggregation] {
	return aggregationLabels
}

// AvailableFields returns the catalog entries selected as display fields, in
// catalog order. Without a selection the full catalog is returned.
func (c *Catalog) AvailableFields(displayFields models.Fields) []AvailableField {
	if len(displayFields) == 0 {
		return c.available
	}

	selected := lo.SliceToMap(displayFields, func(f models.Field) (string, bool) { return f.Key(), true })
	return lo.Filter(c.available, func(af AvailableField, _ int) bool { return selected[af.Value] })
}

// DataTypeOf returns the data type of a composite key.
func (c *Catalog) DataTypeOf(key string) (types.DataType, bool) {
	af, ok := c.byKey[key]
	if !ok {
		return "", false
	}
	return af.DataType, true
}

// OperatorsFor returns the operators offered for a composite key.
func (c *Catalog) OperatorsFor(key string) []types.Operator {
	dataType, _ := c.DataTypeOf(key)
	switch dataType {
	case types.DataTypeArray:
		return arrayOperators
	case types.DataTypeDate, types.DataTypeNumber, types.DataTypeFloat:
		return rangeOperators
	default:
		return textOperators
	}
}

// OperatorOptions returns OperatorsFor with labels.
func (c *Catalog) OperatorOptions(key string) []Option[types.Operator] {
	return lo.Map(c.OperatorsFor(key), func(op types.Operator, _ int) Option[types.Operator] {
		return Option[types.Operator]{Value: op, Label: OperatorLabel(op)}
	})
}

// DefaultFilterFor returns the filter a newly added field starts with.
func (c *Catalog) DefaultFilterFor(key string) models.Filter {
	op := types.OperatorEquals
	if dataType, _ := c.DataTypeOf(key); dataType == types.DataTypeArray {
		op = types.OperatorArrayContains
	}
	return models.Filter{Field: key, Operator: op, Value: ""}
}

func (c *Catalog) InputTypeFor(key string) InputType {
	dataType, _ := c.DataTypeOf(key)
	switch dataType {
	case types.DataTypeDate:
		return InputDate
	case types.DataTypeNumber, types.DataTypeFloat:
		return InputNumber
	default:
		return InputText
	}
}

// FieldLabel returns the catalog label of a composite key without its origin.
// Unknown keys return the key itself.
func (c *Catalog) FieldLabel(key string) string {
	af, ok := c.byKey[key]
	if !ok {
		return key
	}
	return c.Label(af.EntityType, af.Field)
}

// OriginOf returns the entity label a composite key belongs to.
func (c *Catalog) OriginOf(key string) string {
	af, ok := c.byKey[key]
	if !ok {
		return ""
	}
	e, _ := c.Entity(af.EntityType)
	return e.Label
}

// HeaderLabel returns the column header of a display field.
func (c *Catalog) HeaderLabel(f models.Field) string {
	return c.Label(f.Type, f.Field)
}

// DefaultRangeField returns the configured range field of a report type when
// it is part of the display selection.
func (c *Catalog) DefaultRangeField(reportType string, displayFields models.Fields) string {
	key := c.config.DefaultRangeFields[reportType]
	if key == "" {
		return ""
	}
	if _, ok := displayFields.ByKey(key); !ok {
		return ""
	}
	return key
}

// Annotate fills in missing data types of display fields from the catalog.
func (c *Catalog) Annotate(fields models.Fields) models.Fields {
	out := fields.Clone()
	for i := range out {
		if out[i].DataType != "" {
			continue
		}
		if dataType, ok := c.DataTypeOf(out[i].Key()); ok {
			out[i].DataType = dataType
		}
	}
	return out
}

// ArrayFilterOptions returns the distinct non blank values of a column,
// sorted with German collation. Array cells contribute each element.
func ArrayFilterOptions(rows []types.Row, key string) []string {
	var values []string
	for _, row := range rows {
		v := row[key]
		items, ok := types.AsSlice(v)
		if !ok {
			items = []any{v}
		}
		for _, item := range items {
			if s := strings.TrimSpace(types.Stringify(item)); s != "" {
				values = append(values, s)
			}
		}
	}

	values = lo.Uniq(values)
	collate.New(language.German).SortStrings(values)
	return values
}
