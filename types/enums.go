package types

import "github.com/samber/lo"

// DataType is the declared type of a catalog field.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeFloat   DataType = "float"
	DataTypeDate    DataType = "date"
	DataTypeBoolean DataType = "boolean"
	DataTypeArray   DataType = "array"
)

var DataTypes = []DataType{DataTypeString, DataTypeNumber, DataTypeFloat, DataTypeDate, DataTypeBoolean, DataTypeArray}

func (d DataType) IsNumeric() bool {
	return d == DataTypeNumber || d == DataTypeFloat
}

func (d DataType) Valid() bool {
	return lo.Contains(DataTypes, d)
}

// Aggregation is the aggregation method of a display field.
type Aggregation string

const (
	AggregationNone    Aggregation = "none"
	AggregationSum     Aggregation = "sum"
	AggregationAverage Aggregation = "average"
	AggregationCount   Aggregation = "count"
	AggregationMin     Aggregation = "min"
	AggregationMax     Aggregation = "max"
)

// IsSet reports whether the aggregation designates a field.
// An empty aggregation is treated as none.
func (a Aggregation) IsSet() bool {
	return a != "" && a != AggregationNone
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Operator is a filter operator.
type Operator string

const (
	OperatorEquals           Operator = "equals"
	OperatorContains         Operator = "contains"
	OperatorGreater          Operator = "greater"
	OperatorLess             Operator = "less"
	OperatorStartsWith       Operator = "startsWith"
	OperatorEndsWith         Operator = "endsWith"
	OperatorBetween          Operator = "between"
	OperatorArrayContains    Operator = "array_contains"
	OperatorArrayNotContains Operator = "array_not_contains"
	OperatorArrayIsEmpty     Operator = "array_is_empty"
	OperatorArrayIsNotEmpty  Operator = "array_is_not_empty"
)

// IsArray reports whether the operator works on array membership.
func (o Operator) IsArray() bool {
	switch o {
	case OperatorArrayContains, OperatorArrayNotContains, OperatorArrayIsEmpty, OperatorArrayIsNotEmpty:
		return true
	}
	return false
}

// InitialValue is the value a filter gets when its operator changes.
func (o Operator) InitialValue() string {
	if o == OperatorBetween {
		return RangeSeparator
	}
	return ""
}

const (
	// RangeSeparator splits the bounds of a between value: "{from}|{to}".
	RangeSeparator = "|"

	// ListSeparator splits the selected values of an array filter: "a||b".
	ListSeparator = "||"
)
