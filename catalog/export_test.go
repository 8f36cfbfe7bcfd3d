package catalog

var (
	ArrayOperators = arrayOperators
	RangeOperators = rangeOperators
	TextOperators  = textOperators
)
