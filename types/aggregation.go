package types

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var Aggregations = []Aggregation{AggregationSum, AggregationAverage, AggregationCount, AggregationMin, AggregationMax}

// Aggregate reduces values with the given method.
// Empty input yields 0 for every method, unknown methods yield 0.
func Aggregate(method Aggregation, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	switch method {
	case AggregationSum:
		return floats.Sum(values)
	case AggregationAverage:
		return stat.Mean(values, nil)
	case AggregationCount:
		return float64(len(values))
	case AggregationMin:
		return floats.Min(values)
	case AggregationMax:
		return floats.Max(values)
	default:
		return 0
	}
}

// AggregateField collects field from rows and aggregates it. Without a field
// every row counts as 1; non-numeric values count as 0.
func AggregateField(rows []Row, field string, method Aggregation) float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if field == "" {
			values = append(values, 1)
			continue
		}
		n, _ := ToNumber(row[field])
		values = append(values, n)
	}
	return Aggregate(method, values)
}
