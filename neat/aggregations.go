package neat

import (
	"fmt"
	"math"
)

// AggregationType is the signature shared by all node aggregation functions.
type AggregationType func(inputs []float64) float64

// AggregationFunctions maps function names to implementations.
var AggregationFunctions = map[string]AggregationType{
	"sum":     Sum,
	"product": AggregateProduct,
	"min":     MinFloat,
	"max":     MaxFloat,
	"mean":    Mean,
	"average": Mean,
	"median":  Median,
	"maxabs":  AggregateMaxAbs,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationType, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateProduct returns the product of the inputs (1.0 when empty).
func AggregateProduct(inputs []float64) float64 {
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

// AggregateMaxAbs returns the input with the largest magnitude.
func AggregateMaxAbs(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	maxVal := inputs[0]
	for _, v := range inputs[1:] {
		if math.Abs(v) > math.Abs(maxVal) {
			maxVal = v
		}
	}
	return maxVal
}
