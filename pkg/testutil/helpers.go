// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
)

// Tolerance is the absolute difference under which two floats are considered
// equal in tests.
const Tolerance = 1e-9

// FindResult finds a result by scenario name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []calculator.Result, name string) *calculator.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// TypicalInputs is a profitable business with healthy retention:
// $10,000 MRR, $60,000 annual expenses, 50 customers, 2% churn and $500 of
// monthly expansion revenue.
func TypicalInputs() metrics.RawInputs {
	return metrics.RawInputs{
		MonthlyRevenue:   10000,
		L12MExpenses:     60000,
		CustomerCount:    50,
		ChurnRate:        2,
		ExpansionRevenue: 500,
	}
}

// UnprofitableInputs loses $24,000 a year at a $3,000 monthly burn rate.
func UnprofitableInputs() metrics.RawInputs {
	return metrics.RawInputs{
		MonthlyRevenue: 1000,
		L12MExpenses:   36000,
		CustomerCount:  10,
		ChurnRate:      10,
	}
}

// FloatEquals reports whether a and b are equal within Tolerance. Two NaNs
// are equal, as are two infinities of the same sign.
func FloatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return mathutil.WithinTolerance(a, b, Tolerance)
}
