// Package metrics derives the SaaS metric set from raw business inputs.
//
// Derive is a pure, total function: identical inputs always produce an
// identical MetricSet, and degenerate arithmetic (no customers, no churn, no
// revenue) resolves to 0 instead of NaN or infinity.
package metrics

import (
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
)

// RawInputs holds the five user-entered numbers. Values have already been
// coerced to float64; ChurnRate is in percent and is not range checked.
type RawInputs struct {
	MonthlyRevenue   float64 `json:"monthlyRevenue" yaml:"monthlyRevenue"`
	L12MExpenses     float64 `json:"l12mExpenses" yaml:"l12mExpenses"`
	CustomerCount    float64 `json:"customerCount" yaml:"customerCount"`
	ChurnRate        float64 `json:"churnRate" yaml:"churnRate"`
	ExpansionRevenue float64 `json:"expansionRevenue" yaml:"expansionRevenue"`
}

// MetricSet is the derived, immutable set of business metrics.
type MetricSet struct {
	L12MRevenue  float64 `json:"l12mRevenue"`
	L12MExpenses float64 `json:"l12mExpenses"`
	L12MProfit   float64 `json:"l12mProfit"`
	MRR          float64 `json:"mrr"`
	ARR          float64 `json:"arr"`
	ARPC         float64 `json:"arpc"`
	CLV          float64 `json:"clv"`
	NRR          float64 `json:"nrr"`
}

// Derive computes the MetricSet for the given inputs.
func Derive(inputs RawInputs) MetricSet {
	mrr := inputs.MonthlyRevenue
	arr := mrr * constants.MonthsPerYear
	// ARR doubles as the trailing twelve month revenue figure.
	l12mRevenue := arr
	l12mExpenses := inputs.L12MExpenses
	l12mProfit := l12mRevenue - l12mExpenses

	var arpc float64
	if inputs.CustomerCount > 0 {
		arpc = mrr / inputs.CustomerCount
	}

	clv := arpc * AverageLifetimeMonths(inputs.ChurnRate)

	var nrr float64
	if mrr > 0 {
		churnedMRR := mathutil.ApplyPercentage(mrr, inputs.ChurnRate)
		nrr = ((mrr - churnedMRR + inputs.ExpansionRevenue) / mrr) * constants.PercentageMultiplier
	}

	return MetricSet{
		L12MRevenue:  l12mRevenue,
		L12MExpenses: l12mExpenses,
		L12MProfit:   l12mProfit,
		MRR:          mrr,
		ARR:          arr,
		ARPC:         arpc,
		CLV:          clv,
		NRR:          nrr,
	}
}

// MonthlyChurnRate converts a churn percentage into a fraction.
func MonthlyChurnRate(churnPct float64) float64 {
	return churnPct / constants.PercentageMultiplier
}

// AverageLifetimeMonths is the expected customer lifetime implied by a churn
// percentage. Zero or negative churn yields a lifetime of 0, not infinity.
func AverageLifetimeMonths(churnPct float64) float64 {
	rate := MonthlyChurnRate(churnPct)
	if rate > 0 {
		return 1 / rate
	}
	return 0
}

// EstimatedValuation applies the fixed 5x L12M profit multiple. The second
// return value is false when the business is not profitable, in which case no
// valuation is shown.
func EstimatedValuation(l12mProfit float64) (float64, bool) {
	if l12mProfit > 0 {
		return l12mProfit * constants.ValuationMultiple, true
	}
	return 0, false
}
