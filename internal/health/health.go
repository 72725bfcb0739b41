// Package health turns a derived MetricSet into a qualitative business health
// assessment: a tier label, strength and opportunity statements, and narrative
// paragraphs.
package health

import (
	"fmt"
	"math"

	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/format"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
)

// NoMetricsMessage is shown by presentation layers that have nothing to
// classify yet.
const NoMetricsMessage = "Please enter your business metrics in the calculator tab first."

// Tier is the qualitative health label.
type Tier string

// Tiers from best to worst.
const (
	TierExcellent        Tier = "Excellent"
	TierGood             Tier = "Good"
	TierFair             Tier = "Fair"
	TierNeedsImprovement Tier = "Needs Improvement"
)

// Tiers returns every tier, best first.
func Tiers() []Tier {
	return []Tier{TierExcellent, TierGood, TierFair, TierNeedsImprovement}
}

// TierForMargin maps a profit margin (percent) to a tier. Thresholds are
// strict, so a margin of exactly 20 is Good and exactly 10 is Fair. NaN is
// Needs Improvement.
func TierForMargin(margin float64) Tier {
	switch {
	case margin > constants.ExcellentMarginThreshold:
		return TierExcellent
	case margin > constants.GoodMarginThreshold:
		return TierGood
	case margin > constants.FairMarginThreshold:
		return TierFair
	default:
		return TierNeedsImprovement
	}
}

// Runway is either "Profitable" or the number of months the business can
// cover its loss at the current burn rate.
type Runway struct {
	Profitable bool
	Months     float64
}

// String renders the runway for display.
func (r Runway) String() string {
	if r.Profitable {
		return "Profitable"
	}
	return format.Months(r.Months)
}

// Assessment is the classifier output. It is recomputed from a MetricSet on
// every call and never mutated.
type Assessment struct {
	Tier                 Tier
	ProfitMargin         float64
	MonthlyBurnRate      float64
	Runway               Runway
	Strengths            []string
	Opportunities        []string
	Summary              string
	AcquisitionPotential string
	Valuation            float64
	HasValuation         bool
}

// signals are the values every catalog rule is evaluated against.
type signals struct {
	m      metrics.MetricSet
	margin float64
}

type rule struct {
	text  string
	match func(s signals) bool
}

var strengthRules = []rule{
	{"Established recurring revenue stream", func(s signals) bool { return s.m.MRR > 0 }},
	{"Healthy profit margins", func(s signals) bool { return s.margin > constants.GoodMarginThreshold }},
	{"Strong revenue retention", func(s signals) bool { return s.m.NRR >= constants.NRRRetentionThreshold }},
	{"Good customer lifetime value", func(s signals) bool { return s.m.CLV > s.m.ARPC*constants.CLVStrengthMonths }},
}

var opportunityRules = []rule{
	{"Focus on customer retention and reducing churn", func(s signals) bool { return s.m.NRR < constants.NRRRetentionThreshold }},
	{"Potential for pricing optimization and upselling", func(s signals) bool { return s.m.ARPC < s.m.MRR*constants.ARPCUpsellRatio }},
	{"Room for operational efficiency improvements", func(s signals) bool { return s.margin < constants.ExcellentMarginThreshold }},
	{"Opportunity to increase customer lifetime value", func(s signals) bool { return s.m.CLV < s.m.ARPC*constants.CLVOpportunityMonths }},
}

// Classify assesses the given metrics.
func Classify(m metrics.MetricSet) Assessment {
	s := signals{m: m, margin: ProfitMargin(m)}
	valuation, hasValuation := metrics.EstimatedValuation(m.L12MProfit)

	return Assessment{
		Tier:                 TierForMargin(s.margin),
		ProfitMargin:         s.margin,
		MonthlyBurnRate:      MonthlyBurnRate(m),
		Runway:               RunwayFor(m),
		Strengths:            evaluate(strengthRules, s),
		Opportunities:        evaluate(opportunityRules, s),
		Summary:              summary(s),
		AcquisitionPotential: acquisitionPotential(s),
		Valuation:            valuation,
		HasValuation:         hasValuation,
	}
}

// ProfitMargin is L12M profit as a percentage of L12M revenue. Zero revenue
// yields NaN or an infinity; callers render that as unavailable.
func ProfitMargin(m metrics.MetricSet) float64 {
	return (m.L12MProfit / m.L12MRevenue) * constants.PercentageMultiplier
}

// MonthlyBurnRate is the average monthly expense.
func MonthlyBurnRate(m metrics.MetricSet) float64 {
	return m.L12MExpenses / constants.MonthsPerYear
}

// RunwayFor computes the runway, rounded to one decimal month.
func RunwayFor(m metrics.MetricSet) Runway {
	if m.L12MProfit > 0 {
		return Runway{Profitable: true}
	}
	return Runway{Months: mathutil.RoundTo(math.Abs(m.L12MProfit/MonthlyBurnRate(m)), 1)}
}

func evaluate(rules []rule, s signals) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.match(s) {
			out = append(out, r.text)
		}
	}
	return out
}

func summary(s signals) string {
	standing := "growing"
	if s.m.L12MProfit > 0 {
		standing = "profitable"
	}
	sign := "negative"
	if s.margin > 0 {
		sign = "positive"
	}

	text := fmt.Sprintf("This %s micro-SaaS business generates %s in monthly recurring revenue, with a %s profit margin of %s.",
		standing, format.Currency(s.m.MRR), sign, format.Percent(math.Abs(s.margin), 1))
	if valuation, ok := metrics.EstimatedValuation(s.m.L12MProfit); ok {
		text += fmt.Sprintf(" At the current %gx multiple, the business is valued at %s.",
			constants.ValuationMultiple, format.Currency(valuation))
	}
	return text
}

func acquisitionPotential(s signals) string {
	if s.m.L12MProfit <= 0 {
		return "The business currently requires optimization to achieve profitability before considering an exit. " +
			"Focus on reducing costs and improving revenue retention."
	}

	strength, margins := "reasonable", "positive"
	if s.margin > constants.ExcellentMarginThreshold {
		strength, margins = "strong", "excellent"
	}
	retention := "There's room for improving customer retention and expansion."
	if s.m.NRR >= constants.NRRRetentionThreshold {
		retention = "Strong revenue retention indicates satisfied customers and product-market fit."
	}
	return fmt.Sprintf("This business represents a %s acquisition opportunity with established revenue and %s profit margins. %s",
		strength, margins, retention)
}
