// Package glossary holds the read-only reference text shown next to metrics:
// short tooltips for each derived metric and the longer metrics guide.
package glossary

import "github.com/iwvelando/saas-metrics/internal/metrics"

// Term is one entry of the metrics guide.
type Term struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Formula     string `json:"formula"`
}

// Category groups related guide terms.
type Category struct {
	Name  string `json:"name"`
	Terms []Term `json:"terms"`
}

var tooltips = map[metrics.Key]string{
	metrics.KeyL12MRevenue:  "Last 12 Months Revenue - Total revenue generated in the past year",
	metrics.KeyL12MExpenses: "Last 12 Months Expenses - Total expenses incurred in the past year",
	metrics.KeyL12MProfit:   "Last 12 Months Profit - Net profit generated in the past year",
	metrics.KeyMRR:          "Monthly Recurring Revenue - Predictable revenue generated each month",
	metrics.KeyARR:          "Annual Recurring Revenue - Yearly predictable revenue",
	metrics.KeyARPC:         "Average Revenue Per Customer - Average monthly revenue per customer",
	metrics.KeyCLV:          "Customer Lifetime Value - Total expected revenue from a single customer",
	metrics.KeyNRR:          "Net Revenue Retention - Revenue retained including expansions/contractions",
}

var guide = []Category{
	{
		Name: "Growth & Expansion",
		Terms: []Term{
			{
				Name:        "Quick Ratio",
				Description: "Measures how quickly a company can grow MRR compared to MRR losses. A ratio > 1 indicates growth.",
				Formula:     "(New MRR + Expansion MRR) / (Churned MRR + Contraction MRR)",
			},
			{
				Name:        "Customer Acquisition Cost (CAC)",
				Description: "Total sales and marketing costs divided by the number of new customers acquired.",
				Formula:     "Total Sales & Marketing Costs / New Customers Acquired",
			},
			{
				Name:        "Customer Lifetime Value (CLV)",
				Description: "The total revenue expected from a customer throughout the business relationship.",
				Formula:     "ARPA × Customer Lifetime (1/Churn Rate)",
			},
		},
	},
	{
		Name: "Revenue Metrics",
		Terms: []Term{
			{
				Name:        "Monthly Recurring Revenue (MRR)",
				Description: "Predictable revenue generated each month from all active subscriptions.",
				Formula:     "Sum of all monthly subscription values",
			},
			{
				Name:        "Annual Recurring Revenue (ARR)",
				Description: "Yearly version of MRR, showing predicted annual revenue.",
				Formula:     "MRR × 12",
			},
			{
				Name:        "Average Revenue Per Account (ARPA)",
				Description: "Average monthly revenue generated per customer.",
				Formula:     "Total MRR / Total Number of Customers",
			},
		},
	},
	{
		Name: "Customer Success",
		Terms: []Term{
			{
				Name:        "Churn Rate",
				Description: "The rate at which customers cancel their subscriptions.",
				Formula:     "(Lost Customers / Total Customers at Start) × 100",
			},
			{
				Name:        "Net Revenue Retention (NRR)",
				Description: "Measures revenue retained from existing customers including expansions and contractions.",
				Formula:     "((Starting MRR + Expansion - Churn - Contraction) / Starting MRR) × 100",
			},
			{
				Name:        "Customer Health Score",
				Description: "Composite score indicating likelihood of renewal based on usage, support tickets, and engagement.",
				Formula:     "Weighted average of usage metrics, support interactions, and engagement indicators",
			},
		},
	},
}

// Tooltip returns the short description of a derived metric.
func Tooltip(key metrics.Key) (string, bool) {
	text, ok := tooltips[key]
	return text, ok
}

// Tooltips returns every tooltip keyed by metric key.
func Tooltips() map[metrics.Key]string {
	out := make(map[metrics.Key]string, len(tooltips))
	for k, v := range tooltips {
		out[k] = v
	}
	return out
}

// Guide returns a deep copy of the metrics guide.
func Guide() []Category {
	out := make([]Category, len(guide))
	for i, c := range guide {
		out[i] = Category{Name: c.Name, Terms: append([]Term(nil), c.Terms...)}
	}
	return out
}
