package output

import (
	"encoding/json"
	"io"

	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
)

// ResultDocument is the JSON form of a calculator.Result. Numbers that are
// not finite are encoded as null.
type ResultDocument struct {
	Name       string                   `json:"name,omitempty"`
	Inputs     metrics.RawInputs        `json:"inputs"`
	Metrics    map[metrics.Key]*float64 `json:"metrics"`
	Assessment AssessmentDocument       `json:"assessment"`
	Valuation  *ValuationDocument       `json:"valuation"`
}

// AssessmentDocument is the JSON form of a health.Assessment.
type AssessmentDocument struct {
	Tier                 string         `json:"tier"`
	ProfitMargin         *float64       `json:"profitMargin"`
	MonthlyBurnRate      *float64       `json:"monthlyBurnRate"`
	Runway               RunwayDocument `json:"runway"`
	Strengths            []string       `json:"strengths"`
	Opportunities        []string       `json:"opportunities"`
	Summary              string         `json:"summary"`
	AcquisitionPotential string         `json:"acquisitionPotential"`
}

// RunwayDocument carries the runway both as data and as display text.
type RunwayDocument struct {
	Profitable bool     `json:"profitable"`
	Months     *float64 `json:"months"`
	Display    string   `json:"display"`
}

// ValuationDocument is present only for profitable businesses.
type ValuationDocument struct {
	Multiple float64 `json:"multiple"`
	Value    float64 `json:"value"`
}

// NewResultDocument converts a result for JSON encoding.
func NewResultDocument(r calculator.Result) ResultDocument {
	values := make(map[metrics.Key]*float64, len(metrics.Catalog()))
	for _, d := range metrics.Catalog() {
		v, _ := r.Metrics.Value(d.Key)
		values[d.Key] = mathutil.FiniteOrNil(v)
	}

	a := r.Assessment
	doc := ResultDocument{
		Name:    r.Name,
		Inputs:  r.Inputs,
		Metrics: values,
		Assessment: AssessmentDocument{
			Tier:            string(a.Tier),
			ProfitMargin:    mathutil.FiniteOrNil(a.ProfitMargin),
			MonthlyBurnRate: mathutil.FiniteOrNil(a.MonthlyBurnRate),
			Runway: RunwayDocument{
				Profitable: a.Runway.Profitable,
				Display:    a.Runway.String(),
			},
			Strengths:            nonNil(a.Strengths),
			Opportunities:        nonNil(a.Opportunities),
			Summary:              a.Summary,
			AcquisitionPotential: a.AcquisitionPotential,
		},
	}
	if !a.Runway.Profitable {
		doc.Assessment.Runway.Months = mathutil.FiniteOrNil(a.Runway.Months)
	}
	if a.HasValuation {
		doc.Valuation = &ValuationDocument{Multiple: constants.ValuationMultiple, Value: a.Valuation}
	}
	return doc
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// JSONFormat outputs an indented JSON array with one document per scenario.
func JSONFormat(w io.Writer, results []calculator.Result) error {
	docs := make([]ResultDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, NewResultDocument(r))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
