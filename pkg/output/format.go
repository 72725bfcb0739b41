// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/format"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders results in the named format.
func Write(w io.Writer, outputFormat string, results []calculator.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		return CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	case constants.OutputFormatPrometheus:
		return PrometheusFormat(w, results)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []calculator.Result) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		a := result.Assessment
		_, _ = p.Fprintf(w, "--- Results for scenario %s ---\n", result.Name)

		for _, group := range []metrics.Group{metrics.GroupFinancialOverview, metrics.GroupKeyMetrics} {
			_, _ = p.Fprintf(w, "%s\n", group)
			for _, d := range metrics.CatalogGroup(group) {
				_, _ = p.Fprintf(w, "  %-14s| %s\n", d.Label, result.Metrics.Formatted(d))
			}
		}

		if a.HasValuation {
			multiple := strconv.FormatFloat(constants.ValuationMultiple, 'g', -1, 64)
			_, _ = p.Fprintf(w, "Estimated Valuation (%sx L12M Profit): %s\n", multiple, format.Currency(a.Valuation))
		}

		_, _ = p.Fprintf(w, "Business Health: %s\n", a.Tier)
		_, _ = p.Fprintf(w, "  Profit Margin     | %s\n", format.Percent(a.ProfitMargin, 1))
		_, _ = p.Fprintf(w, "  Monthly Burn Rate | %s\n", format.Currency(a.MonthlyBurnRate))
		_, _ = p.Fprintf(w, "  Runway            | %s\n", a.Runway)

		writeList(w, "Strengths", a.Strengths)
		writeList(w, "Opportunities", a.Opportunities)

		_, _ = fmt.Fprintf(w, "Summary\n  %s\n", a.Summary)
		_, err := fmt.Fprintf(w, "Acquisition Potential\n  %s\n", a.AcquisitionPotential)
		if err != nil {
			return err
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintln(w)
		}
	}
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	_, _ = fmt.Fprintf(w, "%s\n", title)
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", item)
	}
}

// CsvFormat outputs in comma-separated value format with one row per metric
// and one column per scenario.
func CsvFormat(w io.Writer, results []calculator.Result) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(results)+1)
	header = append(header, "metric")
	for _, result := range results {
		header = append(header, result.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, d := range metrics.Catalog() {
		row := []string{string(d.Key)}
		for _, result := range results {
			v, _ := result.Metrics.Value(d.Key)
			row = append(row, csvNumber(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	extra := []struct {
		name  string
		value func(calculator.Result) string
	}{
		{"profitMargin", func(r calculator.Result) string { return csvNumber(r.Assessment.ProfitMargin) }},
		{"monthlyBurnRate", func(r calculator.Result) string { return csvNumber(r.Assessment.MonthlyBurnRate) }},
		{"runwayMonths", func(r calculator.Result) string {
			if r.Assessment.Runway.Profitable {
				return "profitable"
			}
			return csvNumber(r.Assessment.Runway.Months)
		}},
		{"estimatedValuation", func(r calculator.Result) string {
			if !r.Assessment.HasValuation {
				return ""
			}
			return csvNumber(r.Assessment.Valuation)
		}},
		{"healthTier", func(r calculator.Result) string { return string(r.Assessment.Tier) }},
	}
	for _, e := range extra {
		row := []string{e.name}
		for _, result := range results {
			row = append(row, e.value(result))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvNumber(v float64) string {
	if !mathutil.IsFinite(v) {
		return constants.NotAvailable
	}
	return mathutil.ToFixed(v, 2)
}
