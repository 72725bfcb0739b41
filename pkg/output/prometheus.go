package output

import (
	"io"
	"strings"
	"unicode"

	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/glossary"
	"github.com/iwvelando/saas-metrics/internal/health"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// MetricPrefix is prepended to every exported metric name.
const MetricPrefix = "saas_"

// MetricName returns the exposition name of a catalog metric, for example
// saas_l12m_revenue.
func MetricName(key metrics.Key) string {
	var b strings.Builder
	b.WriteString(MetricPrefix)
	for _, r := range string(key) {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MetricFamilies builds one gauge family per metric with a sample per
// scenario. Families without samples are omitted.
func MetricFamilies(results []calculator.Result) []*dto.MetricFamily {
	var families []*dto.MetricFamily
	add := func(name, help string, value func(calculator.Result) (float64, bool), extra func(calculator.Result) []*dto.LabelPair) {
		mf := &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		for _, r := range results {
			v, ok := value(r)
			if !ok {
				continue
			}
			labels := []*dto.LabelPair{{Name: proto.String("scenario"), Value: proto.String(r.Name)}}
			if extra != nil {
				labels = append(labels, extra(r)...)
			}
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: labels,
				Gauge: &dto.Gauge{Value: proto.Float64(v)},
			})
		}
		if len(mf.Metric) > 0 {
			families = append(families, mf)
		}
	}

	for _, d := range metrics.Catalog() {
		key := d.Key
		help, _ := glossary.Tooltip(key)
		add(MetricName(key), help, func(r calculator.Result) (float64, bool) {
			return r.Metrics.Value(key)
		}, nil)
	}

	add(MetricPrefix+"profit_margin_percent", "L12M profit as a percentage of L12M revenue",
		func(r calculator.Result) (float64, bool) { return r.Assessment.ProfitMargin, true }, nil)
	add(MetricPrefix+"monthly_burn_rate", "Average monthly expenses",
		func(r calculator.Result) (float64, bool) { return r.Assessment.MonthlyBurnRate, true }, nil)
	add(MetricPrefix+"runway_months", "Months of loss the business can cover at the current burn rate",
		func(r calculator.Result) (float64, bool) {
			return r.Assessment.Runway.Months, !r.Assessment.Runway.Profitable
		}, nil)
	add(MetricPrefix+"estimated_valuation", "Estimated valuation of a profitable business",
		func(r calculator.Result) (float64, bool) { return r.Assessment.Valuation, r.Assessment.HasValuation }, nil)
	add(MetricPrefix+"health_tier", "Business health tier, 1 for the current tier",
		func(r calculator.Result) (float64, bool) { return 1, true },
		func(r calculator.Result) []*dto.LabelPair {
			return []*dto.LabelPair{{Name: proto.String("tier"), Value: proto.String(tierLabel(r.Assessment.Tier))}}
		})

	return families
}

func tierLabel(t health.Tier) string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "_")
}

// PrometheusFormat outputs the results in the Prometheus text exposition
// format.
func PrometheusFormat(w io.Writer, results []calculator.Result) error {
	for _, mf := range MetricFamilies(results) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
