// Package adapters converts configuration and request payloads into the raw
// inputs the metrics engine works on.
package adapters

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/iwvelando/saas-metrics/internal/config"
	"github.com/iwvelando/saas-metrics/internal/metrics"
)

// Input field names as they appear in files and request bodies.
const (
	FieldMonthlyRevenue   = "monthlyRevenue"
	FieldL12MExpenses     = "l12mExpenses"
	FieldCustomerCount    = "customerCount"
	FieldChurnRate        = "churnRate"
	FieldExpansionRevenue = "expansionRevenue"
)

// leadingNumber matches the numeric prefix a lenient number parser accepts,
// e.g. "12.5" from "12.5 customers".
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ToFloat coerces a loosely typed value into a float64. Unparsable, empty,
// and non-finite values become 0; coercion never fails.
func ToFloat(value interface{}) float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		f = parseString(v.String())
	case string:
		f = parseString(v)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseString(s string) float64 {
	prefix := leadingNumber.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// InputsToRawInputs coerces a configuration inputs block.
func InputsToRawInputs(in config.Inputs) metrics.RawInputs {
	return metrics.RawInputs{
		MonthlyRevenue:   ToFloat(in.MonthlyRevenue),
		L12MExpenses:     ToFloat(in.L12MExpenses),
		CustomerCount:    ToFloat(in.CustomerCount),
		ChurnRate:        ToFloat(in.ChurnRate),
		ExpansionRevenue: ToFloat(in.ExpansionRevenue),
	}
}

// MapToRawInputs coerces a decoded JSON or form payload keyed by input field
// name. Missing keys are 0; unrelated keys are ignored.
func MapToRawInputs(values map[string]interface{}) metrics.RawInputs {
	return metrics.RawInputs{
		MonthlyRevenue:   ToFloat(values[FieldMonthlyRevenue]),
		L12MExpenses:     ToFloat(values[FieldL12MExpenses]),
		CustomerCount:    ToFloat(values[FieldCustomerCount]),
		ChurnRate:        ToFloat(values[FieldChurnRate]),
		ExpansionRevenue: ToFloat(values[FieldExpansionRevenue]),
	}
}

// QueryToRawInputs coerces query-string style values, using the first value
// of each field.
func QueryToRawInputs(values map[string][]string) metrics.RawInputs {
	flat := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	return MapToRawInputs(flat)
}
