// Package format renders numbers for display.
package format

import (
	"math"

	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
// Cents are rounded with mathutil.ToFixed. Non-finite values render as "N/A".
func Currency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return constants.NotAvailable
	}
	p := message.NewPrinter(language.English)
	rounded := mathutil.RoundTo(math.Abs(amount), 2)
	if amount < 0 && rounded != 0 {
		return p.Sprintf("-$%.2f", rounded)
	}
	return p.Sprintf("$%.2f", rounded)
}

// Percent returns value with the given number of decimals and a trailing "%".
func Percent(value float64, decimals int) string {
	if !mathutil.IsFinite(value) {
		return constants.NotAvailable
	}
	return mathutil.ToFixed(value, decimals) + "%"
}

// Months renders a month count with one decimal.
func Months(value float64) string {
	if !mathutil.IsFinite(value) {
		return constants.NotAvailable
	}
	return mathutil.ToFixed(value, 1) + " months"
}
