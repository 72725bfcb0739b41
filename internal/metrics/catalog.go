package metrics

import (
	"strings"

	"github.com/iwvelando/saas-metrics/pkg/format"
)

// Key identifies a metric in a MetricSet.
type Key string

// Metric keys in display order.
const (
	KeyL12MRevenue  Key = "l12mRevenue"
	KeyL12MExpenses Key = "l12mExpenses"
	KeyL12MProfit   Key = "l12mProfit"
	KeyMRR          Key = "mrr"
	KeyARR          Key = "arr"
	KeyARPC         Key = "arpc"
	KeyCLV          Key = "clv"
	KeyNRR          Key = "nrr"
)

// Kind selects how a metric value is rendered.
type Kind int

const (
	KindCurrency Kind = iota
	KindPercent
)

// Format renders v according to the kind.
func (k Kind) Format(v float64) string {
	if k == KindPercent {
		return format.Percent(v, 2)
	}
	return format.Currency(v)
}

// String returns the kind name used in API payloads.
func (k Kind) String() string {
	if k == KindPercent {
		return "percent"
	}
	return "currency"
}

// Group is the display panel a metric belongs to.
type Group string

const (
	GroupFinancialOverview Group = "Financial Overview"
	GroupKeyMetrics        Group = "Key Metrics"
)

// Descriptor describes one row of the metric display table.
type Descriptor struct {
	Key   Key
	Label string
	Kind  Kind
	Group Group
}

var catalog = []Descriptor{
	{Key: KeyL12MRevenue, Label: "L12M REVENUE", Kind: KindCurrency, Group: GroupFinancialOverview},
	{Key: KeyL12MExpenses, Label: "L12M EXPENSES", Kind: KindCurrency, Group: GroupFinancialOverview},
	{Key: KeyL12MProfit, Label: "L12M PROFIT", Kind: KindCurrency, Group: GroupFinancialOverview},
	{Key: KeyMRR, Label: strings.ToUpper(string(KeyMRR)), Kind: KindCurrency, Group: GroupKeyMetrics},
	{Key: KeyARR, Label: strings.ToUpper(string(KeyARR)), Kind: KindCurrency, Group: GroupKeyMetrics},
	{Key: KeyARPC, Label: strings.ToUpper(string(KeyARPC)), Kind: KindCurrency, Group: GroupKeyMetrics},
	{Key: KeyCLV, Label: strings.ToUpper(string(KeyCLV)), Kind: KindCurrency, Group: GroupKeyMetrics},
	{Key: KeyNRR, Label: strings.ToUpper(string(KeyNRR)), Kind: KindPercent, Group: GroupKeyMetrics},
}

// Catalog returns the metric descriptors in display order. The returned slice
// is a copy.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogGroup returns the descriptors of a single display group.
func CatalogGroup(group Group) []Descriptor {
	var out []Descriptor
	for _, d := range catalog {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}

// Value returns the metric identified by key. The boolean is false for an
// unknown key.
func (m MetricSet) Value(key Key) (float64, bool) {
	switch key {
	case KeyL12MRevenue:
		return m.L12MRevenue, true
	case KeyL12MExpenses:
		return m.L12MExpenses, true
	case KeyL12MProfit:
		return m.L12MProfit, true
	case KeyMRR:
		return m.MRR, true
	case KeyARR:
		return m.ARR, true
	case KeyARPC:
		return m.ARPC, true
	case KeyCLV:
		return m.CLV, true
	case KeyNRR:
		return m.NRR, true
	}
	return 0, false
}

// Formatted returns the display string for the metric identified by d.
func (m MetricSet) Formatted(d Descriptor) string {
	v, _ := m.Value(d.Key)
	return d.Kind.Format(v)
}
