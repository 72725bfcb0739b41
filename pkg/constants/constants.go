// Package constants provides shared constants for the saas-metrics application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// ValuationMultiple is the micro-SaaS exit multiple applied to L12M profit.
	ValuationMultiple = 5.0
)

// Health tier thresholds on profit margin (percent). Comparisons are strict.
const (
	ExcellentMarginThreshold = 20.0
	GoodMarginThreshold      = 10.0
	FairMarginThreshold      = 0.0

	// NRRRetentionThreshold is the net revenue retention (percent) at or above
	// which revenue is considered retained.
	NRRRetentionThreshold = 100.0

	// ARPCUpsellRatio is the share of MRR below which ARPC suggests pricing headroom.
	ARPCUpsellRatio = 0.1

	// CLVStrengthMonths and CLVOpportunityMonths are CLV benchmarks in months of ARPC.
	CLVStrengthMonths    = 12
	CLVOpportunityMonths = 24
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatPrometheus is the Prometheus text exposition format
	OutputFormatPrometheus = "prometheus"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of config keys.
	EnvPrefix = "SAASMETRICS"

	// DefaultScenarioName names the scenario built from a top-level inputs block.
	DefaultScenarioName = "default"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultCacheTTLSeconds is the default lifetime of cached API results.
	DefaultCacheTTLSeconds = 300

	// DefaultCacheSize is the default number of results the memory cache holds.
	DefaultCacheSize = 10000
)

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// NotAvailable is rendered in place of non-finite numbers.
const NotAvailable = "N/A"
