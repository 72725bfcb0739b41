// Package calculator runs the metrics engine and health classifier over the
// scenarios of a configuration.
package calculator

import (
	"errors"
	"fmt"

	"github.com/iwvelando/saas-metrics/internal/config"
	"github.com/iwvelando/saas-metrics/internal/health"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/adapters"
	"go.uber.org/zap"
)

// ErrNoActiveScenarios is returned by Evaluate when every scenario is inactive.
var ErrNoActiveScenarios = errors.New("no active scenarios to evaluate")

// Result holds everything computed for one input snapshot.
type Result struct {
	Name       string
	Inputs     metrics.RawInputs
	Metrics    metrics.MetricSet
	Assessment health.Assessment
}

// Calculate derives and classifies a single input snapshot. The metric set is
// always produced before the assessment that consumes it.
func Calculate(name string, inputs metrics.RawInputs) Result {
	m := metrics.Derive(inputs)
	return Result{
		Name:       name,
		Inputs:     inputs,
		Metrics:    m,
		Assessment: health.Classify(m),
	}
}

// Evaluate computes a Result for every active scenario, in file order.
func Evaluate(logger *zap.Logger, conf config.Configuration) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Result
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "calculator.Evaluate"),
			)
			continue
		}

		result := Calculate(scenario.Name, adapters.InputsToRawInputs(scenario.Inputs))
		logger.Debug("scenario evaluated",
			zap.String("op", "calculator.Evaluate"),
			zap.String("scenario", scenario.Name),
			zap.Float64("mrr", result.Metrics.MRR),
			zap.Float64("l12mProfit", result.Metrics.L12MProfit),
			zap.String("tier", string(result.Assessment.Tier)),
		)
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, ErrNoActiveScenarios
	}
	return results, nil
}
