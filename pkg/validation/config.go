package validation

import (
	"fmt"
	"strings"
)

// ScenarioInfo is the part of a scenario that configuration checks look at.
type ScenarioInfo struct {
	Name        string
	Active      bool
	UnknownKeys []string
}

// ValidateScenarios returns non-fatal warnings about the scenario list.
func ValidateScenarios(scenarios []ScenarioInfo) []string {
	var warnings []string

	if len(scenarios) == 0 {
		return append(warnings, "No scenarios defined - nothing will be calculated")
	}

	seen := make(map[string]int)
	active := 0
	for i, s := range scenarios {
		label := s.Name
		if strings.TrimSpace(s.Name) == "" {
			label = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("Scenario %s has no name", label))
		} else {
			seen[s.Name]++
			if seen[s.Name] == 2 {
				warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", s.Name))
			}
		}
		if s.Active {
			active++
		}
		for _, key := range s.UnknownKeys {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' has unknown input '%s' - it is ignored", label, key))
		}
	}

	if active == 0 {
		warnings = append(warnings, "No active scenarios - nothing will be calculated")
	}

	return warnings
}
