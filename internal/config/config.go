// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for saas-metrics.
type Configuration struct {
	Inputs    *Inputs       `yaml:"inputs,omitempty"`
	Scenarios []Scenario    `yaml:"scenarios,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json, prometheus
}

// Scenario is a named snapshot of business inputs.
type Scenario struct {
	Name   string `yaml:"name"`
	Active bool   `yaml:"active"`
	Inputs Inputs `yaml:"inputs"`
}

// Inputs holds the raw, uncoerced values as they appear in the file. Values
// may be numbers or strings; anything unparsable is treated as 0 downstream.
type Inputs struct {
	MonthlyRevenue   interface{} `yaml:"monthlyRevenue,omitempty"`
	L12MExpenses     interface{} `yaml:"l12mExpenses,omitempty"`
	CustomerCount    interface{} `yaml:"customerCount,omitempty"`
	ChurnRate        interface{} `yaml:"churnRate,omitempty"`
	ExpansionRevenue interface{} `yaml:"expansionRevenue,omitempty"`

	// Unknown collects keys that do not name an input.
	Unknown map[string]interface{} `mapstructure:",remain" yaml:"-"`
}

// envBindings are keys that may be set from the environment even when the
// file does not mention them.
var envBindings = []string{
	"output.format",
	"logging.level",
	"logging.format",
	"logging.outputfile",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envBindings {
		_ = v.BindEnv(key)
	}
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.normalize()
	return &configuration, nil
}

// normalize turns a top-level inputs block into an active scenario placed
// ahead of any listed scenarios.
func (c *Configuration) normalize() {
	if c.Inputs == nil {
		return
	}
	shorthand := Scenario{
		Name:   constants.DefaultScenarioName,
		Active: true,
		Inputs: *c.Inputs,
	}
	c.Scenarios = append([]Scenario{shorthand}, c.Scenarios...)
	c.Inputs = nil
}

// ActiveScenarios returns the scenarios marked active, in file order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, s := range c.Scenarios {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}

// UnknownKeys returns the sorted keys that were not recognised as inputs.
func (in Inputs) UnknownKeys() []string {
	keys := make([]string, 0, len(in.Unknown))
	for k := range in.Unknown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Input values are never validated; they are coerced.
func (c *Configuration) ValidateConfiguration() []string {
	scenarios := make([]validation.ScenarioInfo, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		scenarios = append(scenarios, validation.ScenarioInfo{
			Name:        s.Name,
			Active:      s.Active,
			UnknownKeys: s.Inputs.UnknownKeys(),
		})
	}
	return validation.ValidateScenarios(scenarios)
}
