package govledger

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/policy"
)

// Config is a serialisable representation of the ledger configuration. It
// can be populated from environment variables or a YAML document; the
// zero-value inherits the package defaults. Configuration is read once at
// process start; changing a threshold requires a restart.
type Config struct {
	// LogPath locates the NDJSON event log file. The file is exclusively
	// owned by this subsystem; consumers may tail it, never write to it.
	LogPath string `json:"logPath" yaml:"logPath" env:"EVENT_LOG"`

	// Policy carries the governance thresholds.
	Policy policy.Thresholds `json:"policy" yaml:"policy" envPrefix:""`

	// ServiceName and ServiceVersion identify the process in traces once
	// Service.InitTracing (or tracing.InitWithExporter) enables them.
	ServiceName    string `json:"serviceName" yaml:"serviceName" env:"SERVICE_NAME" envDefault:"govledger"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion" env:"SERVICE_VERSION" envDefault:"dev"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		LogPath: "governance/events.ndjson",
		Policy: policy.Thresholds{
			MaxAutoRisk:          action.RiskLow,
			CanaryMin:            10,
			BudgetCapCents:       250000,
			SLAHours:             24,
			EscalationOwner:      "chief-of-staff",
			MaxEscalationsPerDay: 5,
			MinAutoResolveRate:   85,
			MaxMTTRMinutes:       5,
			NotifyMode:           policy.NotifyExceptionsOnly,
		},
		ServiceName:    "govledger",
		ServiceVersion: "dev",
	}
}

// ConfigFromEnv builds a Config from GOVLEDGER_-prefixed environment
// variables, falling back to the package defaults.
func ConfigFromEnv() (*Config, error) {
	config := DefaultConfig()
	if err := env.ParseWithOptions(config, env.Options{Prefix: "GOVLEDGER_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ConfigFromURL loads a YAML Config from the given location (any scheme
// viant/afs understands, plain paths included), falling back to the package
// defaults for omitted fields.
func ConfigFromURL(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate returns an aggregated error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var problems []string
	if c.LogPath == "" {
		problems = append(problems, "logPath cannot be empty")
	}
	if !c.Policy.MaxAutoRisk.Known() {
		problems = append(problems, fmt.Sprintf("policy.maxAutoRisk %q is not a known risk tier", c.Policy.MaxAutoRisk))
	}
	if c.Policy.CanaryMin < 0 {
		problems = append(problems, "policy.canaryMin cannot be negative")
	}
	if c.Policy.BudgetCapCents < 0 {
		problems = append(problems, "policy.budgetCapCents cannot be negative")
	}
	if c.Policy.SLAHours <= 0 {
		problems = append(problems, "policy.slaHours must be > 0")
	}
	if c.Policy.EscalationOwner == "" {
		problems = append(problems, "policy.escalationOwner cannot be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %v", problems)
	}
	return nil
}
