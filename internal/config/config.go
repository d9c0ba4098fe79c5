package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete crewline configuration
type Config struct {
	Provision   ProvisionConfig   `mapstructure:"provision"`
	EventBus    EventBusConfig    `mapstructure:"event_bus"`
	Supervision SupervisionConfig `mapstructure:"supervision"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ProvisionConfig controls worker provisioning
type ProvisionConfig struct {
	// MaxDynamicRoles caps how many specialist roles may be provisioned
	// beyond the base roster. 0 means base roles only; a negative value
	// means unlimited (the default).
	MaxDynamicRoles int `mapstructure:"max_dynamic_roles"`
	// CostCeiling is the maximum estimated cost for a job in USD.
	// Zero or negative disables the ceiling (the default).
	CostCeiling float64 `mapstructure:"cost_ceiling"`
}

// EventBusConfig controls the event bus
type EventBusConfig struct {
	// Capacity is the bounded queue size; events pushed beyond it are dropped.
	Capacity int `mapstructure:"capacity"`
	// PopTimeoutMs is how long the monitor loop blocks on an empty queue
	// before idling, in milliseconds.
	PopTimeoutMs int `mapstructure:"pop_timeout_ms"`
}

// SupervisionConfig controls the supervisor
type SupervisionConfig struct {
	// Mode selects the resolution policy.
	// Options: "professional", "standard", "interactive"
	Mode string `mapstructure:"mode"`
	// TestCoverageThreshold is the minimum acceptable test coverage ratio.
	TestCoverageThreshold float64 `mapstructure:"test_coverage_threshold"`
	// DocCompletenessThreshold is the minimum acceptable doc completeness ratio.
	DocCompletenessThreshold float64 `mapstructure:"doc_completeness_threshold"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled turns job logging on or off
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
	// Dir is the directory for job log files; empty writes to stderr
	Dir string `mapstructure:"dir"`
}

// MaxRolesLimited reports whether a dynamic-role cap is configured.
func (p ProvisionConfig) MaxRolesLimited() bool {
	return p.MaxDynamicRoles >= 0
}

// CeilingSet reports whether a cost ceiling is configured.
func (p ProvisionConfig) CeilingSet() bool {
	return p.CostCeiling > 0
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		Provision: ProvisionConfig{
			MaxDynamicRoles: -1, // Unlimited
			CostCeiling:     0,  // No ceiling
		},
		EventBus: EventBusConfig{
			Capacity:     1000,
			PopTimeoutMs: 200,
		},
		Supervision: SupervisionConfig{
			Mode:                     "standard",
			TestCoverageThreshold:    0.80,
			DocCompletenessThreshold: 0.90,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "INFO",
			Dir:     "",
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	// Provision defaults
	viper.SetDefault("provision.max_dynamic_roles", defaults.Provision.MaxDynamicRoles)
	viper.SetDefault("provision.cost_ceiling", defaults.Provision.CostCeiling)

	// Event bus defaults
	viper.SetDefault("event_bus.capacity", defaults.EventBus.Capacity)
	viper.SetDefault("event_bus.pop_timeout_ms", defaults.EventBus.PopTimeoutMs)

	// Supervision defaults
	viper.SetDefault("supervision.mode", defaults.Supervision.Mode)
	viper.SetDefault("supervision.test_coverage_threshold", defaults.Supervision.TestCoverageThreshold)
	viper.SetDefault("supervision.doc_completeness_threshold", defaults.Supervision.DocCompletenessThreshold)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crewline")
	}
	// Fall back to ~/.config/crewline
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crewline"
	}
	return filepath.Join(home, ".config", "crewline")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidSupervisionModes returns the list of valid supervision mode values
func ValidSupervisionModes() []string {
	return []string{"professional", "standard", "interactive"}
}

// IsValidSupervisionMode checks if the given mode is valid
func IsValidSupervisionMode(mode string) bool {
	for _, m := range ValidSupervisionModes() {
		if m == mode {
			return true
		}
	}
	return false
}
