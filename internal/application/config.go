// Package application wires the aggregation units into the ensemble
// engine and owns its configuration surface.
package application

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matchsight/ensemble/infrastructure/units"
	"github.com/matchsight/ensemble/internal/ports"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config is the complete engine configuration. The zero value is not
// usable; start from DefaultConfig and override as needed. The weight and
// conflict sections default to the authoritative constants, so a config
// file is only required when deliberately departing from them.
type Config struct {
	// Weights configures the baseline model weights the allocator
	// redistributes over present slots.
	Weights units.WeightAllocatorConfig `yaml:"weights"`

	// Conflict configures the severity thresholds of the conflict detector.
	Conflict units.ConflictDetectorConfig `yaml:"conflict"`

	// BatchParallelism bounds the number of concurrent predictions during
	// batch evaluation.
	BatchParallelism int `yaml:"batch_parallelism" validate:"min=1,max=256"`

	// Tracing enables the OpenTelemetry middleware around each unit.
	Tracing bool `yaml:"tracing"`

	// Logger receives structured logs; nil discards them.
	Logger *slog.Logger `yaml:"-"`

	// Metrics receives latency and outcome metrics; nil disables them.
	Metrics ports.MetricsCollector `yaml:"-"`
}

// DefaultConfig returns the configuration every deployment starts from:
// baseline weights 0.5/0.3/0.2 and conflict thresholds 0.05/0.075/0.10.
func DefaultConfig() Config {
	return Config{
		Weights:          units.DefaultWeightAllocatorConfig(),
		Conflict:         units.DefaultConflictDetectorConfig(),
		BatchParallelism: 4,
	}
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML configuration file, expands ${ENV_VAR}
// references against the process environment, and decodes it strictly
// over DefaultConfig so unknown fields fail loudly instead of being
// silently dropped. Placeholders for unset variables are left intact.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := expandEnv(string(raw))

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// expandEnv substitutes ${VAR} and $VAR with the environment value,
// keeping the ${VAR} form intact when the variable is unset so a missing
// variable is visible downstream rather than collapsing to empty.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
}
