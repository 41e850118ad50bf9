package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/matchsight/ensemble/internal/domain"
	"github.com/matchsight/ensemble/internal/ports"
)

var _ ports.Unit = (*WeightAllocatorUnit)(nil)

// WeightAllocatorUnit derives the effective per-slot weights for one
// aggregation. When all three model slots answered it returns the baseline
// weights unchanged; when only a subset answered it redistributes the
// baseline proportionally over the present slots so the total stays 1.0.
// Absent slots always receive weight zero.
//
// The unit is stateless and thread-safe for concurrent execution.
type WeightAllocatorUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated baseline weights.
	config WeightAllocatorConfig
}

// WeightAllocatorConfig defines the baseline weights the allocator
// redistributes. The defaults are the authoritative model importances;
// overriding them is an extension point, not a routine operation.
type WeightAllocatorConfig struct {
	// FullTime is the baseline weight of the full-time model.
	FullTime float64 `yaml:"full_time" json:"full_time" validate:"required,gt=0,lte=1"`

	// HalfTime is the baseline weight of the half-time model.
	HalfTime float64 `yaml:"half_time" json:"half_time" validate:"required,gt=0,lte=1"`

	// Pattern is the baseline weight of the pattern model.
	Pattern float64 `yaml:"pattern" json:"pattern" validate:"required,gt=0,lte=1"`
}

// Baseline returns the configured baseline as a WeightSet.
func (c WeightAllocatorConfig) Baseline() domain.WeightSet {
	return domain.WeightSet{FullTime: c.FullTime, HalfTime: c.HalfTime, Pattern: c.Pattern}
}

// NewWeightAllocatorUnit creates a WeightAllocatorUnit with the specified
// configuration. Returns an error if the name is empty or the configuration
// fails validation.
func NewWeightAllocatorUnit(name string, config WeightAllocatorConfig) (*WeightAllocatorUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &WeightAllocatorUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (wau *WeightAllocatorUnit) Name() string { return wau.name }

// Execute reads the ensemble input from state, computes the effective
// weight set, and writes it back under KeyWeights.
func (wau *WeightAllocatorUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	input, ok := domain.Get(state, domain.KeyInput)
	if !ok {
		return state, ErrMissingInput
	}

	weights, err := wau.Allocate(input)
	if err != nil {
		return state, err
	}

	return domain.With(state, domain.KeyWeights, weights), nil
}

// Allocate computes the effective weight set for the given input.
//
// With all three slots present the baseline is returned unchanged. With a
// strict subset present, each present slot receives its baseline weight
// divided by the sum of the present slots' baselines; absent slots get
// zero. An input with no predictions at all fails with
// domain.ErrNoPredictions, the component's only error condition.
func (wau *WeightAllocatorUnit) Allocate(input domain.EnsembleInput) (domain.WeightSet, error) {
	present := input.Present()
	if len(present) == 0 {
		return domain.WeightSet{}, domain.ErrNoPredictions
	}

	baseline := wau.config.Baseline()
	if len(present) == len(domain.Slots()) {
		return baseline, nil
	}

	var presentSum float64
	for _, slot := range present {
		presentSum += baseline.At(slot)
	}

	var weights domain.WeightSet
	for _, slot := range present {
		renormalized := baseline.At(slot) / presentSum
		switch slot {
		case domain.SlotFullTime:
			weights.FullTime = renormalized
		case domain.SlotHalfTime:
			weights.HalfTime = renormalized
		case domain.SlotPattern:
			weights.Pattern = renormalized
		}
	}
	return weights, nil
}

// Validate checks that the unit is properly configured.
func (wau *WeightAllocatorUnit) Validate() error {
	if err := validate.Struct(wau.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters with
// strict validation, rejecting unknown fields so configuration typos are
// not silently ignored.
func (wau *WeightAllocatorUnit) UnmarshalParameters(params yaml.Node) error {
	var config WeightAllocatorConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	wau.config = config
	return nil
}

// DefaultWeightAllocatorConfig returns the authoritative baseline weights.
func DefaultWeightAllocatorConfig() WeightAllocatorConfig {
	baseline := domain.BaselineWeights()
	return WeightAllocatorConfig{
		FullTime: baseline.FullTime,
		HalfTime: baseline.HalfTime,
		Pattern:  baseline.Pattern,
	}
}

// CreateWeightAllocatorUnit is a factory function that creates a
// WeightAllocatorUnit from a configuration map, following the UnitFactory
// pattern used by the unit registry.
func CreateWeightAllocatorUnit(id string, config map[string]any) (*WeightAllocatorUnit, error) {
	cfg := DefaultWeightAllocatorConfig()

	if v, ok := config["full_time"].(float64); ok {
		cfg.FullTime = v
	}
	if v, ok := config["half_time"].(float64); ok {
		cfg.HalfTime = v
	}
	if v, ok := config["pattern"].(float64); ok {
		cfg.Pattern = v
	}

	return NewWeightAllocatorUnit(id, cfg)
}
