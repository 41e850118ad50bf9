package units

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/matchsight/ensemble/internal/domain"
	"github.com/matchsight/ensemble/internal/ports"
)

var _ ports.Unit = (*ConflictDetectorUnit)(nil)

// ConflictDetectorUnit inspects the two most strongly weighted model votes
// and flags disagreement with a severity tier.
//
// Present slots are ranked descending by weighted contribution (stable, so
// equal contributions keep canonical slot order). When the top two disagree
// on the outcome label, the detector normalizes the difference between the
// two models' confidences over the number of contributing models and maps
// it onto severity bands: the closer the disagreeing voters, the more
// ambiguous the consensus and the higher the severity. Differences at or
// above the detection threshold are not ambiguous and produce no record.
//
// The unit is stateless and thread-safe.
type ConflictDetectorUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated severity thresholds.
	config ConflictDetectorConfig
}

// ConflictDetectorConfig defines the normalized-difference thresholds that
// bound each severity tier. The bands must be strictly increasing:
// [0, High) is high severity, [High, Medium) medium, [Medium, Detect) low,
// and [Detect, inf) no conflict.
type ConflictDetectorConfig struct {
	// High is the upper bound of the high-severity band.
	High float64 `yaml:"high" json:"high" validate:"required,gt=0,lt=1"`

	// Medium is the upper bound of the medium-severity band.
	Medium float64 `yaml:"medium" json:"medium" validate:"required,gtfield=High,lt=1"`

	// Detect is the detection threshold; differences at or above it are
	// treated as an unambiguous disagreement and not flagged.
	Detect float64 `yaml:"detect" json:"detect" validate:"required,gtfield=Medium,lte=1"`
}

// NewConflictDetectorUnit creates a ConflictDetectorUnit with the specified
// configuration. Returns an error if the name is empty or the thresholds
// fail validation.
func NewConflictDetectorUnit(name string, config ConflictDetectorConfig) (*ConflictDetectorUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConflictDetectorUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (cdu *ConflictDetectorUnit) Name() string { return cdu.name }

// Execute reads the weighted contributions from state and, when a conflict
// is detected, writes the record under KeyConflict. The key stays absent
// when the top voters agree; no record with Detected=false is ever stored.
func (cdu *ConflictDetectorUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	contribs, ok := domain.Get(state, domain.KeyContributions)
	if !ok {
		return state, ErrMissingContributions
	}

	record := cdu.Detect(contribs)
	if record == nil {
		return state, nil
	}
	return domain.With(state, domain.KeyConflict, *record), nil
}

// Detect compares the two strongest weighted votes and returns a conflict
// record, or nil when no conflict is meaningful.
//
// No conflict exists with fewer than two voters, when the two strongest
// voters agree on the label regardless of margin, when the total weighted
// contribution is zero, or when the normalized difference reaches the
// detection threshold.
func (cdu *ConflictDetectorUnit) Detect(contribs []domain.Contribution) *domain.ConflictRecord {
	if len(contribs) < 2 {
		return nil
	}

	ranked := slices.Clone(contribs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weighted > ranked[j].Weighted
	})
	top1, top2 := ranked[0], ranked[1]

	if top1.Label == top2.Label {
		return nil
	}

	var total float64
	for _, c := range contribs {
		total += c.Weighted
	}
	if total == 0 {
		return nil
	}

	diff := math.Abs(top1.Confidence - top2.Confidence)
	normalized := diff / float64(len(contribs))
	if normalized >= cdu.config.Detect {
		return nil
	}

	severity := domain.SeverityLow
	switch {
	case normalized < cdu.config.High:
		severity = domain.SeverityHigh
	case normalized < cdu.config.Medium:
		severity = domain.SeverityMedium
	}

	return &domain.ConflictRecord{
		Detected: true,
		Severity: severity,
		Message: fmt.Sprintf(
			"Conflict detected: Models predict different outcomes with only %.1f%% difference.",
			normalized*100,
		),
	}
}

// Validate checks that the unit is properly configured.
func (cdu *ConflictDetectorUnit) Validate() error {
	if err := validate.Struct(cdu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters with
// strict validation, rejecting unknown fields.
func (cdu *ConflictDetectorUnit) UnmarshalParameters(params yaml.Node) error {
	var config ConflictDetectorConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	cdu.config = config
	return nil
}

// DefaultConflictDetectorConfig returns the fixed severity thresholds.
func DefaultConflictDetectorConfig() ConflictDetectorConfig {
	return ConflictDetectorConfig{High: 0.05, Medium: 0.075, Detect: 0.10}
}

// CreateConflictDetectorUnit is a factory function that creates a
// ConflictDetectorUnit from a configuration map, following the UnitFactory
// pattern used by the unit registry.
func CreateConflictDetectorUnit(id string, config map[string]any) (*ConflictDetectorUnit, error) {
	cfg := DefaultConflictDetectorConfig()

	if v, ok := config["high"].(float64); ok {
		cfg.High = v
	}
	if v, ok := config["medium"].(float64); ok {
		cfg.Medium = v
	}
	if v, ok := config["detect"].(float64); ok {
		cfg.Detect = v
	}

	return NewConflictDetectorUnit(id, cfg)
}
