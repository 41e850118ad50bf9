package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchsight/ensemble/internal/domain"
)

func TestConflictDetectorUnit_Detect(t *testing.T) {
	tests := []struct {
		name             string
		input            domain.EnsembleInput
		weights          domain.WeightSet
		expectedSeverity domain.Severity
		expectNone       bool
	}{
		{
			name: "near tie between disagreeing top voters is high severity",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.9),
				HalfTime: pred("away", 0.88),
				Pattern:  pred("draw", 0.3),
			},
			weights:          domain.BaselineWeights(),
			expectedSeverity: domain.SeverityHigh,
		},
		{
			name: "moderate spread between disagreeing top voters is medium severity",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.9),
				HalfTime: pred("away", 0.75),
				Pattern:  pred("draw", 0.3),
			},
			weights:          domain.BaselineWeights(),
			expectedSeverity: domain.SeverityMedium,
		},
		{
			name: "wider spread between disagreeing top voters is low severity",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.9),
				HalfTime: pred("away", 0.65),
				Pattern:  pred("draw", 0.3),
			},
			weights:          domain.BaselineWeights(),
			expectedSeverity: domain.SeverityLow,
		},
		{
			name: "clear winner is not flagged",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.95),
				HalfTime: pred("away", 0.6),
				Pattern:  pred("draw", 0.5),
			},
			weights:    domain.BaselineWeights(),
			expectNone: true,
		},
		{
			name: "agreement between top voters is never a conflict",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.9),
				HalfTime: pred("home", 0.89),
				Pattern:  pred("draw", 0.3),
			},
			weights:    domain.BaselineWeights(),
			expectNone: true,
		},
		{
			name: "unanimous agreement with wide confidence spread is never a conflict",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0.99),
				HalfTime: pred("home", 0.2),
				Pattern:  pred("home", 0.01),
			},
			weights:    domain.BaselineWeights(),
			expectNone: true,
		},
		{
			name:       "single voter is never a conflict",
			input:      domain.EnsembleInput{FullTime: pred("home", 0.9)},
			weights:    domain.WeightSet{FullTime: 1},
			expectNone: true,
		},
		{
			name: "two disagreeing voters with close confidence",
			input: domain.EnsembleInput{
				HalfTime: pred("away", 0.71),
				Pattern:  pred("draw", 0.7),
			},
			weights:          domain.WeightSet{HalfTime: 0.6, Pattern: 0.4},
			expectedSeverity: domain.SeverityHigh,
		},
		{
			name: "zero confidences produce no conflict",
			input: domain.EnsembleInput{
				FullTime: pred("home", 0),
				HalfTime: pred("away", 0),
			},
			weights:    domain.WeightSet{FullTime: 0.625, HalfTime: 0.375},
			expectNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
			require.NoError(t, err)

			record := unit.Detect(contributions(tt.input, tt.weights))

			if tt.expectNone {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.True(t, record.Detected)
			assert.Equal(t, tt.expectedSeverity, record.Severity)
			assert.Contains(t, record.Message, "Conflict detected")
			assert.Contains(t, record.Message, "% difference")
		})
	}
}

func TestConflictDetectorUnit_MessageFormat(t *testing.T) {
	unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
	require.NoError(t, err)

	record := unit.Detect(contributions(domain.EnsembleInput{
		FullTime: pred("home", 0.9),
		HalfTime: pred("away", 0.75),
		Pattern:  pred("draw", 0.3),
	}, domain.BaselineWeights()))

	require.NotNil(t, record)
	assert.Equal(t,
		"Conflict detected: Models predict different outcomes with only 5.0% difference.",
		record.Message)
}

func TestConflictDetectorUnit_RanksByWeightedContribution(t *testing.T) {
	unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
	require.NoError(t, err)

	// Pattern has the highest raw confidence but the lowest weight; the
	// top two by weighted contribution are full_time and half_time.
	contribs := []domain.Contribution{
		{Slot: domain.SlotFullTime, Label: "home", Confidence: 0.8, Weight: 0.5, Weighted: 0.4},
		{Slot: domain.SlotHalfTime, Label: "home", Confidence: 0.9, Weight: 0.3, Weighted: 0.27},
		{Slot: domain.SlotPattern, Label: "draw", Confidence: 0.95, Weight: 0.2, Weighted: 0.19},
	}

	assert.Nil(t, unit.Detect(contribs), "top two agree on home, no conflict")
}

func TestConflictDetectorUnit_Execute(t *testing.T) {
	unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
	require.NoError(t, err)

	input := domain.EnsembleInput{
		FullTime: pred("home", 0.9),
		HalfTime: pred("away", 0.88),
		Pattern:  pred("draw", 0.3),
	}
	contribs := contributions(input, domain.BaselineWeights())
	state := domain.With(domain.NewState(), domain.KeyContributions, contribs)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	record, ok := domain.Get(out, domain.KeyConflict)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, record.Severity)
}

func TestConflictDetectorUnit_ExecuteNoConflictLeavesKeyAbsent(t *testing.T) {
	unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
	require.NoError(t, err)

	input := domain.EnsembleInput{
		FullTime: pred("home", 0.8),
		HalfTime: pred("home", 0.7),
	}
	contribs := contributions(input, domain.WeightSet{FullTime: 0.625, HalfTime: 0.375})
	state := domain.With(domain.NewState(), domain.KeyContributions, contribs)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	_, ok := domain.Get(out, domain.KeyConflict)
	assert.False(t, ok)
}

func TestConflictDetectorUnit_ExecuteMissingContributions(t *testing.T) {
	unit, err := NewConflictDetectorUnit("test_conflicts", DefaultConflictDetectorConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), domain.NewState())
	require.ErrorIs(t, err, ErrMissingContributions)
}

func TestNewConflictDetectorUnit_Validation(t *testing.T) {
	tests := []struct {
		name          string
		unitName      string
		config        ConflictDetectorConfig
		expectedError string
	}{
		{
			name:          "empty name",
			unitName:      "",
			config:        DefaultConflictDetectorConfig(),
			expectedError: "unit name cannot be empty",
		},
		{
			name:          "medium below high rejected",
			unitName:      "conflicts",
			config:        ConflictDetectorConfig{High: 0.08, Medium: 0.05, Detect: 0.10},
			expectedError: "configuration validation failed",
		},
		{
			name:          "detect below medium rejected",
			unitName:      "conflicts",
			config:        ConflictDetectorConfig{High: 0.05, Medium: 0.075, Detect: 0.06},
			expectedError: "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConflictDetectorUnit(tt.unitName, tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestCreateConflictDetectorUnit(t *testing.T) {
	unit, err := CreateConflictDetectorUnit("conflicts", map[string]any{
		"high":   0.04,
		"medium": 0.06,
		"detect": 0.09,
	})
	require.NoError(t, err)

	assert.Equal(t, "conflicts", unit.Name())
	assert.InDelta(t, 0.04, unit.config.High, 1e-9)
	assert.NoError(t, unit.Validate())
}
