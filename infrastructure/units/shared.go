// Package units provides the aggregation stages that implement the
// ports.Unit interface for the ensemble prediction pipeline.
package units

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/matchsight/ensemble/internal/domain"
)

// Common errors returned by aggregation units. The missing-state errors
// wrap domain.ErrKeyNotFound so callers can test for the condition without
// knowing which unit raised it.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrMissingInput is returned when the ensemble input is absent from state.
	ErrMissingInput error = domain.NewStateError("input", "read", domain.ErrKeyNotFound)

	// ErrMissingWeights is returned when the weight set is absent from state.
	ErrMissingWeights error = domain.NewStateError("weights", "read", domain.ErrKeyNotFound)

	// ErrMissingContributions is returned when weighted contributions are absent from state.
	ErrMissingContributions error = domain.NewStateError("contributions", "read", domain.ErrKeyNotFound)
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
