// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer. These interfaces
// enable dependency inversion and make the pipeline testable.
package ports

import (
	"context"
	"time"

	"github.com/matchsight/ensemble/internal/domain"
)

// Unit is one stage of the aggregation pipeline. Each Unit performs a
// specific transformation on the pipeline State, enabling composable and
// individually testable aggregation logic. Units must be stateless and
// thread-safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, tracing, and configuration.
	Name() string

	// Execute performs the unit's transformation on the provided State
	// and returns a new State containing the results. The original State
	// must not be modified. Errors are returned, never panicked.
	//
	// The context allows cancellation propagation for callers that wrap
	// the pure computation in request handling.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the unit is properly configured and ready for
	// execution. It is called during pipeline construction. Return nil
	// if validation passes, or an error describing what is invalid.
	Validate() error
}

// UnitFactory creates a Unit from an identifier and a configuration map.
// Factories are registered with the UnitRegistry to support dynamic
// pipeline construction from configuration.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// MetricsCollector abstracts metric recording so the pipeline can report
// latency and outcome counters without depending on a metrics backend.
type MetricsCollector interface {
	// RecordLatency records the duration of a named operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a named counter by the given value.
	RecordCounter(metric string, value float64, labels map[string]string)
}
