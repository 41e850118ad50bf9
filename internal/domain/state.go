package domain

import (
	"fmt"
	"maps"
	"sort"
)

// Key represents a type-safe key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating runtime type assertions at call sites.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Predefined state keys used by the aggregation pipeline.
// Each key is strongly typed to keep unit boundaries explicit.
var (
	// KeyInput stores the caller-supplied ensemble input.
	KeyInput = Key[EnsembleInput]{"input"}

	// KeyWeights stores the effective weight set derived from the input.
	KeyWeights = Key[WeightSet]{"weights"}

	// KeyContributions stores the per-slot weighted contributions, in
	// canonical slot order and before label grouping.
	KeyContributions = Key[[]Contribution]{"contributions"}

	// KeyVote stores the consensus label and normalized confidence.
	KeyVote = Key[Vote]{"vote"}

	// KeyConflict stores the conflict record when one was detected.
	// The key is simply absent when the top voters agree.
	KeyConflict = Key[ConflictRecord]{"conflict"}

	// KeyRequestID stores an optional caller-provided correlation ID,
	// used only for logging and tracing.
	KeyRequestID = Key[string]{"execution.request_id"}
)

// State is an immutable collection of values flowing through the
// aggregation pipeline. It uses copy-on-write semantics so units can run
// concurrently over shared ancestors without coordination.
//
// All values stored in State must have value semantics: plain structs and
// slices built fresh per invocation, never shared mutable pointers. Every
// type the pipeline stores (EnsembleInput, WeightSet, []Contribution,
// Vote, ConflictRecord) satisfies this by construction.
type State struct {
	data map[string]any
}

// NewState creates a new empty State, ready for use and safe to share
// across goroutines.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and whether the key exists with the correct type.
//
// Example:
//
//	weights, ok := Get(state, KeyWeights)
//	if !ok {
//	    // weight allocation has not run yet
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}
	val, ok := value.(T)
	return val, ok
}

// With creates a new State with the key-value pair added or updated,
// leaving the original unchanged.
//
// Example:
//
//	next := With(state, KeyWeights, ws)
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any, 1)
	}
	newData[key.name] = value
	return State{data: newData}
}

// Keys returns all keys present in the State, sorted for stable output.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string representation of the State for debugging.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}
