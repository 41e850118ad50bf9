package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/matchsight/ensemble/infrastructure/units"
	"github.com/matchsight/ensemble/internal/ports"
)

// UnitRegistry is a factory for creating aggregation units by type name.
// It supports dynamic registration so embedding applications can add
// custom pipeline stages alongside the built-in ones.
type UnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// Built-in unit type identifiers.
const (
	UnitTypeWeightAllocator  = "weight_allocator"
	UnitTypeVoteAggregator   = "vote_aggregator"
	UnitTypeConflictDetector = "conflict_detector"
)

// NewUnitRegistry creates a registry with the standard aggregation unit
// types pre-registered.
func NewUnitRegistry() *UnitRegistry {
	r := &UnitRegistry{factories: make(map[string]ports.UnitFactory)}
	r.registerBuiltinFactories()
	return r
}

// registerBuiltinFactories registers the three standard pipeline stages.
func (r *UnitRegistry) registerBuiltinFactories() {
	r.factories[UnitTypeWeightAllocator] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateWeightAllocatorUnit(id, config)
	}
	r.factories[UnitTypeVoteAggregator] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateVoteAggregatorUnit(id, config)
	}
	r.factories[UnitTypeConflictDetector] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateConflictDetectorUnit(id, config)
	}
}

// Register adds a factory for the given unit type. Registering a type that
// already exists returns an error rather than silently replacing it.
func (r *UnitRegistry) Register(unitType string, factory ports.UnitFactory) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for unit type %q cannot be nil", unitType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[unitType]; exists {
		return fmt.Errorf("unit type %q already registered", unitType)
	}
	r.factories[unitType] = factory
	return nil
}

// Create instantiates a unit of the given type with the provided
// identifier and configuration map.
func (r *UnitRegistry) Create(unitType, id string, config map[string]any) (ports.Unit, error) {
	r.mu.RLock()
	factory, ok := r.factories[unitType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown unit type: %s", unitType)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %q of type %s: %w", id, unitType, err)
	}
	return unit, nil
}

// Types returns the registered unit type names in sorted order.
func (r *UnitRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
