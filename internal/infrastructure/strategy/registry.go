package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/shared/strategy"
)

// StrategyRegistry manages batch allocation strategy registrations
type StrategyRegistry struct {
	mu              sync.RWMutex
	batchStrategies map[string]strategy.BatchAllocationStrategy
	defaultBatch    string
}

// NewStrategyRegistry creates an empty strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		batchStrategies: make(map[string]strategy.BatchAllocationStrategy),
	}
}

// RegisterBatchStrategy registers a batch allocation strategy
func (r *StrategyRegistry) RegisterBatchStrategy(s strategy.BatchAllocationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if !s.Type().IsValid() {
		return fmt.Errorf("%w: strategy '%s' has type '%s', want '%s'",
			shared.ErrInvalidInput, name, s.Type().String(), strategy.StrategyTypeBatch.String())
	}
	if _, exists := r.batchStrategies[name]; exists {
		return fmt.Errorf("%w: batch strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.batchStrategies[name] = s
	return nil
}

// GetBatchStrategy returns a batch strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetBatchStrategy(name string) (strategy.BatchAllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultBatch
		if name == "" {
			return nil, fmt.Errorf("%w: no default batch strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.batchStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: batch strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// SetDefaultBatchStrategy marks a registered strategy as the default
func (r *StrategyRegistry) SetDefaultBatchStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batchStrategies[name]; !exists {
		return fmt.Errorf("%w: batch strategy '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultBatch = name
	return nil
}

// ListBatchStrategies returns all registered batch strategy names
func (r *StrategyRegistry) ListBatchStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.batchStrategies))
	for name := range r.batchStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
