package strategy

import (
	"github.com/pharmacy/backend/internal/infrastructure/strategy/batch"
)

// NewRegistryWithDefaults registers the built-in batch strategies and makes
// earliest-expiry-first the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	if err := r.RegisterBatchStrategy(batch.NewFEFOBatchStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterBatchStrategy(batch.NewFIFOBatchStrategy()); err != nil {
		return nil, err
	}
	if err := r.SetDefaultBatchStrategy(batch.NameFEFO); err != nil {
		return nil, err
	}

	return r, nil
}
