package sales

import (
	"context"

	"github.com/pharmacy/backend/internal/domain/sales"
)

// Failure reasons reported to SettlementMetrics
const (
	FailureValidation        = "validation"
	FailureMedicineNotFound  = "medicine_not_found"
	FailureInsufficientStock = "insufficient_stock"
	FailureConflict          = "conflict"
	FailureInternal          = "internal"
)

// SettlementMetrics receives settlement outcomes
type SettlementMetrics interface {
	RecordSale(ctx context.Context, invoice *sales.Invoice)
	RecordConflict(ctx context.Context, attempt int)
	RecordFailure(ctx context.Context, reason string)
}

type noopMetrics struct{}

func (noopMetrics) RecordSale(context.Context, *sales.Invoice) {}
func (noopMetrics) RecordConflict(context.Context, int)        {}
func (noopMetrics) RecordFailure(context.Context, string)      {}
