package telemetry

import (
	"context"
	"errors"

	"github.com/pharmacy/backend/internal/domain/sales"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// SalesMetrics records settlement outcomes
type SalesMetrics struct {
	sales     *Counter
	amount    *FloatCounter
	lineItems *Counter
	units     *Counter
	conflicts *Counter
	failures  *Counter
}

// NewSalesMetrics creates the settlement instruments on meter
func NewSalesMetrics(meter metric.Meter) (*SalesMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   SalesMetrics
		err error
	)
	if m.sales, err = NewCounter(meter, "pharmacy_sales_total", "Completed sales", "{sale}"); err != nil {
		return nil, err
	}
	if m.amount, err = NewFloatCounter(meter, "pharmacy_sales_amount_total", "Revenue of completed sales", "{currency}"); err != nil {
		return nil, err
	}
	if m.lineItems, err = NewCounter(meter, "pharmacy_sale_line_items_total", "Invoice lines written", "{line}"); err != nil {
		return nil, err
	}
	if m.units, err = NewCounter(meter, "pharmacy_sale_units_total", "Units dispensed", "{unit}"); err != nil {
		return nil, err
	}
	if m.conflicts, err = NewCounter(meter, "pharmacy_settlement_conflicts_total", "Settlement attempts lost to a concurrent writer", "{attempt}"); err != nil {
		return nil, err
	}
	if m.failures, err = NewCounter(meter, "pharmacy_settlement_failures_total", "Rejected or failed sales", "{sale}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordSale counts a committed invoice
func (m *SalesMetrics) RecordSale(ctx context.Context, invoice *sales.Invoice) {
	m.sales.Inc(ctx)
	m.amount.Add(ctx, invoice.TotalAmount.InexactFloat64())
	m.lineItems.Add(ctx, int64(len(invoice.Items)))
	m.units.Add(ctx, int64(invoice.TotalQuantity()))
}

// RecordConflict counts a retried attempt
func (m *SalesMetrics) RecordConflict(ctx context.Context, attempt int) {
	m.conflicts.Inc(ctx, attribute.Int("attempt", attempt))
}

// RecordFailure counts a sale that did not commit
func (m *SalesMetrics) RecordFailure(ctx context.Context, reason string) {
	m.failures.Inc(ctx, AttrReason.String(reason))
}
