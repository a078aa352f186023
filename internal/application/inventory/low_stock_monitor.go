package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types raised by LowStockMonitor and the scheduled stock check
const (
	AlertLowStock     = "low_stock"
	AlertOutOfStock   = "out_of_stock"
	AlertExpiringSoon = "expiring_soon"
)

// StockAlert describes a medicine that needs reordering
type StockAlert struct {
	MedicineID        uuid.UUID  `json:"medicine_id"`
	MedicineName      string     `json:"medicine_name,omitempty"`
	InvoiceNumber     string     `json:"invoice_number,omitempty"`
	BatchNumber       string     `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	CurrentQuantity   int        `json:"current_quantity"`
	MinimumStockLevel int        `json:"minimum_stock_level"`
	AlertType         string     `json:"alert_type"`
}

// StockAlertNotifier delivers stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// LowStockMonitor checks the stock of every medicine in a completed sale
// and raises an alert for those at or below their minimum level.
type LowStockMonitor struct {
	batchRepo inventory.BatchRepository
	notifier  StockAlertNotifier
	logger    *zap.Logger
}

// NewLowStockMonitor creates a monitor that logs its alerts
func NewLowStockMonitor(batchRepo inventory.BatchRepository, logger *zap.Logger) *LowStockMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockMonitor{
		batchRepo: batchRepo,
		notifier:  NewLoggingStockAlertNotifier(logger),
		logger:    logger,
	}
}

// WithNotifier replaces the logging notifier
func (m *LowStockMonitor) WithNotifier(notifier StockAlertNotifier) *LowStockMonitor {
	m.notifier = notifier
	return m
}

// EventTypes returns the event types this handler is interested in
func (m *LowStockMonitor) EventTypes() []string {
	return []string{sales.EventTypeSaleCompleted}
}

// Handle processes a SaleCompletedEvent. A medicine whose last batch was sold has no
// stock level row and is reported as out of stock.
func (m *LowStockMonitor) Handle(ctx context.Context, event shared.DomainEvent) error {
	sale, ok := event.(*sales.SaleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", sales.EventTypeSaleCompleted, event.EventType())
	}

	ids := make([]uuid.UUID, 0, len(sale.Lines))
	seen := make(map[uuid.UUID]struct{}, len(sale.Lines))
	for _, line := range sale.Lines {
		if _, dup := seen[line.MedicineID]; dup {
			continue
		}
		seen[line.MedicineID] = struct{}{}
		ids = append(ids, line.MedicineID)
	}

	levels, err := m.batchRepo.StockLevels(ctx, ids...)
	if err != nil {
		return fmt.Errorf("failed to load stock levels: %w", err)
	}
	byID := make(map[uuid.UUID]inventory.StockLevel, len(levels))
	for _, lvl := range levels {
		byID[lvl.MedicineID] = lvl
	}

	for _, id := range ids {
		lvl, found := byID[id]
		alert := StockAlert{MedicineID: id, InvoiceNumber: sale.InvoiceNumber, AlertType: AlertOutOfStock}
		if found {
			if !lvl.IsLow() {
				continue
			}
			alert.CurrentQuantity = lvl.TotalQuantity
			alert.MinimumStockLevel = lvl.MinimumStockLevel
			if lvl.TotalQuantity > 0 {
				alert.AlertType = AlertLowStock
			}
		}
		if err := m.notifier.SendAlert(ctx, alert); err != nil {
			// alert delivery never fails the sale
			m.logger.Error("failed to send stock alert", zap.String("medicine_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

var _ shared.EventHandler = (*LowStockMonitor)(nil)

// LoggingStockAlertNotifier writes alerts to the log
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert at warn level
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	fields := []zap.Field{
		zap.String("type", alert.AlertType),
		zap.String("medicine_id", alert.MedicineID.String()),
		zap.Int("current_qty", alert.CurrentQuantity),
	}
	if alert.MedicineName != "" {
		fields = append(fields, zap.String("medicine", alert.MedicineName))
	}
	if alert.InvoiceNumber != "" {
		fields = append(fields, zap.String("invoice_number", alert.InvoiceNumber))
	}
	if alert.ExpiryDate != nil {
		fields = append(fields,
			zap.String("batch_number", alert.BatchNumber),
			zap.String("expiry_date", alert.ExpiryDate.Format("2006-01-02")),
		)
	} else {
		fields = append(fields, zap.Int("minimum_qty", alert.MinimumStockLevel))
	}
	n.logger.Warn("stock alert", fields...)
	return nil
}
