// Package scheduler runs the periodic stock checks: medicines at or below their minimum level
// and batches close to expiry are reported through a StockAlertNotifier.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StockReader is the read side of the inventory used by the stock check
type StockReader interface {
	LowStock(ctx context.Context) ([]inventoryapp.LowStockItem, error)
	Expiring(ctx context.Context, days int) ([]inventoryapp.BatchResponse, error)
}

// StockCheckConfig holds configuration for the stock check trigger
type StockCheckConfig struct {
	Spec          string // cron expression, kept for logging
	Schedule      cron.Schedule
	ExpiryWindow  int // days ahead that count as expiring soon
	CheckInterval time.Duration
	RunTimeout    time.Duration
}

// DefaultStockCheckConfig returns the default stock check configuration
func DefaultStockCheckConfig() StockCheckConfig {
	schedule, _ := ParseSchedule(DefaultStockCheckSchedule)
	return StockCheckConfig{
		Spec:          DefaultStockCheckSchedule,
		Schedule:      schedule,
		ExpiryWindow:  10,
		CheckInterval: 30 * time.Second,
		RunTimeout:    2 * time.Minute,
	}
}

// StockCheckResult summarizes one run
type StockCheckResult struct {
	LowStock      int
	ExpiringSoon  int
	AlertsSent    int
	AlertFailures int
}

// StockCheckTrigger fires the stock check at the scheduled times
type StockCheckTrigger struct {
	config   StockCheckConfig
	stock    StockReader
	notifier inventoryapp.StockAlertNotifier
	logger   *zap.Logger
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	next      time.Time
}

// NewStockCheckTrigger creates a new stock check trigger
func NewStockCheckTrigger(
	config StockCheckConfig,
	stock StockReader,
	notifier inventoryapp.StockAlertNotifier,
	logger *zap.Logger,
) (*StockCheckTrigger, error) {
	if config.Schedule == nil {
		return nil, fmt.Errorf("%w: schedule is required", ErrInvalidConfig)
	}
	if config.CheckInterval <= 0 {
		return nil, fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if config.ExpiryWindow <= 0 {
		config.ExpiryWindow = DefaultStockCheckConfig().ExpiryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = inventoryapp.NewLoggingStockAlertNotifier(logger)
	}
	return &StockCheckTrigger{
		config:   config,
		stock:    stock,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start starts the trigger loop
func (c *StockCheckTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.next = c.config.Schedule.Next(c.now())
	next := c.next
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Stock check trigger started",
		zap.String("schedule", c.config.Spec),
		zap.Time("next_run", next),
		zap.Int("expiry_window_days", c.config.ExpiryWindow),
	)
	return nil
}

// Stop stops the trigger and waits for a running check to finish
func (c *StockCheckTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Stock check trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *StockCheckTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the check once the next scheduled time has passed, then schedules the
// following run. Slots missed while the process was busy collapse into a single run.
func (c *StockCheckTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()

	c.mu.Lock()
	if c.next.IsZero() {
		c.next = c.config.Schedule.Next(now)
	}
	if now.Before(c.next) {
		c.mu.Unlock()
		return false
	}
	c.next = c.config.Schedule.Next(now)
	c.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
	defer cancel()
	if _, err := c.RunNow(runCtx); err != nil {
		c.logger.Error("Scheduled stock check failed", zap.Error(err))
	}
	return true
}

// RunNow performs one stock check. A failing alert delivery is logged and counted, not returned.
func (c *StockCheckTrigger) RunNow(ctx context.Context) (StockCheckResult, error) {
	var result StockCheckResult

	low, err := c.stock.LowStock(ctx)
	if err != nil {
		return result, fmt.Errorf("low stock check: %w", err)
	}
	expiring, err := c.stock.Expiring(ctx, c.config.ExpiryWindow)
	if err != nil {
		return result, fmt.Errorf("expiry check: %w", err)
	}
	result.LowStock = len(low)
	result.ExpiringSoon = len(expiring)

	for _, item := range low {
		alert := inventoryapp.StockAlert{
			MedicineID:        item.MedicineID,
			MedicineName:      item.MedicineName,
			CurrentQuantity:   item.TotalQuantity,
			MinimumStockLevel: item.MinimumStockLevel,
			AlertType:         inventoryapp.AlertLowStock,
		}
		if item.TotalQuantity == 0 {
			alert.AlertType = inventoryapp.AlertOutOfStock
		}
		c.send(ctx, alert, &result)
	}
	for _, b := range expiring {
		expiry := b.ExpiryDate
		c.send(ctx, inventoryapp.StockAlert{
			MedicineID:        b.MedicineID,
			BatchNumber:       b.BatchNumber,
			ExpiryDate:        &expiry,
			CurrentQuantity:   b.QuantityInStock,
			MinimumStockLevel: b.MinimumStockLevel,
			AlertType:         inventoryapp.AlertExpiringSoon,
		}, &result)
	}

	c.logger.Info("Stock check completed",
		zap.Int("low_stock", result.LowStock),
		zap.Int("expiring_soon", result.ExpiringSoon),
		zap.Int("alert_failures", result.AlertFailures),
	)
	return result, nil
}

func (c *StockCheckTrigger) send(ctx context.Context, alert inventoryapp.StockAlert, result *StockCheckResult) {
	if err := c.notifier.SendAlert(ctx, alert); err != nil {
		result.AlertFailures++
		c.logger.Warn("Failed to send stock alert",
			zap.String("type", alert.AlertType),
			zap.String("medicine_id", alert.MedicineID.String()),
			zap.Error(err),
		)
		return
	}
	result.AlertsSent++
}
