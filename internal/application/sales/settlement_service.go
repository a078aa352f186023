package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SettlementConfig controls retries and idempotency of CreateSale.
// ReservationTTL bounds how long a key stays in progress when its result is never stored.
type SettlementConfig struct {
	MaxAttempts    int
	RetryBackoff   time.Duration
	IdempotencyTTL time.Duration
	ReservationTTL time.Duration
}

// completeAttempts is how many times a settled result is offered to the replay store
const completeAttempts = 3

// DefaultSettlementConfig returns the settings used when none are configured
func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		MaxAttempts:    3,
		RetryBackoff:   50 * time.Millisecond,
		IdempotencyTTL: 24 * time.Hour,
		ReservationTTL: 2 * time.Minute,
	}
}

// SettlementService turns sale requests into committed invoices
type SettlementService struct {
	txScope        TransactionScope
	allocator      *Allocator
	invoiceNumbers sales.InvoiceNumberGenerator
	customerCodes  customer.CodeGenerator
	invoices       sales.InvoiceRepository
	replay         shared.ReplayStore
	eventPublisher shared.EventPublisher
	metrics        SettlementMetrics
	logger         *zap.Logger
	cfg            SettlementConfig
}

// NewSettlementService creates a SettlementService
func NewSettlementService(
	txScope TransactionScope,
	allocator *Allocator,
	invoiceNumbers sales.InvoiceNumberGenerator,
	customerCodes customer.CodeGenerator,
	cfg SettlementConfig,
	logger *zap.Logger,
) *SettlementService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.ReservationTTL <= 0 || (cfg.IdempotencyTTL > 0 && cfg.ReservationTTL > cfg.IdempotencyTTL) {
		cfg.ReservationTTL = cfg.IdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		txScope:        txScope,
		allocator:      allocator,
		invoiceNumbers: invoiceNumbers,
		customerCodes:  customerCodes,
		metrics:        noopMetrics{},
		logger:         logger,
		cfg:            cfg,
	}
}

// SetEventPublisher sets the publisher that receives SaleCompleted after commit
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics replaces the no-op metrics recorder
func (s *SettlementService) SetMetrics(m SettlementMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetReplayStore enables Idempotency-Key handling. invoices is used to load the stored result of a replay.
func (s *SettlementService) SetReplayStore(store shared.ReplayStore, invoices sales.InvoiceRepository) {
	s.replay = store
	s.invoices = invoices
}

// CreateSale settles req atomically. Every batch deduction, the invoice and the customer update
// become durable together or not at all. Storage conflicts are retried from scratch up to
// MaxAttempts times before a SettlementConflictError is returned.
func (s *SettlementService) CreateSale(ctx context.Context, soldBy uuid.UUID, req sales.SaleRequest) (*sales.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "create",
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Items)),
		telemetry.WithAttribute(telemetry.SpanAttrStrategy, s.allocator.StrategyName()),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger)

	if err := req.Validate(); err != nil {
		s.metrics.RecordFailure(ctx, FailureValidation)
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		invoice *sales.Invoice
		err     error
	)
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)

		invoice, err = s.settle(ctx, soldBy, req)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.RecordFailure(ctx, failureReason(err))
			telemetry.RecordError(span, err)
			if failureReason(err) == FailureInternal {
				log.Error("sale settlement failed", zap.Int("attempt", attempt), zap.Error(err))
			}
			return nil, err
		}

		s.metrics.RecordConflict(ctx, attempt)
		log.Warn("sale settlement conflict",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.cfg.MaxAttempts),
			zap.Error(err),
		)
		if attempt == s.cfg.MaxAttempts {
			break
		}
		if werr := s.wait(ctx, attempt); werr != nil {
			s.metrics.RecordFailure(ctx, FailureInternal)
			telemetry.RecordError(span, werr)
			return nil, werr
		}
	}
	if err != nil {
		conflict := sales.NewSettlementConflictError(err)
		s.metrics.RecordFailure(ctx, FailureConflict)
		telemetry.RecordError(span, conflict)
		return nil, conflict
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
		telemetry.SpanAttrAmount, invoice.TotalAmount.String(),
	)
	telemetry.SetOK(span)
	s.metrics.RecordSale(ctx, invoice)
	log.Info("sale settled",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.StringFixed(2)),
		zap.Int("line_count", len(invoice.Items)),
	)

	if s.eventPublisher != nil {
		// Publish errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, sales.NewSaleCompletedEvent(invoice))
	}
	return invoice, nil
}

// CreateSaleIdempotent is CreateSale guarded by a client supplied key. A key that already
// produced an invoice returns that invoice with replayed set. A key whose first request is
// still running yields sales.ErrRequestInProgress. Failed requests release the key.
// The reservation lives for ReservationTTL; the stored result lives for IdempotencyTTL.
func (s *SettlementService) CreateSaleIdempotent(
	ctx context.Context,
	key string,
	soldBy uuid.UUID,
	req sales.SaleRequest,
) (invoice *sales.Invoice, replayed bool, err error) {
	if s.replay == nil || key == "" {
		invoice, err = s.CreateSale(ctx, soldBy, req)
		return invoice, false, err
	}
	scoped := soldBy.String() + ":" + key

	reserved, err := s.replay.Reserve(ctx, scoped, s.cfg.ReservationTTL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !reserved {
		return s.replayResult(ctx, scoped)
	}

	invoice, err = s.CreateSale(ctx, soldBy, req)
	if err != nil {
		if rerr := s.replay.Release(ctx, scoped); rerr != nil {
			logger.Enrich(ctx, s.logger).Warn("failed to release idempotency key", zap.Error(rerr))
		}
		return nil, false, err
	}
	s.completeReplay(ctx, scoped, invoice.InvoiceNumber)
	return invoice, false, nil
}

// completeReplay stores the invoice number for key. The sale is already committed, so a client
// disconnect must not stop it; after the last failed attempt the reservation simply expires.
func (s *SettlementService) completeReplay(ctx context.Context, key, invoiceNumber string) {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= completeAttempts; attempt++ {
		if err = s.replay.Complete(ctx, key, invoiceNumber, s.cfg.IdempotencyTTL); err == nil {
			return
		}
		if attempt < completeAttempts {
			_ = s.wait(ctx, attempt)
		}
	}
	logger.Enrich(ctx, s.logger).Warn("failed to store idempotency result",
		zap.String("invoice_number", invoiceNumber),
		zap.Int("attempts", completeAttempts),
		zap.Duration("reservation_ttl", s.cfg.ReservationTTL),
		zap.Error(err),
	)
}

func (s *SettlementService) replayResult(ctx context.Context, key string) (*sales.Invoice, bool, error) {
	number, done, err := s.replay.Lookup(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		// Expired between Reserve and Lookup
		return nil, false, sales.ErrRequestInProgress
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if !done {
		return nil, false, sales.ErrRequestInProgress
	}
	invoice, err := s.invoices.FindByNumber(ctx, number)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load replayed invoice %s: %w", number, err)
	}
	return invoice, true, nil
}

// settle runs one attempt inside a single transaction. Lines are resolved and allocated in
// request order, so the first failing line decides the error. A new customer row is inserted
// before the invoice that references it.
func (s *SettlementService) settle(ctx context.Context, soldBy uuid.UUID, req sales.SaleRequest) (*sales.Invoice, error) {
	var invoice *sales.Invoice

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		medicines, err := s.loadMedicines(ctx, repos.Medicines(), req)
		if err != nil {
			return err
		}

		lines := make([]sales.LineItem, 0, len(req.Items))
		for _, item := range req.Items {
			med, ok := medicines[item.MedicineID]
			if !ok {
				return sales.NewMedicineNotFoundError(item.MedicineID)
			}
			line, err := s.allocator.Allocate(ctx, repos.Batches(), med, item.Quantity)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		inv, err := sales.NewInvoice(s.invoiceNumbers.NextInvoiceNumber(), soldBy, lines)
		if err != nil {
			return err
		}

		cust, err := s.findOrCreateCustomer(ctx, repos.Customers(), req)
		if err != nil {
			return err
		}
		if cust.IsNew() {
			// invoices.customer_id references customers(id)
			if err := repos.Customers().Save(ctx, cust); err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		}
		inv.LinkCustomer(cust.ID)

		if err := repos.Invoices().Create(ctx, inv); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if err := cust.AppendInvoice(inv.ID); err != nil {
			return err
		}
		if err := repos.Customers().Save(ctx, cust); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}

		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// loadMedicines fetches every referenced medicine in one query. Missing ids are absent from the map.
func (s *SettlementService) loadMedicines(
	ctx context.Context,
	repo catalog.MedicineRepository,
	req sales.SaleRequest,
) (map[uuid.UUID]*catalog.Medicine, error) {
	found, err := repo.FindByIDs(ctx, req.MedicineIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}
	byID := make(map[uuid.UUID]*catalog.Medicine, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}

func (s *SettlementService) findOrCreateCustomer(
	ctx context.Context,
	repo customer.CustomerRepository,
	req sales.SaleRequest,
) (*customer.Customer, error) {
	contact := customer.NormalizeContact(req.CustomerContact)

	cust, err := repo.FindByContact(ctx, contact)
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	return customer.NewCustomer(s.customerCodes.NextCustomerCode(), contact, req.CustomerName)
}

// wait sleeps for the linear backoff of the given attempt or until ctx is done
func (s *SettlementService) wait(ctx context.Context, attempt int) error {
	if s.cfg.RetryBackoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.RetryBackoff * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func failureReason(err error) string {
	var stock *sales.InsufficientStockError
	switch {
	case errors.Is(err, sales.ErrInvalidSale):
		return FailureValidation
	case errors.Is(err, sales.ErrMedicineNotFound):
		return FailureMedicineNotFound
	case errors.As(err, &stock):
		return FailureInsufficientStock
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return FailureConflict
	}
	return FailureInternal
}
