package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultExpiringWithinDays is the window of the expiring report when none is given
const DefaultExpiringWithinDays = 30

// InventoryService handles batch ledger writes outside settlement and the stock views
type InventoryService struct {
	batchRepo    inventory.BatchRepository
	medicineRepo catalog.MedicineRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	batchRepo inventory.BatchRepository,
	medicineRepo catalog.MedicineRepository,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		batchRepo:    batchRepo,
		medicineRepo: medicineRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Intake receives stock. The batch is keyed by (medicine, batch number, expiry date):
// an existing key is revised, a new key creates a batch. Re-posting the stored quantity
// of an existing batch is rejected with ErrDuplicateBatch.
func (s *InventoryService) Intake(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	dates, err := req.dates()
	if err != nil {
		return nil, err
	}
	if _, err := s.medicine(ctx, req.MedicineID); err != nil {
		return nil, err
	}

	existing, err := s.batchRepo.FindByKey(ctx, req.MedicineID, req.BatchNumber, inventory.DateOnly(dates.expiry))
	switch {
	case err == nil:
		return s.revise(ctx, existing, req, dates)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("failed to look up batch: %w", err)
	}

	base := inventory.BatchAttributes{}
	previous, err := s.batchRepo.FindLatestByBatchNumber(ctx, req.MedicineID, req.BatchNumber)
	switch {
	case err == nil:
		base = attributesOf(previous)
		base.QuantityInStock = 0
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("failed to look up batch number: %w", err)
	}

	batch, err := inventory.NewBatch(req.MedicineID, req.BatchNumber, dates.expiry, req.merge(base, dates.manufacture))
	if err != nil {
		return nil, err
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	s.logger.Info("batch received",
		zap.String("medicine_id", batch.MedicineID.String()),
		zap.String("batch_number", batch.BatchNumber),
		zap.Int("quantity", batch.QuantityInStock),
		zap.Bool("inherited", previous != nil),
	)
	return &IntakeResult{Batch: ToBatchResponse(batch, s.now()), Created: true}, nil
}

func (s *InventoryService) revise(ctx context.Context, batch *inventory.Batch, req IntakeRequest, dates intakeDates) (*IntakeResult, error) {
	if req.QuantityInStock != nil && *req.QuantityInStock == batch.QuantityInStock {
		return nil, ErrDuplicateBatch
	}
	if err := batch.Revise(req.merge(attributesOf(batch), dates.manufacture)); err != nil {
		return nil, err
	}
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	s.logger.Info("batch revised",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("quantity", batch.QuantityInStock),
		zap.Int("version", batch.Version),
	)
	return &IntakeResult{Batch: ToBatchResponse(batch, s.now())}, nil
}

// ListGrouped returns every medicine that has stock with its batches soonest expiry first
func (s *InventoryService) ListGrouped(ctx context.Context) ([]MedicineStock, error) {
	batches, err := s.batchRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	now := s.now()
	groups := make([]MedicineStock, 0)
	index := make(map[uuid.UUID]int)
	for i := range batches {
		b := &batches[i]
		pos, ok := index[b.MedicineID]
		if !ok {
			pos = len(groups)
			index[b.MedicineID] = pos
			groups = append(groups, MedicineStock{MedicineID: b.MedicineID, Batches: []BatchResponse{}})
		}
		groups[pos].TotalQuantity += b.QuantityInStock
		groups[pos].Batches = append(groups[pos].Batches, ToBatchResponse(b, now))
	}

	names, err := s.names(ctx, groupIDs(groups))
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].MedicineName = names[groups[i].MedicineID]
		sort.SliceStable(groups[i].Batches, func(a, b int) bool {
			return groups[i].Batches[a].ExpiryDate.Before(groups[i].Batches[b].ExpiryDate)
		})
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].MedicineName < groups[b].MedicineName })
	return groups, nil
}

// MedicineBatches returns one medicine's batches in allocation order
func (s *InventoryService) MedicineBatches(ctx context.Context, medicineID uuid.UUID) (*MedicineStock, error) {
	med, err := s.medicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindByMedicine(ctx, medicineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	now := s.now()
	stock := &MedicineStock{MedicineID: med.ID, MedicineName: med.Name, Batches: make([]BatchResponse, len(batches))}
	for i := range batches {
		stock.Batches[i] = ToBatchResponse(&batches[i], now)
		stock.TotalQuantity += batches[i].QuantityInStock
	}
	return stock, nil
}

// LowStock returns medicines whose total stock is at or below the largest minimum level of their batches
func (s *InventoryService) LowStock(ctx context.Context) ([]LowStockItem, error) {
	levels, err := s.batchRepo.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock: %w", err)
	}

	items := make([]LowStockItem, 0)
	ids := make([]uuid.UUID, 0)
	for _, lvl := range levels {
		if !lvl.IsLow() {
			continue
		}
		ids = append(ids, lvl.MedicineID)
		items = append(items, LowStockItem{
			MedicineID:        lvl.MedicineID,
			TotalQuantity:     lvl.TotalQuantity,
			MinimumStockLevel: lvl.MinimumStockLevel,
			BatchCount:        lvl.BatchCount,
			NearestExpiry:     lvl.NearestExpiry,
		})
	}
	names, err := s.names(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].MedicineName = names[items[i].MedicineID]
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].TotalQuantity < items[b].TotalQuantity })
	return items, nil
}

// Expiring returns batches expiring within the given number of days, including already expired ones.
// days <= 0 selects DefaultExpiringWithinDays.
func (s *InventoryService) Expiring(ctx context.Context, days int) ([]BatchResponse, error) {
	if days <= 0 {
		days = DefaultExpiringWithinDays
	}
	now := s.now()
	cutoff := inventory.DateOnly(now).AddDate(0, 0, days+1)

	batches, err := s.batchRepo.FindExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring batches: %w", err)
	}
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i], now)
	}
	return out, nil
}

func (s *InventoryService) medicine(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	med, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sales.NewMedicineNotFoundError(id)
		}
		return nil, err
	}
	return med, nil
}

func (s *InventoryService) names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	meds, err := s.medicineRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}
	for _, m := range meds {
		out[m.ID] = m.Name
	}
	return out, nil
}

func groupIDs(groups []MedicineStock) []uuid.UUID {
	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.MedicineID
	}
	return ids
}
