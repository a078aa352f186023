package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	identityapp "github.com/pharmacy/backend/internal/application/identity"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type demoBatch struct {
	number     string
	expiryDays int
	quantity   int
	price      int64
}

type demoMedicine struct {
	medicine catalogapp.MedicineRequest
	batches  []demoBatch
}

var demoCatalog = []demoMedicine{
	{
		medicine: catalogapp.MedicineRequest{
			Name: "Paracetamol 500mg", GenericName: "Paracetamol", Manufacturer: "Cipla",
			Category: "analgesic", Form: "tablet", Strength: "500mg", Unit: "strip",
		},
		batches: []demoBatch{
			{number: "PCM-2401", expiryDays: 45, quantity: 40, price: 25},
			{number: "PCM-2402", expiryDays: 240, quantity: 120, price: 28},
		},
	},
	{
		medicine: catalogapp.MedicineRequest{
			Name: "Amoxicillin 250mg", GenericName: "Amoxicillin", Manufacturer: "Sun Pharma",
			Category: "antibiotic", Form: "capsule", Strength: "250mg", Unit: "strip", PrescriptionRequired: true,
		},
		batches: []demoBatch{
			{number: "AMX-1107", expiryDays: 20, quantity: 8, price: 60},
			{number: "AMX-1201", expiryDays: 300, quantity: 50, price: 64},
		},
	},
	{
		medicine: catalogapp.MedicineRequest{
			Name: "Cetirizine 10mg", GenericName: "Cetirizine", Manufacturer: "Dr. Reddy's",
			Category: "antihistamine", Form: "tablet", Strength: "10mg", Unit: "strip",
		},
		batches: []demoBatch{
			{number: "CTZ-0905", expiryDays: 180, quantity: 15, price: 18},
		},
	},
}

func main() {
	var (
		username string
		email    string
		password string
		demo     bool
	)
	flag.StringVar(&username, "username", "admin", "Username of the first pharmacy manager")
	flag.StringVar(&email, "email", "", "Email of the first pharmacy manager")
	flag.StringVar(&password, "password", os.Getenv("PHARMA_SEED_PASSWORD"), "Password of the first pharmacy manager (env PHARMA_SEED_PASSWORD)")
	flag.BoolVar(&demo, "demo", false, "Also load a small demo catalog with batches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if password == "" {
		log.Fatal("A password is required: pass -password or set PHARMA_SEED_PASSWORD")
	}

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel("warn"), 0))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := identityapp.NewUserService(persistence.NewGormUserRepository(db.DB), log)
	created, err := users.EnsureFirstManager(ctx, username, email, password)
	if err != nil {
		log.Fatal("Failed to create first manager", zap.Error(err))
	}
	if created {
		log.Info("First pharmacy manager created", zap.String("username", username))
	} else {
		log.Info("Users already exist, skipping manager creation")
	}

	if !demo {
		return
	}
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	if err := seedDemo(ctx,
		catalogapp.NewMedicineService(medicineRepo),
		inventoryapp.NewInventoryService(persistence.NewGormBatchRepository(db.DB), medicineRepo, log),
		log,
	); err != nil {
		log.Fatal("Failed to load demo catalog", zap.Error(err))
	}
}

func seedDemo(ctx context.Context, medicines *catalogapp.MedicineService, inventory *inventoryapp.InventoryService, log *zap.Logger) error {
	existing, err := medicines.List(ctx, catalogapp.MedicineListFilter{PageSize: 1})
	if err != nil {
		return err
	}
	if existing.Total > 0 {
		log.Info("Catalog is not empty, skipping demo data", zap.Int64("medicines", existing.Total))
		return nil
	}

	today := time.Now()
	for _, item := range demoCatalog {
		med, err := medicines.Create(ctx, item.medicine)
		if err != nil {
			return fmt.Errorf("create %s: %w", item.medicine.Name, err)
		}
		for _, b := range item.batches {
			qty := b.quantity
			price := decimal.NewFromInt(b.price)
			mrp := price.Mul(decimal.NewFromFloat(1.2)).Round(2)
			if _, err := inventory.Intake(ctx, inventoryapp.IntakeRequest{
				MedicineID:      med.ID,
				BatchNumber:     b.number,
				ExpiryDate:      today.AddDate(0, 0, b.expiryDays).Format("2006-01-02"),
				SellingPrice:    &price,
				MRP:             &mrp,
				QuantityInStock: &qty,
			}); err != nil {
				return fmt.Errorf("intake %s: %w", b.number, err)
			}
		}
		log.Info("Demo medicine loaded", zap.String("name", med.Name), zap.Int("batches", len(item.batches)))
	}
	return nil
}
