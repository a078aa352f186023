package integration

import (
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/infrastructure/migration"
	"github.com/pharmacy/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_RoundTrip(t *testing.T) {
	db := NewTestDB(t)

	names, err := migration.ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	sqlDB, err := sql.Open("postgres", db.DSN)
	require.NoError(t, err)
	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, names[len(names)-1][:14], uintString(version))

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "re-running up is a no-op")
}

func TestSchema_BatchConstraints(t *testing.T) {
	db := NewTestDB(t)
	medicineID := uuid.New()
	require.NoError(t, db.DB.Exec(
		`INSERT INTO medicines (id, name) VALUES (?, 'Azithromycin 500mg')`, medicineID,
	).Error)

	expiry := time.Now().AddDate(0, 6, 0).Format("2006-01-02")
	insert := func(qty int) error {
		return db.DB.Exec(`
			INSERT INTO inventory_batches (id, medicine_id, batch_number, expiry_date, quantity_in_stock)
			VALUES (?, ?, 'AZ-1', ?, ?)`, uuid.New(), medicineID, expiry, qty).Error
	}

	require.NoError(t, insert(10))
	assert.Error(t, insert(4), "batch key is unique per medicine and expiry")

	err := db.DB.Exec(`UPDATE inventory_batches SET quantity_in_stock = -1 WHERE medicine_id = ?`, medicineID).Error
	assert.Error(t, err, "stock cannot go negative")
}

func TestSchema_CustomerContactIsUnique(t *testing.T) {
	db := NewTestDB(t)
	insert := func(code string) error {
		return db.DB.Exec(`
			INSERT INTO customers (id, code, name, contact)
			VALUES (?, ?, 'Meera', '9811111111')`, uuid.New(), code).Error
	}

	require.NoError(t, insert("CUST-1"))
	assert.Error(t, insert("CUST-2"))
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
