package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user, err := identity.NewUser("Admin", "admin@pharmacy.local", "adminPassword", identity.RolePharmacyManager)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	dup, err := identity.NewUser("admin", "other@pharmacy.local", "adminPassword", identity.RoleCashier)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

	found, err := repo.FindByUsername(ctx, " ADMIN ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.VerifyPassword("adminPassword"))

	found.RecordLogin(time.Now())
	require.NoError(t, repo.Update(ctx, found))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	ghost, _ := identity.NewUser("ghost", "ghost@pharmacy.local", "ghostPassword", identity.RoleCashier)
	assert.ErrorIs(t, repo.Update(ctx, ghost), shared.ErrNotFound)
}
