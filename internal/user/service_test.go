// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/testutil"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(user.NewRepository(testutil.NewDB(t)))

	plain, err := svc.Register(ctx, "plain@example.com", "Plain", "")
	require.NoError(t, err)
	assert.Equal(t, role.User, plain.HighestRole().Type)
	assert.Empty(t, plain.PasswordHash)

	mod, err := svc.Register(ctx, "mod@example.com", "Mod", "s3cret-password", role.User, role.Admin)
	require.NoError(t, err)
	ok, err := core.VerifyPassword("s3cret-password", mod.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Register(ctx, " ", "Nobody", "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Register(ctx, "plain@example.com", "Again", "")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestAuthViewUsesEffectiveRole(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(user.NewRepository(testutil.NewDB(t)))

	u, err := svc.Register(ctx, "Lead@Example.com", "Lead", "", role.User, role.Admin, role.Manager)
	require.NoError(t, err)

	info, err := svc.GetByEmail(ctx, "LEAD@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, info.ID)
	assert.Equal(t, role.Manager, info.Role)
	assert.Equal(t, "Lead", info.Name)
}

func TestSubmitAppeal(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(user.NewRepository(testutil.NewDB(t)))

	banned, err := svc.Register(ctx, "banned@example.com", "Banned", "", role.Banned)
	require.NoError(t, err)
	active, err := svc.Register(ctx, "active@example.com", "Active", "")
	require.NoError(t, err)

	require.NoError(t, svc.SubmitAppeal(ctx, banned.ID))
	got, err := svc.GetUser(ctx, banned.ID)
	require.NoError(t, err)
	assert.True(t, got.HasSubmittedAppeal)

	assert.ErrorIs(t, svc.SubmitAppeal(ctx, active.ID), core.ErrInvalidInput)
	assert.ErrorIs(t, svc.SubmitAppeal(ctx, 999), core.ErrNotFound)
}
