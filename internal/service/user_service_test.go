package service

import (
	"context"
	"testing"
	"time"

	"quickbook/internal/auth"
	"quickbook/internal/database"
	"quickbook/internal/models"
	"quickbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*UserService, *database.DB, *repository.MemoryOTPStore, *auth.Issuer) {
	t.Helper()
	db := setupDB(t)
	store := repository.NewMemoryOTPStore()
	issuer := auth.NewIssuer("0123456789abcdef0123", time.Hour, "quickbook")
	return NewUserService(db, store, issuer, testLogger()), db, store, issuer
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("asha@jadeglobal.com"))
	assert.NoError(t, ValidateEmail("asha@kanverse.com"))
	assert.ErrorIs(t, ValidateEmail("asha@gmail.com"), ErrValidation)
	assert.ErrorIs(t, ValidateEmail("not-an-address"), ErrValidation)
	assert.ErrorIs(t, ValidateEmail("asha@evil-jadeglobal.com.io"), ErrValidation)
}

func TestUserService_Signup(t *testing.T) {
	svc, _, store, issuer := newUserFixture(t)
	ctx := context.Background()

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.Signup(ctx, "As", "asha@jadeglobal.com", "secret1")
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.Signup(ctx, "Asha", "asha@gmail.com", "secret1")
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.Signup(ctx, "Asha", "asha@jadeglobal.com", "12345")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("RequiresVerifiedEmail", func(t *testing.T) {
		_, err := svc.Signup(ctx, "Asha", "asha@jadeglobal.com", "secret1")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	require.NoError(t, store.MarkVerified(ctx, "asha@jadeglobal.com", time.Minute))
	user, err := svc.Signup(ctx, "  Asha ", "Asha@JadeGlobal.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "asha@jadeglobal.com", user.Email)
	assert.Equal(t, models.RoleEmployee, user.Role)

	verified, err := store.IsVerified(ctx, "asha@jadeglobal.com")
	require.NoError(t, err)
	assert.False(t, verified, "verification is single use")

	t.Run("Duplicate", func(t *testing.T) {
		require.NoError(t, store.MarkVerified(ctx, "asha@jadeglobal.com", time.Minute))
		_, err := svc.Signup(ctx, "Asha", "asha@jadeglobal.com", "secret1")
		assert.ErrorIs(t, err, database.ErrDuplicate)
	})

	t.Run("Login", func(t *testing.T) {
		token, got, err := svc.Login(ctx, "ASHA@jadeglobal.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := issuer.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, models.RoleEmployee, claims.Role)

		_, _, err = svc.Login(ctx, "asha@jadeglobal.com", "wrong-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, _, err = svc.Login(ctx, "nobody@jadeglobal.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_Profile(t *testing.T) {
	svc, db, _, _ := newUserFixture(t)
	ctx := context.Background()
	u := createUser(t, db, "Asha", "asha@jadeglobal.com", models.RoleEmployee)

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	updated, err := svc.UpdateProfile(ctx, u.ID, "Asha Rao")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", updated.Name)

	_, err = svc.UpdateProfile(ctx, u.ID, "A")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Admin(t *testing.T) {
	svc, db, _, _ := newUserFixture(t)
	ctx := context.Background()
	u := createUser(t, db, "Asha", "asha@jadeglobal.com", models.RoleEmployee)
	boss := createUser(t, db, "Meera", "meera@kanverse.com", models.RoleAdmin)

	_, err := svc.ListUsers(ctx, employee(u))
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := svc.ListUsers(ctx, admin(boss))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.UpdateRole(ctx, employee(u), u.ID, "admin")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateRole(ctx, admin(boss), u.ID, "superuser")
	assert.ErrorIs(t, err, ErrValidation)

	promoted, err := svc.UpdateRole(ctx, admin(boss), u.ID, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin(boss), boss.ID), ErrValidation)
	require.NoError(t, svc.DeleteUser(ctx, admin(boss), u.ID))
	_, err = svc.GetUser(ctx, admin(boss), u.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUserService_PromoteAdmins(t *testing.T) {
	svc, db, _, _ := newUserFixture(t)
	ctx := context.Background()
	u := createUser(t, db, "Asha", "asha@jadeglobal.com", models.RoleEmployee)

	n, err := svc.PromoteAdmins(ctx, []string{" ASHA@jadeglobal.com", "ghost@kanverse.com", ""})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	n, err = svc.PromoteAdmins(ctx, []string{"asha@jadeglobal.com"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
