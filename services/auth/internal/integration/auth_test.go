package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	pkgdb "github.com/Skotchmaster/till_shop/pkg/db"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/pkg/tokens"
	"github.com/Skotchmaster/till_shop/services/auth/internal/repo"
	"github.com/Skotchmaster/till_shop/services/auth/internal/service"
	"github.com/Skotchmaster/till_shop/services/auth/internal/transport"
)

type integrationEnv struct {
	db  *gorm.DB
	svc *service.AuthService
	rp  *repo.GormRepo
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	rp := repo.New(db)
	env := &integrationEnv{
		db: db,
		rp: rp,
		svc: &service.AuthService{
			Repo:          rp,
			JWTSecret:     []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}

	t.Cleanup(func() {
		require.NoError(t, pkgdb.Truncate(context.Background(), db, "refresh_tokens", "users"))
		pkgdb.Close(db)
	})

	return env
}

func uniqueEmail() string {
	return "u_" + uuid.NewString() + "@shop.test"
}

func registerOwner(t *testing.T, env *integrationEnv) string {
	t.Helper()
	email := uniqueEmail()
	_, err := env.svc.Register(context.Background(), transport.RegisterRequest{
		Email: email, Password: "Secret123", Name: "Owner", Role: session.RoleOwner,
	})
	require.NoError(t, err)
	return email
}

func TestAuthService_Register_SuccessAndConflict(t *testing.T) {
	env := newIntegrationEnv(t)
	email := registerOwner(t, env)

	_, err := env.svc.Register(context.Background(), transport.RegisterRequest{
		Email: email, Password: "Secret123", Name: "Again", Role: session.RoleOwner,
	})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestAuthService_Login_Success_IssuesTokens(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	email := registerOwner(t, env)

	res, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)

	accessClaims, err := tokens.AccessClaimsFromToken(res.AccessToken, env.svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, session.RoleOwner, accessClaims.Role)
	assert.True(t, accessClaims.ExpiresAt.Time.After(time.Now().UTC()))

	refreshClaims, err := tokens.RefreshClaimsFromToken(res.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)
	stored, err := env.rp.FindRefreshByJTI(ctx, refreshClaims.ID)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
}

func TestAuthService_Refresh_Success_RotatesToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	email := registerOwner(t, env)

	loginRes, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)
	oldClaims, err := tokens.RefreshClaimsFromToken(loginRes.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)

	refreshed, err := env.svc.Refresh(ctx, loginRes.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, loginRes.RefreshToken, refreshed.RefreshToken)

	oldTokenModel, err := env.rp.FindRefreshByJTI(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, oldTokenModel.Revoked)
}

func TestAuthService_Refresh_RevokedToken_ReturnsInvalidRefresh(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	email := registerOwner(t, env)

	loginRes, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)
	require.NoError(t, env.svc.LogOut(ctx, loginRes.RefreshToken))

	res, err := env.svc.Refresh(ctx, loginRes.RefreshToken)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, service.ErrInvalidRefreshToken))
}
