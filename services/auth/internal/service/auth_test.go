package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/pkg/tokens"
	"github.com/Skotchmaster/till_shop/services/auth/internal/repo"
	"github.com/Skotchmaster/till_shop/services/auth/internal/transport"
)

type recordingPublisher struct {
	events []map[string]any
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _, _ string, event any) error {
	p.events = append(p.events, event.(map[string]any))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	pub := &recordingPublisher{}
	return &AuthService{
		Repo:          repo.New(db),
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Events:        pub,
	}, pub
}

func registerOwner(t *testing.T, svc *AuthService, email string) *transport.Profile {
	t.Helper()
	p, err := svc.Register(context.Background(), transport.RegisterRequest{
		Email: email, Password: "Secret123", Name: "Olga", Role: session.RoleOwner,
	})
	require.NoError(t, err)
	return p
}

func TestAuthService_CreateAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	p := transport.Profile{
		ID: uuid.New(), OwnerID: uuid.New(), Role: session.RoleTeller,
		Name: "Sam", Email: "sam@shop.test", OwnerEmail: "olga@shop.test",
	}
	accessExp := time.Now().Add(15 * time.Minute).UTC()

	token, err := svc.CreateAccessToken(p, accessExp)
	require.NoError(t, err)

	claims, err := tokens.AccessClaimsFromToken(token, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, p.Role, claims.Role)
	assert.Equal(t, p.ID.String(), claims.Subject)
	assert.Equal(t, p.OwnerID.String(), claims.OwnerID)
	assert.Equal(t, "olga@shop.test", claims.OwnerEmail)
	assert.WithinDuration(t, accessExp, claims.ExpiresAt.Time, time.Second)
}

func TestAuthService_CreateRefreshToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	userID := uuid.NewString()
	refreshExp := time.Now().Add(24 * time.Hour).UTC()

	token, record, err := svc.CreateRefreshToken(userID, refreshExp)
	require.NoError(t, err)

	claims, err := tokens.RefreshClaimsFromToken(token, svc.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, claims.ID, record.JTI)
	assert.NotEqual(t, token, record.Token)
	assert.Equal(t, refreshExp.Unix(), record.ExpiresAt)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{name: "bad email", req: transport.RegisterRequest{Email: "nope", Password: "Secret123", Name: "A", Role: "owner"}},
		{name: "short password", req: transport.RegisterRequest{Email: "a@b.c", Password: "123", Name: "A", Role: "owner"}},
		{name: "no name", req: transport.RegisterRequest{Email: "a@b.c", Password: "Secret123", Role: "owner"}},
		{name: "unknown role", req: transport.RegisterRequest{Email: "a@b.c", Password: "Secret123", Name: "A", Role: "admin"}},
		{name: "teller without owner", req: transport.RegisterRequest{Email: "a@b.c", Password: "Secret123", Name: "A", Role: "teller"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_OwnerAndTeller(t *testing.T) {
	svc, pub := newTestAuthService(t)
	ctx := context.Background()

	owner := registerOwner(t, svc, "  Olga@Shop.TEST ")
	assert.Equal(t, "olga@shop.test", owner.Email)
	assert.Equal(t, owner.ID, owner.OwnerID)
	assert.Equal(t, owner.Email, owner.OwnerEmail)

	teller, err := svc.Register(ctx, transport.RegisterRequest{
		Email: "sam@shop.test", Password: "Secret123", Name: "Sam",
		Role: session.RoleTeller, OwnerEmail: "OLGA@shop.test",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, teller.OwnerID)
	assert.Equal(t, "olga@shop.test", teller.OwnerEmail)

	_, err = svc.Register(ctx, transport.RegisterRequest{
		Email: "olga@shop.test", Password: "Secret123", Name: "Dup", Role: session.RoleOwner,
	})
	assert.ErrorIs(t, err, ErrConflict)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "user_registered", pub.events[1]["type"])
	assert.Equal(t, owner.ID.String(), pub.events[1]["owner_id"])
}

func TestAuthService_Register_TellerNeedsOwner(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, transport.RegisterRequest{
		Email: "sam@shop.test", Password: "Secret123", Name: "Sam",
		Role: session.RoleTeller, OwnerEmail: "ghost@shop.test",
	})
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	owner := registerOwner(t, svc, "olga@shop.test")

	_, err := svc.Login(ctx, "olga@shop.test", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost@shop.test", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	res, err := svc.Login(ctx, "OLGA@shop.test", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, res.Profile.ID)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	s, err := session.FromClaims(claims)
	require.NoError(t, err)
	assert.True(t, s.IsOwner())
	assert.Equal(t, owner.ID, s.OwnerID)
}

func TestAuthService_Refresh_RotatesOnce(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerOwner(t, svc, "olga@shop.test")

	login, err := svc.Login(ctx, "olga@shop.test", "Secret123")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	res, err := svc.Refresh(context.Background(), "not-a-valid-jwt")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))
}

func TestAuthService_LogOut_RevokesRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerOwner(t, svc, "olga@shop.test")

	require.NoError(t, svc.LogOut(ctx, ""))

	login, err := svc.Login(ctx, "olga@shop.test", "Secret123")
	require.NoError(t, err)
	require.NoError(t, svc.LogOut(ctx, login.RefreshToken))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_MeAndTellers(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	owner := registerOwner(t, svc, "olga@shop.test")
	other := registerOwner(t, svc, "ivan@shop.test")

	for _, email := range []string{"b@shop.test", "a@shop.test"} {
		_, err := svc.Register(ctx, transport.RegisterRequest{
			Email: email, Password: "Secret123", Name: email, Role: session.RoleTeller, OwnerEmail: owner.Email,
		})
		require.NoError(t, err)
	}
	_, err := svc.Register(ctx, transport.RegisterRequest{
		Email: "c@shop.test", Password: "Secret123", Name: "c", Role: session.RoleTeller, OwnerEmail: other.Email,
	})
	require.NoError(t, err)

	ownerSess := session.Session{UserID: owner.ID, OwnerID: owner.ID, Role: session.RoleOwner, Email: owner.Email}
	tellers, err := svc.Tellers(ctx, ownerSess)
	require.NoError(t, err)
	require.Len(t, tellers, 2)
	assert.Equal(t, "a@shop.test", tellers[0].Email)
	assert.Equal(t, owner.Email, tellers[0].OwnerEmail)

	me, err := svc.Me(ctx, ownerSess)
	require.NoError(t, err)
	assert.Equal(t, owner.Email, me.Email)

	_, err = svc.Me(ctx, session.Session{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}
