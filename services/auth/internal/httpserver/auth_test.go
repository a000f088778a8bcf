package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/authclient"
	"github.com/Skotchmaster/till_shop/pkg/events"
	jwthelp "github.com/Skotchmaster/till_shop/pkg/jwt"
	"github.com/Skotchmaster/till_shop/services/auth/internal/repo"
	"github.com/Skotchmaster/till_shop/services/auth/internal/service"
	"github.com/Skotchmaster/till_shop/services/auth/internal/transport"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	secret := []byte("test-jwt-secret")
	svc := &service.AuthService{
		Repo:          repo.New(db),
		JWTSecret:     secret,
		RefreshSecret: []byte("test-refresh-secret"),
		Events:        events.Nop{},
	}
	e := echo.New()
	Register(e, &Deps{AuthHandler: &AuthHTTP{Svc: svc}, JWTSecret: secret})
	return e
}

func do(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const ownerBody = `{"email":"Olga@Shop.test","password":"Secret123","name":"Olga","role":"owner"}`

func TestRegisterHandler(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/auth/register", ownerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p transport.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "olga@shop.test", p.Email)

	rec = do(e, http.MethodPost, "/auth/register", ownerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/auth/register", `{"email":"x@shop.test","password":"Secret123","name":"X","role":"teller","owner_email":"ghost@shop.test"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/auth/register", `{"email":"x","password":"1","role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginMeRefreshLogout(t *testing.T) {
	e := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/auth/register", ownerBody).Code)

	rec := do(e, http.MethodPost, "/auth/login", `{"email":"olga@shop.test","password":"bad-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/auth/login", `{"email":"olga@shop.test","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookie(rec, jwthelp.AccessCookie)
	refresh := cookie(rec, jwthelp.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	rec = do(e, http.MethodGet, "/auth/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"olga@shop.test"`)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/auth/me", "").Code)

	rec = do(e, http.MethodGet, "/auth/tellers", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	var rr authclient.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rr))
	assert.NotEmpty(t, rr.AccessToken)
	assert.NotEqual(t, refresh.Value, rr.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/auth/refresh", "", refresh).Code)

	next := &http.Cookie{Name: jwthelp.RefreshCookie, Value: rr.RefreshToken}
	rec = do(e, http.MethodPost, "/auth/logout", "", next)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookie(rec, jwthelp.AccessCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/auth/refresh", "", next).Code)
}

func TestTellers_OwnerOnly(t *testing.T) {
	e := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/auth/register", ownerBody).Code)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/auth/register",
		`{"email":"sam@shop.test","password":"Secret123","name":"Sam","role":"teller","owner_email":"olga@shop.test"}`).Code)

	rec := do(e, http.MethodPost, "/auth/login", `{"email":"sam@shop.test","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner_email":"olga@shop.test"`)

	rec = do(e, http.MethodGet, "/auth/tellers", "", cookie(rec, jwthelp.AccessCookie))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
