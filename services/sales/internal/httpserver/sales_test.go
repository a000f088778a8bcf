package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/sales/internal/live"
	"github.com/Skotchmaster/till_shop/services/sales/internal/repo"
	"github.com/Skotchmaster/till_shop/services/sales/internal/service"
	"github.com/Skotchmaster/till_shop/services/sales/internal/transport"
)

var clock = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	h    *SalesHTTP
	repo *repo.GormRepo
	sess session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	r := repo.New(db)
	id := uuid.New()
	return &fixture{
		h: &SalesHTTP{
			Svc:      &service.SalesService{Repo: r, Now: func() time.Time { return clock }},
			Hub:      live.NewHub(),
			Upgrader: live.NewUpgrader(nil),
		},
		repo: r,
		sess: session.Session{UserID: id, OwnerID: id, Role: session.RoleOwner, Name: "Lerato"},
	}
}

func (f *fixture) call(t *testing.T, target string, handler echo.HandlerFunc, params ...string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(session.IntoContext(req.Context(), f.sess))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return rec, handler(c)
}

func (f *fixture) order(t *testing.T, total int64, at time.Time) models.Order {
	t.Helper()
	amount := decimal.NewFromInt(total)
	o := models.Order{
		CheckoutID: uuid.New(), OwnerID: f.sess.OwnerID, TellerID: uuid.New(), TellerName: "Sam",
		PaymentMethod: models.PaymentCash, Subtotal: amount, CardFee: decimal.Zero, Total: amount,
		CashGiven: amount, ChangeDue: decimal.Zero, CreatedAt: at,
	}
	require.NoError(t, f.repo.Orders.Insert(t.Context(), &o))
	return o
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.order(t, 10, clock.Add(-time.Hour))
	f.order(t, 20, clock.AddDate(0, 0, -40))

	rec, err := f.call(t, "/?range=last30Days", f.h.ListOrders)
	require.NoError(t, err)
	var page transport.OrderPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Meta.Total)

	rec, err = f.call(t, "/", f.h.ListOrders)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 2, page.Meta.Total)

	_, err = f.call(t, "/?date=yesterday", f.h.ListOrders)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, 10, clock)

	rec, err := f.call(t, "/", f.h.GetOrder, "id", o.ID.String())
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), o.CheckoutID.String())

	_, err = f.call(t, "/", f.h.GetOrder, "id", "abc")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.call(t, "/", f.h.GetOrder, "id", uuid.NewString())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestSummaryAndDashboard(t *testing.T) {
	f := newFixture(t)
	f.order(t, 10, clock.Add(-time.Hour))
	f.order(t, 5, clock.AddDate(0, 0, -2))

	rec, err := f.call(t, "/?range=today", f.h.Summary)
	require.NoError(t, err)
	var sum transport.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.EqualValues(t, 1, sum.OrderCount)
	assert.True(t, sum.TotalSales.Equal(decimal.NewFromInt(10)))

	_, err = f.call(t, "/?range=decade", f.h.Summary)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	rec, err = f.call(t, "/", f.h.Dashboard)
	require.NoError(t, err)
	var d transport.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.True(t, d.TotalSales.Equal(decimal.NewFromInt(15)))
	assert.EqualValues(t, 1, d.TodayOrders)
}

func TestLive_StreamsToOwner(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	e.GET("/sales/live", f.h.Live, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(session.IntoContext(req.Context(), f.sess)))
			return next(c)
		}
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/sales/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.h.Hub.Clients(f.sess.OwnerID) == 1 }, 2*time.Second, 10*time.Millisecond)
	f.h.Hub.Publish(f.sess.OwnerID, []byte(`{"type":"order_created"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"order_created"}`, string(msg))
}

func TestLive_RequiresSession(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/sales/live", nil), httptest.NewRecorder())
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, f.h.Live(c)))
}
