package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/sales/internal/repo"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *SalesService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	return &SalesService{Repo: repo.New(db), Now: func() time.Time { return now }}
}

func ownerSession() session.Session {
	id := uuid.New()
	return session.Session{UserID: id, OwnerID: id, Role: session.RoleOwner}
}

func addOrder(t *testing.T, s *SalesService, owner uuid.UUID, method models.PaymentMethod, total string, at time.Time) models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	o := models.Order{
		CheckoutID:    uuid.New(),
		OwnerID:       owner,
		TellerID:      uuid.New(),
		TellerName:    "Sam",
		PaymentMethod: method,
		Subtotal:      amount,
		CardFee:       decimal.Zero,
		Total:         amount,
		CashGiven:     decimal.Zero,
		ChangeDue:     decimal.Zero,
		Lines: []models.OrderLine{
			{ProductID: uuid.New(), Name: "Tea", Price: amount, Quantity: 1, LineTotal: amount},
		},
		CreatedAt: at,
	}
	require.NoError(t, s.Repo.Orders.Insert(context.Background(), &o))
	return o
}

func addProduct(t *testing.T, s *SalesService, owner uuid.UUID, name, category, price string, qty int) {
	t.Helper()
	p := models.Product{OwnerID: owner, Name: name, Category: category, Price: decimal.RequireFromString(price), Quantity: qty}
	require.NoError(t, s.Repo.Products.Insert(context.Background(), &p))
}

func TestListOrders_Ranges(t *testing.T) {
	s := newTestService(t)
	sess := ownerSession()
	ctx := context.Background()

	addOrder(t, s, sess.OwnerID, models.PaymentCash, "10", now.Add(-time.Hour))
	addOrder(t, s, sess.OwnerID, models.PaymentCard, "21", now.AddDate(0, 0, -3))
	addOrder(t, s, sess.OwnerID, models.PaymentCash, "5", now.AddDate(0, 0, -20))
	addOrder(t, s, sess.OwnerID, models.PaymentCash, "7", now.AddDate(0, 0, -90))
	addOrder(t, s, uuid.New(), models.PaymentCash, "99", now)

	cases := map[Range]int64{RangeToday: 1, RangeLast7Days: 2, RangeLast30Days: 3, RangeAllTime: 4}
	for r, want := range cases {
		page, err := s.ListOrders(ctx, sess, r, "", 1, 10)
		require.NoError(t, err, r)
		assert.Equal(t, want, page.Meta.Total, r)
	}

	page, err := s.ListOrders(ctx, sess, RangeAllTime, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 4)
	assert.True(t, page.Data[0].Total.Equal(decimal.NewFromInt(10)), "newest first")
	require.Len(t, page.Data[0].Lines, 1)

	page, err = s.ListOrders(ctx, sess, "", now.AddDate(0, 0, -3).Format("2006-01-02"), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)

	_, err = s.ListOrders(ctx, sess, "fortnight", "", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOrder_OwnerScoped(t *testing.T) {
	s := newTestService(t)
	sess := ownerSession()
	o := addOrder(t, s, sess.OwnerID, models.PaymentCard, "63", now)

	got, err := s.GetOrder(context.Background(), sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.CheckoutID, got.CheckoutID)

	_, err = s.GetOrder(context.Background(), ownerSession(), o.ID)
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestSummary(t *testing.T) {
	s := newTestService(t)
	sess := ownerSession()
	ctx := context.Background()

	addOrder(t, s, sess.OwnerID, models.PaymentCash, "10.50", now.Add(-time.Hour))
	addOrder(t, s, sess.OwnerID, models.PaymentCard, "63", now.Add(-2*time.Hour))
	addOrder(t, s, sess.OwnerID, models.PaymentCard, "20", now.AddDate(0, 0, -10))

	sum, err := s.Summary(ctx, sess, RangeLast7Days, "")
	require.NoError(t, err)
	assert.Equal(t, "last7Days", sum.Range)
	assert.EqualValues(t, 2, sum.OrderCount)
	assert.EqualValues(t, 2, sum.TodayOrders)
	assert.True(t, sum.TotalSales.Equal(decimal.RequireFromString("73.5")), sum.TotalSales.String())
	require.Len(t, sum.ByMethod, 2)
	assert.Equal(t, models.PaymentCard, sum.ByMethod[0].PaymentMethod)
	assert.True(t, sum.ByMethod[0].Total.Equal(decimal.NewFromInt(63)))

	sum, err = s.Summary(ctx, sess, "", "")
	require.NoError(t, err)
	assert.Equal(t, "allTime", sum.Range)
	assert.EqualValues(t, 3, sum.OrderCount)
	assert.EqualValues(t, 2, sum.TodayOrders)

	sum, err = s.Summary(ctx, ownerSession(), RangeToday, "")
	require.NoError(t, err)
	assert.True(t, sum.TotalSales.IsZero())
	assert.NotNil(t, sum.ByMethod)
}

func TestDashboard(t *testing.T) {
	s := newTestService(t)
	sess := ownerSession()
	ctx := context.Background()

	addProduct(t, s, sess.OwnerID, "Tea", "Drinks", "2.50", 4)
	addProduct(t, s, sess.OwnerID, "Coffee", "Drinks", "10", 0)
	addProduct(t, s, sess.OwnerID, "Bread", "Bakery", "1.25", 40)
	addProduct(t, s, uuid.New(), "Other", "Misc", "1", 1)
	addOrder(t, s, sess.OwnerID, models.PaymentCash, "12", now.Add(-time.Hour))
	addOrder(t, s, sess.OwnerID, models.PaymentCard, "30", now.AddDate(0, 0, -2))

	d, err := s.Dashboard(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 3, d.ProductCount)
	assert.Equal(t, 44, d.UnitsOnHand)
	assert.True(t, d.StockValue.Equal(decimal.NewFromInt(60)), d.StockValue.String())
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, 1, d.OutOfStock)
	assert.Equal(t, 2, d.Categories)
	assert.True(t, d.TotalSales.Equal(decimal.NewFromInt(42)))
	assert.True(t, d.TodaySales.Equal(decimal.NewFromInt(12)))
	assert.EqualValues(t, 1, d.TodayOrders)
	require.Len(t, d.LowStockItems, 2)
	assert.Equal(t, "Coffee", d.LowStockItems[0].Name)
	assert.Equal(t, models.StockOut, d.LowStockItems[0].StockStatus)
}
