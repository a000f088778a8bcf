package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
)

type GormRepo struct {
	DB       *gorm.DB
	Orders   *recordstore.Collection[models.Order]
	Products *recordstore.Collection[models.Product]
}

func New(db *gorm.DB) *GormRepo {
	orders := recordstore.New[models.Order](db, "orders").WithPreload("Lines")
	products := recordstore.New[models.Product](db, "products")
	products.OrderBy = "name ASC"
	return &GormRepo{DB: db, Orders: orders, Products: products}
}

// Span is a half-open [From, To) window; a nil bound is open.
type Span struct {
	From *time.Time
	To   *time.Time
}

func (s Span) apply(tx *gorm.DB) *gorm.DB {
	if s.From != nil {
		tx = tx.Where("created_at >= ?", *s.From)
	}
	if s.To != nil {
		tx = tx.Where("created_at < ?", *s.To)
	}
	return tx
}

func (r *GormRepo) ListOrders(ctx context.Context, ownerID uuid.UUID, span Span, offset, limit int) (int64, []models.Order, error) {
	base := span.apply(r.DB.WithContext(ctx).Model(&models.Order{}).Where("owner_id = ?", ownerID))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := span.apply(r.DB.WithContext(ctx).Where("owner_id = ?", ownerID)).
		Preload("Lines").
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, ownerID, id uuid.UUID) (*models.Order, error) {
	return r.Orders.GetByID(ctx, ownerID, id)
}

type MethodTotal struct {
	PaymentMethod models.PaymentMethod
	Orders        int64
	Total         decimal.Decimal
}

// TotalsByMethod sums order totals per payment method inside span.
func (r *GormRepo) TotalsByMethod(ctx context.Context, ownerID uuid.UUID, span Span) ([]MethodTotal, error) {
	var rows []MethodTotal
	err := span.apply(r.DB.WithContext(ctx).Model(&models.Order{}).Where("owner_id = ?", ownerID)).
		Select("payment_method, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS total").
		Group("payment_method").
		Order("payment_method ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}

func (r *GormRepo) CountOrders(ctx context.Context, ownerID uuid.UUID, span Span) (int64, error) {
	var n int64
	err := span.apply(r.DB.WithContext(ctx).Model(&models.Order{}).Where("owner_id = ?", ownerID)).Count(&n).Error
	return n, err
}

func (r *GormRepo) AllProducts(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	return r.Products.FetchAllByOwner(ctx, ownerID)
}
