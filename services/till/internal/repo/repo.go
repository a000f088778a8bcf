package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
)

type GormRepo struct {
	DB       *gorm.DB
	Products *recordstore.Collection[models.Product]
	Orders   *recordstore.Collection[models.Order]
}

func New(db *gorm.DB) *GormRepo {
	products := recordstore.New[models.Product](db, "products")
	products.OrderBy = "name ASC"
	return &GormRepo{
		DB:       db,
		Products: products,
		Orders:   recordstore.New[models.Order](db, "orders").WithPreload("Lines"),
	}
}

func (r *GormRepo) GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*models.Product, error) {
	return r.Products.GetByID(ctx, ownerID, id)
}

type ProductFilter struct {
	Search   string
	Category string
}

// ListProducts mirrors the teller picker: case-insensitive name match and an
// exact category match, "All" or empty meaning any.
func (r *GormRepo) ListProducts(ctx context.Context, ownerID uuid.UUID, f ProductFilter) ([]models.Product, error) {
	all, err := r.Products.FetchAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		if f.Category != "" && f.Category != "All" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *GormRepo) Categories(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	all, err := r.Products.FetchAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range all {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

// Decrement is conditional: the row only changes while enough stock remains,
// so two tills selling the last unit cannot both succeed.
func (r *GormRepo) Decrement(ctx context.Context, ownerID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", recordstore.ErrValidation)
	}
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND owner_id = ? AND quantity >= ?", productID, ownerID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrShort(ctx, ownerID, productID)
	}
	return nil
}

func (r *GormRepo) missOrShort(ctx context.Context, ownerID, productID uuid.UUID) error {
	if _, err := r.Products.GetByID(ctx, ownerID, productID); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("decrement %s: %w", productID, err)
	}
	return checkout.ErrInsufficientStock
}

func (r *GormRepo) Restore(ctx context.Context, ownerID, productID uuid.UUID, qty int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND owner_id = ?", productID, ownerID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("restore %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("restore %s: %w", productID, recordstore.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) InsertOrder(ctx context.Context, order *models.Order) error {
	return r.Orders.Insert(ctx, order)
}
