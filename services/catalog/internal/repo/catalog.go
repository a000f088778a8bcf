package repo

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
)

type GormRepo struct {
	DB       *gorm.DB
	Products *recordstore.Collection[models.Product]
}

func New(db *gorm.DB) *GormRepo {
	products := recordstore.New[models.Product](db, "products")
	products.OrderBy = "name ASC"
	return &GormRepo{DB: db, Products: products}
}

type ProductFilter struct {
	Search   string
	Category string
}

func (f ProductFilter) apply(tx *gorm.DB) *gorm.DB {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+escapeLike(term)+"%")
	}
	if f.Category != "" && f.Category != "All" {
		tx = tx.Where("category = ?", f.Category)
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

func (r *GormRepo) GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*models.Product, error) {
	return r.Products.GetByID(ctx, ownerID, id)
}

func (r *GormRepo) GetProducts(ctx context.Context, ownerID uuid.UUID, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	base := f.apply(r.DB.WithContext(ctx).Model(&models.Product{}).Where("owner_id = ?", ownerID))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := f.apply(r.DB.WithContext(ctx).Where("owner_id = ?", ownerID)).
		Order("name ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ProductsByIDs keeps the order of ids and skips ids that are gone.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) AllProducts(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	return r.Products.FetchAllByOwner(ctx, ownerID)
}

func (r *GormRepo) Categories(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	var cats []string
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("owner_id = ? AND category <> ''", ownerID).
		Distinct().Pluck("category", &cats).Error; err != nil {
		return nil, err
	}
	sort.Strings(cats)
	return cats, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.Products.Insert(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *GormRepo) PatchProduct(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) (*models.Product, error) {
	if len(fields) > 0 {
		if err := r.Products.UpdateByID(ctx, ownerID, id, fields); err != nil {
			return nil, err
		}
	}
	return r.Products.GetByID(ctx, ownerID, id)
}

func (r *GormRepo) DeleteProduct(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.Products.DeleteByID(ctx, ownerID, id)
}
