package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/pkg/blob"
	"github.com/Skotchmaster/till_shop/pkg/events"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/export"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/repo"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/search"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/transport"
)

var (
	ErrValidation     = errors.New("validation")
	ErrNoImageStore   = errors.New("image store not configured")
	ErrUnsupportedImg = errors.New("unsupported image type")
)

const indexTimeout = 5 * time.Second

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  search.Index
	Images blob.Store
	Events events.Publisher
	Now    func() time.Time
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CatalogService) index() search.Index {
	if s.Index == nil {
		return search.Nop{}
	}
	return s.Index
}

func (s *CatalogService) GetProduct(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, sess.OwnerID, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, sess session.Session, f repo.ProductFilter, page, size int) (*transport.ProductPage, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, sess.OwnerID, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{
		Data: transport.NewProductViews(items),
		Meta: util.NewMeta(page, offset, limit, total),
	}, nil
}

// SearchProducts asks the index first and reloads hits from the database so
// stock is current. Without a working index it falls back to a name match.
func (s *CatalogService) SearchProducts(ctx context.Context, sess session.Session, q, category string, page, size int) (*transport.ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")
	offset, limit := util.Calculate(page, size)

	q = strings.TrimSpace(q)
	if q == "" {
		return s.GetProducts(ctx, sess, repo.ProductFilter{Category: category}, page, size)
	}

	total, ids, err := s.index().Search(ctx, sess.OwnerID, q, category, offset, limit)
	if err == nil {
		items, err := s.Repo.ProductsByIDs(ctx, sess.OwnerID, ids)
		if err != nil {
			return nil, err
		}
		return &transport.ProductPage{
			Data: transport.NewProductViews(items),
			Meta: util.NewMeta(page, offset, limit, total),
		}, nil
	}
	if !errors.Is(err, search.ErrUnavailable) {
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.GetProducts(ctx, sess, repo.ProductFilter{Search: q, Category: category}, page, size)
}

func (s *CatalogService) Categories(ctx context.Context, sess session.Session) ([]string, error) {
	return s.Repo.Categories(ctx, sess.OwnerID)
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sess session.Session, req transport.CreateProductRequest) (*models.Product, error) {
	prod := models.Product{
		OwnerID:  sess.OwnerID,
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Price:    req.Price.Round(2),
		Quantity: req.Quantity,
		ImageURL: req.ImageURL,
	}
	if err := validateProduct(prod); err != nil {
		return nil, err
	}

	created, err := s.Repo.CreateProduct(ctx, &prod)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, *created)
	s.publish(ctx, "product_created", created)
	return created, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, sess session.Session, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		fields["name"] = name
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		fields["price"] = req.Price.Round(2)
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}
		fields["quantity"] = *req.Quantity
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}

	prod, err := s.Repo.PatchProduct(ctx, sess.OwnerID, id, fields)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, *prod)
	s.publish(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, sess.OwnerID, id); err != nil {
		return err
	}

	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.index().Delete(ictx, id); err != nil {
		logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", id, "error", err)
	}

	events.Emit(ctx, s.Events, events.TopicProducts, sess.OwnerID.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id.String(),
		"owner_id":   sess.OwnerID.String(),
	})
	return nil
}

// mirror keeps the search index in step; a stale index only degrades search.
func (s *CatalogService) mirror(ctx context.Context, p models.Product) {
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.index().Upsert(ictx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_upsert_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, kind string, p *models.Product) {
	events.Emit(ctx, s.Events, events.TopicProducts, p.OwnerID.String(), map[string]any{
		"type":       kind,
		"product_id": p.ID.String(),
		"owner_id":   p.OwnerID.String(),
		"name":       p.Name,
		"category":   p.Category,
		"price":      p.Price.StringFixed(2),
		"quantity":   p.Quantity,
	})
}

// Reindex pushes every product of the owner into the search index.
func (s *CatalogService) Reindex(ctx context.Context, sess session.Session) (int, error) {
	items, err := s.Repo.AllProducts(ctx, sess.OwnerID)
	if err != nil {
		return 0, err
	}
	for _, p := range items {
		if err := s.index().Upsert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func (s *CatalogService) ExportProducts(ctx context.Context, sess session.Session, w io.Writer) error {
	items, err := s.Repo.AllProducts(ctx, sess.OwnerID)
	if err != nil {
		return err
	}
	return export.WriteProducts(w, items)
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *CatalogService) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if s.Images == nil {
		return "", ErrNoImageStore
	}
	if !imageTypes[contentType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImg, contentType)
	}
	return s.Images.Put(ctx, blob.ImageKey(filename, s.now()), contentType, body)
}
