// Package recordstore is the owner-scoped record store every service talks to.
// A Collection exposes four verbs: fetch-all-by-owner, insert, update-by-id and
// delete-by-id. Update and delete are always filtered by owner as well as id.
package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation")
)

type Collection[T any] struct {
	DB          *gorm.DB
	Name        string
	OwnerColumn string
	OrderBy     string
	Preloads    []string
}

func New[T any](db *gorm.DB, name string) *Collection[T] {
	return &Collection[T]{
		DB:          db,
		Name:        name,
		OwnerColumn: "owner_id",
		OrderBy:     "created_at DESC",
	}
}

func (c *Collection[T]) WithPreload(assoc ...string) *Collection[T] {
	c.Preloads = append(c.Preloads, assoc...)
	return c
}

func (c *Collection[T]) scoped(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	q := c.DB.WithContext(ctx).Model(new(T)).Where(c.OwnerColumn+" = ?", ownerID)
	for _, p := range c.Preloads {
		q = q.Preload(p)
	}
	return q
}

func (c *Collection[T]) FetchAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w: owner id required", c.Name, ErrValidation)
	}
	q := c.scoped(ctx, ownerID)
	if c.OrderBy != "" {
		q = q.Order(c.OrderBy)
	}
	out := make([]T, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", c.Name, err)
	}
	return out, nil
}

func (c *Collection[T]) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*T, error) {
	var rec T
	if err := c.scoped(ctx, ownerID).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: get: %w", c.Name, err)
	}
	return &rec, nil
}

func (c *Collection[T]) Insert(ctx context.Context, rec *T) error {
	if err := c.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("%s: insert: %w", c.Name, err)
	}
	return nil
}

func (c *Collection[T]) UpdateByID(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("%s: %w: nothing to update", c.Name, ErrValidation)
	}
	res := c.DB.WithContext(ctx).Model(new(T)).
		Where("id = ? AND "+c.OwnerColumn+" = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%s: update: %w", c.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
	}
	return nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, ownerID, id uuid.UUID) error {
	res := c.DB.WithContext(ctx).
		Where("id = ? AND "+c.OwnerColumn+" = ?", id, ownerID).
		Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("%s: delete: %w", c.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
	}
	return nil
}
