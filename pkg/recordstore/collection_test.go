package recordstore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index"`
	Name      string
	Count     int
	CreatedAt time.Time
}

func newCollection(t *testing.T) *Collection[widget] {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return New[widget](db, "widgets")
}

func TestCollection_FetchAllByOwner_Scoped(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, c.Insert(ctx, &widget{ID: uuid.New(), OwnerID: a, Name: "one"}))
	require.NoError(t, c.Insert(ctx, &widget{ID: uuid.New(), OwnerID: a, Name: "two"}))
	require.NoError(t, c.Insert(ctx, &widget{ID: uuid.New(), OwnerID: b, Name: "other"}))

	got, err := c.FetchAllByOwner(ctx, a)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := c.FetchAllByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = c.FetchAllByOwner(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCollection_UpdateByID(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()
	owner := uuid.New()
	w := widget{ID: uuid.New(), OwnerID: owner, Name: "one", Count: 1}
	require.NoError(t, c.Insert(ctx, &w))

	require.NoError(t, c.UpdateByID(ctx, owner, w.ID, map[string]any{"count": 7}))
	got, err := c.GetByID(ctx, owner, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)

	err = c.UpdateByID(ctx, uuid.New(), w.ID, map[string]any{"count": 9})
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.UpdateByID(ctx, owner, w.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCollection_DeleteByID(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()
	owner := uuid.New()
	w := widget{ID: uuid.New(), OwnerID: owner, Name: "one"}
	require.NoError(t, c.Insert(ctx, &w))

	assert.ErrorIs(t, c.DeleteByID(ctx, uuid.New(), w.ID), ErrNotFound)
	require.NoError(t, c.DeleteByID(ctx, owner, w.ID))
	assert.ErrorIs(t, c.DeleteByID(ctx, owner, w.ID), ErrNotFound)

	_, err := c.GetByID(ctx, owner, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
