package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStockStatus(t *testing.T) {
	tests := []struct {
		qty  int
		want string
	}{
		{0, StockOut},
		{-1, StockOut},
		{1, StockLow},
		{9, StockLow},
		{10, StockIn},
		{250, StockIn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StockStatus(tt.qty), "qty=%d", tt.qty)
	}
}

func TestBeforeCreate_AssignsIDsAndOwnerScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	owner := User{Role: "owner", Name: "Lerato", Email: "lerato@shop.test", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	assert.NotEqual(t, uuid.Nil, owner.ID)
	assert.Equal(t, owner.ID, owner.OwnerID)

	teller := User{Role: "teller", Name: "Sam", Email: "sam@shop.test", PasswordHash: "x", OwnerID: owner.ID}
	require.NoError(t, db.Create(&teller).Error)
	assert.Equal(t, owner.ID, teller.OwnerID)

	order := Order{
		CheckoutID:    uuid.New(),
		OwnerID:       owner.ID,
		TellerID:      teller.ID,
		PaymentMethod: PaymentCard,
		Subtotal:      decimal.NewFromInt(60),
		CardFee:       decimal.NewFromInt(3),
		Total:         decimal.NewFromInt(63),
		Lines: []OrderLine{
			{ProductID: uuid.New(), Name: "Bread", Price: decimal.NewFromInt(20), Quantity: 3, LineTotal: decimal.NewFromInt(60)},
		},
	}
	require.NoError(t, db.Create(&order).Error)

	var got Order
	require.NoError(t, db.Preload("Lines").First(&got, "id = ?", order.ID).Error)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(63)))
	assert.Equal(t, 3, got.Lines[0].Quantity)
}
