package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/internal/util"
)

type OrderPage struct {
	Data []models.Order `json:"data"`
	Meta util.Meta      `json:"meta"`
}

type MethodSummary struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Orders        int64                `json:"orders"`
	Total         decimal.Decimal      `json:"total"`
}

type Summary struct {
	Range       string          `json:"range"`
	Date        string          `json:"date,omitempty"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	OrderCount  int64           `json:"order_count"`
	TodayOrders int64           `json:"today_orders"`
	ByMethod    []MethodSummary `json:"by_method"`
}

type StockItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	StockStatus string    `json:"stock_status"`
}

type Dashboard struct {
	ProductCount  int             `json:"product_count"`
	UnitsOnHand   int             `json:"units_on_hand"`
	StockValue    decimal.Decimal `json:"stock_value"`
	LowStock      int             `json:"low_stock"`
	OutOfStock    int             `json:"out_of_stock"`
	Categories    int             `json:"categories"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TodaySales    decimal.Decimal `json:"today_sales"`
	TodayOrders   int64           `json:"today_orders"`
	LowStockItems []StockItem     `json:"low_stock_items"`
}

// LiveEvent is what websocket clients receive for each completed sale.
type LiveEvent struct {
	Type          string               `json:"type"`
	OrderID       string               `json:"order_id"`
	TellerName    string               `json:"teller_name"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Total         string               `json:"total"`
	CardFee       string               `json:"card_fee"`
	Items         int                  `json:"items"`
	CreatedAt     string               `json:"created_at"`
}
