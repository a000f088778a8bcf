package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/services/till/internal/cart"
	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
	"github.com/Skotchmaster/till_shop/services/till/internal/pricing"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

type UpdateQuantityRequest struct {
	Delta int `json:"delta"`
}

type PaymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

type CheckoutRequest struct {
	CashGiven decimal.Decimal `json:"cash_given"`
}

type CartView struct {
	Lines      []cart.LineItem `json:"lines"`
	State      checkout.State  `json:"state"`
	CheckoutID *uuid.UUID      `json:"checkout_id,omitempty"`
	pricing.Totals
}

func NewCartView(r *checkout.Register) CartView {
	v := CartView{Lines: r.Cart.Lines, State: r.State, Totals: r.Totals()}
	if v.Lines == nil {
		v.Lines = []cart.LineItem{}
	}
	if r.CheckoutID != uuid.Nil {
		id := r.CheckoutID
		v.CheckoutID = &id
	}
	return v
}

type ProductView struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url"`
	StockStatus string          `json:"stock_status"`
	InCart      int             `json:"in_cart"`
}

type ProductPage struct {
	Data       []ProductView `json:"data"`
	Categories []string      `json:"categories"`
	Meta       util.Meta     `json:"meta"`
}
