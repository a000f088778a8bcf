// Package cart is the teller's in-progress sale: a list of line items, each
// capped by the stock that was on hand when the product was first added.
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
)

var (
	ErrValidation    = errors.New("validation")
	ErrOutOfStock    = errors.New("out of stock")
	ErrStockExceeded = errors.New("stock exceeded")
	ErrMinQuantity   = errors.New("quantity cannot drop below 1")
	ErrNotInCart     = errors.New("product not in cart")
	ErrPaymentMethod = errors.New("unsupported payment method")
)

type LineItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"max_quantity"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines         []LineItem           `json:"lines"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

func New() Cart {
	return Cart{Lines: []LineItem{}, PaymentMethod: models.PaymentCash}
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c *Cart) find(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Line(productID uuid.UUID) (LineItem, bool) {
	if i := c.find(productID); i >= 0 {
		return c.Lines[i], true
	}
	return LineItem{}, false
}

// Add puts one unit of p in the cart. The stock ceiling of a line is taken
// from p only when the line is created; later calls reuse it.
func (c *Cart) Add(p models.Product) error {
	if i := c.find(p.ID); i >= 0 {
		line := &c.Lines[i]
		if line.Quantity+1 > line.MaxQuantity {
			return fmt.Errorf("%w: only %d of %s available", ErrStockExceeded, line.MaxQuantity, line.Name)
		}
		line.Quantity++
		return nil
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}
	c.Lines = append(c.Lines, LineItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Category:    p.Category,
		UnitPrice:   p.Price,
		Quantity:    1,
		MaxQuantity: p.Quantity,
	})
	return nil
}

func (c *Cart) UpdateQuantity(productID uuid.UUID, delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: delta must be +1 or -1", ErrValidation)
	}
	i := c.find(productID)
	if i < 0 {
		return ErrNotInCart
	}
	line := &c.Lines[i]
	next := line.Quantity + delta
	if next < 1 {
		return ErrMinQuantity
	}
	if next > line.MaxQuantity {
		return fmt.Errorf("%w: only %d of %s available", ErrStockExceeded, line.MaxQuantity, line.Name)
	}
	line.Quantity = next
	return nil
}

// Remove is a no-op for products that are not in the cart.
func (c *Cart) Remove(productID uuid.UUID) {
	if i := c.find(productID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.Lines = []LineItem{}
	c.PaymentMethod = models.PaymentCash
}

func (c *Cart) SetPaymentMethod(m models.PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrPaymentMethod, m)
	}
	c.PaymentMethod = m
	return nil
}
