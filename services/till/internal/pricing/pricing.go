package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/services/till/internal/cart"
)

var (
	fifty      = decimal.NewFromInt(50)
	hundred    = decimal.NewFromInt(100)
	flatFee    = decimal.NewFromInt(3)
	perHundred = decimal.NewFromInt(5)
)

type Totals struct {
	Subtotal      decimal.Decimal      `json:"subtotal"`
	CardFee       decimal.Decimal      `json:"card_fee"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

func Subtotal(lines []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// CardFee is the card-processing surcharge:
//
//	subtotal <= 0         -> 0
//	0 < subtotal <= 50    -> 3
//	subtotal > 50         -> 5 per full hundred, plus 3 if the remainder over
//	                         the last hundred is more than 50
func CardFee(subtotal decimal.Decimal) decimal.Decimal {
	switch {
	case subtotal.LessThanOrEqual(decimal.Zero):
		return decimal.Zero
	case subtotal.LessThanOrEqual(fifty):
		return flatFee
	}
	fee := perHundred.Mul(subtotal.Div(hundred).Floor())
	if subtotal.Mod(hundred).GreaterThan(fifty) {
		fee = fee.Add(flatFee)
	}
	return fee
}

func Fee(subtotal decimal.Decimal, method models.PaymentMethod) decimal.Decimal {
	if method != models.PaymentCard {
		return decimal.Zero
	}
	return CardFee(subtotal)
}

// Compute is recalculated on every read; totals are never stored on the cart.
func Compute(c cart.Cart) Totals {
	sub := Subtotal(c.Lines)
	fee := Fee(sub, c.PaymentMethod)
	return Totals{
		Subtotal:      sub,
		CardFee:       fee,
		Total:         sub.Add(fee),
		PaymentMethod: c.PaymentMethod,
	}
}
