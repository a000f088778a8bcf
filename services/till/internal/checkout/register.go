package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/services/till/internal/cart"
	"github.com/Skotchmaster/till_shop/services/till/internal/pricing"
)

type State string

const (
	StateIdle       State = "idle"
	StateConfirming State = "confirming"
	StateCommitting State = "committing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrInvalidState     = errors.New("invalid checkout state")
	ErrBusy             = errors.New("checkout in progress")
)

// Register is one teller's till: the cart plus where it is in the checkout
// sequence. It is persisted between requests by a Store.
type Register struct {
	TellerID   uuid.UUID       `json:"teller_id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Cart       cart.Cart       `json:"cart"`
	State      State           `json:"state"`
	CashGiven  decimal.Decimal `json:"cash_given"`
	CheckoutID uuid.UUID       `json:"checkout_id"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewRegister(tellerID, ownerID uuid.UUID) *Register {
	return &Register{
		TellerID: tellerID,
		OwnerID:  ownerID,
		Cart:     cart.New(),
		State:    StateIdle,
	}
}

type Quote struct {
	pricing.Totals
	CashGiven  decimal.Decimal `json:"cash_given"`
	ChangeDue  decimal.Decimal `json:"change_due"`
	CheckoutID uuid.UUID       `json:"checkout_id"`
}

func (r *Register) Totals() pricing.Totals {
	return pricing.Compute(r.Cart)
}

// mutate runs a cart change. Any change backs a pending confirmation out to
// Idle so the operator re-confirms against the new totals.
func (r *Register) mutate(fn func(c *cart.Cart) error) error {
	if r.State == StateCommitting {
		return fmt.Errorf("%w: commit in progress", ErrBusy)
	}
	if err := fn(&r.Cart); err != nil {
		return err
	}
	r.reset()
	return nil
}

func (r *Register) reset() {
	r.State = StateIdle
	r.CashGiven = decimal.Zero
	r.CheckoutID = uuid.Nil
}

func (r *Register) Add(p models.Product) error {
	return r.mutate(func(c *cart.Cart) error { return c.Add(p) })
}

func (r *Register) UpdateQuantity(productID uuid.UUID, delta int) error {
	return r.mutate(func(c *cart.Cart) error { return c.UpdateQuantity(productID, delta) })
}

func (r *Register) Remove(productID uuid.UUID) error {
	return r.mutate(func(c *cart.Cart) error { c.Remove(productID); return nil })
}

func (r *Register) Clear() error {
	return r.mutate(func(c *cart.Cart) error { c.Clear(); return nil })
}

func (r *Register) SetPaymentMethod(m models.PaymentMethod) error {
	return r.mutate(func(c *cart.Cart) error { return c.SetPaymentMethod(m) })
}

// RequestCheckout moves Idle -> Confirming. For cash the tendered amount must
// cover the grand total; otherwise the register stays Idle.
func (r *Register) RequestCheckout(cashGiven decimal.Decimal) (Quote, error) {
	if r.State == StateCommitting {
		return Quote{}, fmt.Errorf("%w: commit in progress", ErrBusy)
	}
	if r.Cart.IsEmpty() {
		return Quote{}, ErrEmptyCart
	}
	totals := r.Totals()
	change := decimal.Zero
	if r.Cart.PaymentMethod == models.PaymentCash {
		if cashGiven.LessThan(totals.Total) {
			r.reset()
			return Quote{}, fmt.Errorf("%w: need %s, got %s", ErrInsufficientCash, totals.Total.StringFixed(2), cashGiven.StringFixed(2))
		}
		change = cashGiven.Sub(totals.Total)
	} else {
		cashGiven = decimal.Zero
	}

	r.State = StateConfirming
	r.CashGiven = cashGiven
	if r.CheckoutID == uuid.Nil {
		r.CheckoutID = uuid.New()
	}
	return Quote{Totals: totals, CashGiven: cashGiven, ChangeDue: change, CheckoutID: r.CheckoutID}, nil
}

func (r *Register) Cancel() error {
	if r.State != StateConfirming {
		return fmt.Errorf("%w: nothing to cancel in state %s", ErrInvalidState, r.State)
	}
	r.reset()
	return nil
}

func (r *Register) beginCommit() error {
	if r.State != StateConfirming {
		return fmt.Errorf("%w: confirm requires %s, register is %s", ErrInvalidState, StateConfirming, r.State)
	}
	r.State = StateCommitting
	return nil
}

func (r *Register) succeed() {
	r.Cart.Clear()
	r.reset()
}

// fail keeps the cart so the operator can try again.
func (r *Register) fail() {
	r.reset()
}
