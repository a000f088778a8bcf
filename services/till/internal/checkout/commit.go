package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/events"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/session"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCheckoutFailed    = errors.New("checkout failed")
)

const (
	maxParallelDecrements = 8
	commitTimeout         = 15 * time.Second
	compensationTimeout   = 10 * time.Second
)

type Stock interface {
	// Decrement lowers stock by qty only if at least qty is on hand,
	// returning ErrInsufficientStock otherwise.
	Decrement(ctx context.Context, ownerID, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, ownerID, productID uuid.UUID, qty int) error
}

type OrderWriter interface {
	InsertOrder(ctx context.Context, order *models.Order) error
}

type Committer struct {
	Stock  Stock
	Orders OrderWriter
	Events events.Publisher
	Now    func() time.Time
}

type Result struct {
	Order          *models.Order `json:"order,omitempty"`
	ReloadProducts bool          `json:"reload_products"`
}

type decrement struct {
	productID uuid.UUID
	qty       int
}

// Commit runs Confirming -> Committing -> Succeeded|Failed. Every line is
// decremented concurrently; if any decrement or the order insert fails, the
// decrements that did land are restored and the register returns to Idle
// with its cart intact. The caller must persist reg afterwards either way.
//
// Once Committing, the sequence ignores cancellation of ctx and is bounded
// by commitTimeout instead.
func (c *Committer) Commit(ctx context.Context, reg *Register, teller session.Session) (*Result, error) {
	l := logging.FromContext(ctx).With("svc", "till.commit", "checkout_id", reg.CheckoutID.String())

	if err := reg.beginCommit(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	order := c.buildOrder(reg, teller)

	applied, err := c.decrementAll(ctx, reg)
	if err != nil {
		l.Warn("checkout_decrement_failed", "applied", len(applied), "error", err)
		cErr := c.compensate(ctx, reg.OwnerID, applied)
		reg.fail()
		return &Result{ReloadProducts: true}, errors.Join(fmt.Errorf("%w: %w", ErrCheckoutFailed, err), cErr)
	}

	if err := c.Orders.InsertOrder(ctx, order); err != nil {
		l.Error("checkout_order_insert_failed", "error", err)
		cErr := c.compensate(ctx, reg.OwnerID, applied)
		reg.fail()
		return &Result{ReloadProducts: true}, errors.Join(fmt.Errorf("%w: %w", ErrCheckoutFailed, err), cErr)
	}

	reg.succeed()
	l.Info("checkout_succeeded", "order_id", order.ID.String(), "total", order.Total.StringFixed(2))

	events.Emit(ctx, c.Events, events.TopicOrders, order.OwnerID.String(), map[string]any{
		"type":           "order_created",
		"order_id":       order.ID.String(),
		"owner_id":       order.OwnerID.String(),
		"teller_id":      order.TellerID.String(),
		"teller_name":    order.TellerName,
		"payment_method": order.PaymentMethod,
		"total":          order.Total.StringFixed(2),
		"card_fee":       order.CardFee.StringFixed(2),
		"items":          len(order.Lines),
		"created_at":     order.CreatedAt,
	})

	return &Result{Order: order, ReloadProducts: true}, nil
}

func (c *Committer) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *Committer) buildOrder(reg *Register, teller session.Session) *models.Order {
	totals := reg.Totals()
	change := decimal.Zero
	if reg.Cart.PaymentMethod == models.PaymentCash && reg.CashGiven.GreaterThan(totals.Total) {
		change = reg.CashGiven.Sub(totals.Total)
	}

	lines := make([]models.OrderLine, 0, len(reg.Cart.Lines))
	for _, li := range reg.Cart.Lines {
		lines = append(lines, models.OrderLine{
			ProductID: li.ProductID,
			Name:      li.Name,
			Price:     li.UnitPrice,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal(),
		})
	}

	return &models.Order{
		CheckoutID:    reg.CheckoutID,
		OwnerID:       reg.OwnerID,
		OwnerEmail:    teller.OwnerEmail,
		TellerID:      teller.UserID,
		TellerName:    teller.Name,
		PaymentMethod: reg.Cart.PaymentMethod,
		Subtotal:      totals.Subtotal,
		CardFee:       totals.CardFee,
		Total:         totals.Total,
		CashGiven:     reg.CashGiven,
		ChangeDue:     change,
		Lines:         lines,
		CreatedAt:     c.now(),
	}
}

func (c *Committer) decrementAll(ctx context.Context, reg *Register) ([]decrement, error) {
	var (
		mu      sync.Mutex
		applied []decrement
	)
	g := new(errgroup.Group)
	g.SetLimit(maxParallelDecrements)

	for _, li := range reg.Cart.Lines {
		d := decrement{productID: li.ProductID, qty: li.Quantity}
		g.Go(func() error {
			if err := c.Stock.Decrement(ctx, reg.OwnerID, d.productID, d.qty); err != nil {
				return fmt.Errorf("product %s: %w", d.productID, err)
			}
			mu.Lock()
			applied = append(applied, d)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return applied, err
}

// compensate restores stock even if the request context is already gone.
func (c *Committer) compensate(ctx context.Context, ownerID uuid.UUID, applied []decrement) error {
	if len(applied) == 0 {
		return nil
	}
	l := logging.FromContext(ctx)
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for _, d := range applied {
		if err := c.Stock.Restore(cctx, ownerID, d.productID, d.qty); err != nil {
			l.Error("checkout_compensation_failed", "product_id", d.productID.String(), "qty", d.qty, "error", err)
			errs = append(errs, fmt.Errorf("restore %s: %w", d.productID, err))
		}
	}
	return errors.Join(errs...)
}
