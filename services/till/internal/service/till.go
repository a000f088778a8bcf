package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
	"github.com/Skotchmaster/till_shop/services/till/internal/repo"
	"github.com/Skotchmaster/till_shop/services/till/internal/transport"
)

type TillService struct {
	Store     checkout.Store
	Repo      *repo.GormRepo
	Committer *checkout.Committer
}

// withRegister serialises work on one teller's register: lock, load, run fn,
// save, unlock. The register is saved even when fn fails so that state
// transitions made before the failure (e.g. a failed commit) stick.
func (s *TillService) withRegister(ctx context.Context, sess session.Session, fn func(r *checkout.Register) error) (*checkout.Register, error) {
	unlock, err := s.Store.Lock(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, err := s.Store.Load(ctx, sess.UserID, sess.OwnerID)
	if err != nil {
		return nil, err
	}
	fnErr := fn(reg)
	if err := s.Store.Save(ctx, reg); err != nil {
		return nil, errors.Join(fnErr, err)
	}
	return reg, fnErr
}

func (s *TillService) Cart(ctx context.Context, sess session.Session) (*checkout.Register, error) {
	return s.Store.Load(ctx, sess.UserID, sess.OwnerID)
}

func (s *TillService) AddToCart(ctx context.Context, sess session.Session, productID uuid.UUID) (*checkout.Register, error) {
	p, err := s.Repo.GetProduct(ctx, sess.OwnerID, productID)
	if err != nil {
		return nil, err
	}
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.Add(*p) })
}

func (s *TillService) UpdateQuantity(ctx context.Context, sess session.Session, productID uuid.UUID, delta int) (*checkout.Register, error) {
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.UpdateQuantity(productID, delta) })
}

func (s *TillService) RemoveFromCart(ctx context.Context, sess session.Session, productID uuid.UUID) (*checkout.Register, error) {
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.Remove(productID) })
}

func (s *TillService) ClearCart(ctx context.Context, sess session.Session) (*checkout.Register, error) {
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.Clear() })
}

func (s *TillService) SetPaymentMethod(ctx context.Context, sess session.Session, m models.PaymentMethod) (*checkout.Register, error) {
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.SetPaymentMethod(m) })
}

func (s *TillService) RequestCheckout(ctx context.Context, sess session.Session, cashGiven decimal.Decimal) (*checkout.Quote, error) {
	var q checkout.Quote
	_, err := s.withRegister(ctx, sess, func(r *checkout.Register) error {
		var err error
		q, err = r.RequestCheckout(cashGiven)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *TillService) CancelCheckout(ctx context.Context, sess session.Session) (*checkout.Register, error) {
	return s.withRegister(ctx, sess, func(r *checkout.Register) error { return r.Cancel() })
}

const confirmTimeout = 30 * time.Second

// ConfirmCheckout commits and saves the register even if the client goes
// away mid-request.
func (s *TillService) ConfirmCheckout(ctx context.Context, sess session.Session) (*checkout.Result, error) {
	l := logging.FromContext(ctx).With("svc", "till.confirm")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()
	var res *checkout.Result
	_, err := s.withRegister(ctx, sess, func(r *checkout.Register) error {
		var err error
		res, err = s.Committer.Commit(ctx, r, sess)
		return err
	})
	if err != nil {
		l.Warn("confirm_checkout_failed", "error", err)
	}
	return res, err
}

func (s *TillService) Products(ctx context.Context, sess session.Session, f repo.ProductFilter, page, size int) (*transport.ProductPage, error) {
	items, err := s.Repo.ListProducts(ctx, sess.OwnerID, f)
	if err != nil {
		return nil, err
	}
	cats, err := s.Repo.Categories(ctx, sess.OwnerID)
	if err != nil {
		return nil, err
	}
	reg, err := s.Store.Load(ctx, sess.UserID, sess.OwnerID)
	if err != nil {
		return nil, err
	}

	offset, limit := util.Calculate(page, size)
	lo, hi := util.Window(len(items), offset, limit)

	views := make([]transport.ProductView, 0, hi-lo)
	for _, p := range items[lo:hi] {
		inCart := 0
		if line, ok := reg.Cart.Line(p.ID); ok {
			inCart = line.Quantity
		}
		views = append(views, transport.ProductView{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       p.Price,
			Quantity:    p.Quantity,
			ImageURL:    p.ImageURL,
			StockStatus: p.StockStatus(),
			InCart:      inCart,
		})
	}

	return &transport.ProductPage{
		Data:       views,
		Categories: append([]string{"All"}, cats...),
		Meta:       util.NewMeta(page, offset, limit, int64(len(items))),
	}, nil
}
