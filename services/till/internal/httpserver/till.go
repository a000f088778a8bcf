package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/till/internal/cart"
	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
	"github.com/Skotchmaster/till_shop/services/till/internal/repo"
	"github.com/Skotchmaster/till_shop/services/till/internal/service"
	"github.com/Skotchmaster/till_shop/services/till/internal/transport"
)

type TillHTTP struct {
	Svc *service.TillService
}

// registerError maps cart and checkout failures onto HTTP statuses and logs
// them under event.
func registerError(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		status, msg = http.StatusNotFound, "product not found"
	case errors.Is(err, cart.ErrNotInCart):
		status, msg = http.StatusNotFound, "product is not in the cart"
	case errors.Is(err, cart.ErrOutOfStock):
		status, msg = http.StatusConflict, "product is out of stock"
	case errors.Is(err, cart.ErrStockExceeded):
		status, msg = http.StatusConflict, "not enough stock"
	case errors.Is(err, checkout.ErrBusy):
		status, msg = http.StatusConflict, "checkout in progress"
	case errors.Is(err, checkout.ErrInvalidState):
		status, msg = http.StatusConflict, "checkout is not awaiting confirmation"
	case errors.Is(err, cart.ErrMinQuantity):
		status, msg = http.StatusUnprocessableEntity, "quantity cannot go below one"
	case errors.Is(err, cart.ErrPaymentMethod):
		status, msg = http.StatusUnprocessableEntity, "payment method must be cash or card"
	case errors.Is(err, cart.ErrValidation):
		status, msg = http.StatusUnprocessableEntity, "invalid request"
	case errors.Is(err, checkout.ErrEmptyCart):
		status, msg = http.StatusUnprocessableEntity, "cart is empty"
	case errors.Is(err, checkout.ErrInsufficientCash):
		status, msg = http.StatusUnprocessableEntity, "cash given is less than the total"
	}

	if status >= 500 {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func currentSession(ctx context.Context, l *slog.Logger, event string) (session.Session, error) {
	s, err := session.Require(ctx)
	if err != nil {
		l.Warn(event, "status", 401, "reason", "no session", "error", err)
		return s, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return s, nil
}

func productID(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func (h *TillHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.products")
	sess, err := currentSession(ctx, l, "till_products_error")
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	f := repo.ProductFilter{Search: c.QueryParam("q"), Category: c.QueryParam("category")}

	out, err := h.Svc.Products(ctx, sess, f, page, size)
	if err != nil {
		l.Error("till_products_error", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TillHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.get_cart")
	sess, err := currentSession(ctx, l, "get_cart_error")
	if err != nil {
		return err
	}

	reg, err := h.Svc.Cart(ctx, sess)
	if err != nil {
		return registerError(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.add_item")
	sess, err := currentSession(ctx, l, "add_item_error")
	if err != nil {
		return err
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil || req.ProductID == uuid.Nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reg, err := h.Svc.AddToCart(ctx, sess, req.ProductID)
	if err != nil {
		return registerError(l, "add_item_error", err)
	}
	l.Info("add_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.update_item")
	sess, err := currentSession(ctx, l, "update_item_error")
	if err != nil {
		return err
	}

	id, err := productID(c, l, "update_item_error")
	if err != nil {
		return err
	}
	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reg, err := h.Svc.UpdateQuantity(ctx, sess, id, req.Delta)
	if err != nil {
		return registerError(l, "update_item_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.remove_item")
	sess, err := currentSession(ctx, l, "remove_item_error")
	if err != nil {
		return err
	}

	id, err := productID(c, l, "remove_item_error")
	if err != nil {
		return err
	}
	reg, err := h.Svc.RemoveFromCart(ctx, sess, id)
	if err != nil {
		return registerError(l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.clear_cart")
	sess, err := currentSession(ctx, l, "clear_cart_error")
	if err != nil {
		return err
	}

	reg, err := h.Svc.ClearCart(ctx, sess)
	if err != nil {
		return registerError(l, "clear_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) SetPaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.set_payment_method")
	sess, err := currentSession(ctx, l, "set_payment_method_error")
	if err != nil {
		return err
	}

	var req transport.PaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_payment_method_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reg, err := h.Svc.SetPaymentMethod(ctx, sess, req.PaymentMethod)
	if err != nil {
		return registerError(l, "set_payment_method_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) RequestCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.request_checkout")
	sess, err := currentSession(ctx, l, "request_checkout_error")
	if err != nil {
		return err
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("request_checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	q, err := h.Svc.RequestCheckout(ctx, sess, req.CashGiven)
	if err != nil {
		return registerError(l, "request_checkout_error", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *TillHTTP) CancelCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.cancel_checkout")
	sess, err := currentSession(ctx, l, "cancel_checkout_error")
	if err != nil {
		return err
	}

	reg, err := h.Svc.CancelCheckout(ctx, sess)
	if err != nil {
		return registerError(l, "cancel_checkout_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(reg))
}

func (h *TillHTTP) ConfirmCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "till.confirm_checkout")
	sess, err := currentSession(ctx, l, "confirm_checkout_error")
	if err != nil {
		return err
	}

	res, err := h.Svc.ConfirmCheckout(ctx, sess)
	if err != nil {
		if errors.Is(err, checkout.ErrCheckoutFailed) {
			status := http.StatusBadGateway
			msg := "checkout failed, please try again"
			if errors.Is(err, checkout.ErrInsufficientStock) || errors.Is(err, recordstore.ErrNotFound) {
				status, msg = http.StatusConflict, "stock changed, please review the cart"
			}
			l.Warn("confirm_checkout_error", "status", status, "reason", msg, "error", err)
			return c.JSON(status, map[string]any{
				"message":         msg,
				"reload_products": res != nil && res.ReloadProducts,
			})
		}
		return registerError(l, "confirm_checkout_error", err)
	}

	l.Info("confirm_checkout_success", "order_id", res.Order.ID, "total", res.Order.Total.String())
	return c.JSON(http.StatusCreated, res)
}
