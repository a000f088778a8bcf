package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/sales/internal/live"
	"github.com/Skotchmaster/till_shop/services/sales/internal/service"
)

type SalesHTTP struct {
	Svc      *service.SalesService
	Hub      *live.Hub
	Upgrader *websocket.Upgrader
}

func currentSession(c echo.Context) (session.Session, error) {
	s, err := session.Require(c.Request().Context())
	if err != nil {
		return s, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return s, nil
}

func (h *SalesHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sales.list_orders")
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	r := service.Range(c.QueryParam("range"))

	out, err := h.Svc.ListOrders(ctx, sess, r, c.QueryParam("date"), page, size)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("list_orders_error", "status", 400, "reason", "bad range", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("list_orders_error", "status", 500, "reason", "cannot list orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SalesHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sales.get_order")
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	order, err := h.Svc.GetOrder(ctx, sess, id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "reason", "cannot get order", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *SalesHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sales.summary")
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	out, err := h.Svc.Summary(ctx, sess, service.Range(c.QueryParam("range")), c.QueryParam("date"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("sales_summary_error", "status", 400, "reason", "bad range", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("sales_summary_error", "status", 500, "reason", "cannot aggregate orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build summary")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SalesHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sales.dashboard")
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	out, err := h.Svc.Dashboard(ctx, sess)
	if err != nil {
		l.Error("dashboard_error", "status", 500, "reason", "cannot build dashboard", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build dashboard")
	}
	return c.JSON(http.StatusOK, out)
}

// Live upgrades to a websocket and streams the owner's sales until the client
// disconnects.
func (h *SalesHTTP) Live(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sales.live")
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		l.Warn("live_upgrade_failed", "error", err)
		return nil
	}

	l.Info("live_connected", "owner_id", sess.OwnerID)
	h.Hub.Serve(conn, sess.OwnerID)
	l.Info("live_disconnected", "owner_id", sess.OwnerID)
	return nil
}
