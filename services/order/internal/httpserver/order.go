package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/logging"
	middleware "github.com/microshop/platform/pkg/middleware/auth"
	"github.com/microshop/platform/services/order/internal/service"
	"github.com/microshop/platform/services/order/internal/transport"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func httpError(err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": ve.Message, "fields": ve.Fields})
	}
	return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
}

func caller(c echo.Context) (service.Caller, error) {
	id, err := middleware.AccountID(c)
	if err != nil {
		return service.Caller{}, err
	}
	claims, _ := middleware.ClaimsFrom(c)
	return service.Caller{ID: id, Admin: claims != nil && claims.HasRole("Admin")}, nil
}

func intQuery(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	who, err := caller(c)
	if err != nil {
		l.Warn("get_orders_error", "status", 401, "reason", "no subject", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := intQuery(c, "page", 1)
	size := min(intQuery(c, "size", defaultPageSize), maxPageSize)

	total, orders, err := h.Svc.ListOrders(ctx, who, (page-1)*size, size)
	if err != nil {
		l.Error("get_orders_error", "status", 500, "error", err)
		return httpError(err)
	}

	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	who, err := caller(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "reason", "no subject", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	order, err := h.Svc.GetOrder(ctx, who, id)
	if err != nil {
		l.Warn("get_order_error", "status", apperr.Status(err), "order_id", id, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	who, err := caller(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "reason", "no subject", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.OrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, who, req)
	if err != nil {
		l.Warn("create_order_error", "status", apperr.Status(err), "error", err)
		return httpError(err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order")

	who, err := caller(c)
	if err != nil {
		l.Warn("update_order_error", "status", 401, "reason", "no subject", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_order_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	var req transport.OrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateOrder(ctx, who, id, req)
	if err != nil {
		l.Warn("update_order_error", "status", apperr.Status(err), "order_id", id, "error", err)
		return httpError(err)
	}

	l.Info("update_order_success", "order_id", id, "total", order.TotalPrice)
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	who, err := caller(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 401, "reason", "no subject", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_order_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	if err := h.Svc.DeleteOrder(ctx, who, id); err != nil {
		l.Warn("delete_order_error", "status", apperr.Status(err), "order_id", id, "error", err)
		return httpError(err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
