package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/logging"
	"github.com/microshop/platform/services/catalog/internal/models"
	"github.com/microshop/platform/services/catalog/internal/service"
	"github.com/microshop/platform/services/catalog/internal/transport"
	"github.com/microshop/platform/services/catalog/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func httpError(err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": ve.Message, "fields": ve.Fields})
	}
	return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
}

func page(items []models.Product, total int64, pageNum, offset, limit int) transport.ProductPage {
	return transport.ProductPage{
		Data: items,
		Meta: transport.PageMeta{
			Page:       pageNum,
			Size:       limit,
			Total:      total,
			TotalPages: util.TotalPages(total, limit),
			HasPrev:    pageNum > 1,
			HasNext:    int64(offset+limit) < total,
		},
	}
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product with this id does not exist")
			return echo.NewHTTPError(http.StatusNotFound, "product with this id does not exist")
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	pageNum := util.ParseIntDefault(c.QueryParam("page"), 1)
	if pageNum < 1 {
		pageNum = 1
	}
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(pageNum, size)

	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return httpError(err)
	}

	l.Info("get_products_success", "count", len(items))
	return c.JSON(http.StatusOK, page(items, total, pageNum, offset, limit))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_products_error", "status", 400, "reason", "empty query")
		return httpError(apperr.NewValidationError("q", "q is required"))
	}

	pageNum := util.ParseIntDefault(c.QueryParam("page"), 1)
	if pageNum < 1 {
		pageNum = 1
	}
	offset, limit := util.Calculate(pageNum, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))

	total, items, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		l.Error("search_products_error", "status", 500, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, page(items, total, pageNum, offset, limit))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		l.Warn("product_create_error", "status", apperr.Status(err), "error", err)
		return httpError(err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		l.Warn("product_update_error", "status", apperr.Status(err), "error", err)
		return httpError(err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		l.Warn("product_delete_error", "status", apperr.Status(err), "error", err)
		return httpError(err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
