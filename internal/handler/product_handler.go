package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/products", h.list)
	api.GET("/products/category/:category", h.listByCategory)
	api.GET("/products/:id", h.detail)
}

// クエリからListProductsInputを作る（管理画面と共通）
func parseListProducts(c echo.Context) (usecase.ListProductsInput, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return usecase.ListProductsInput{}, err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return usecase.ListProductsInput{}, err
	}

	in := usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	}

	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid min_price")
		}
		in.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid max_price")
		}
		in.MaxPrice = &d
	}
	return in, nil
}

func (h *ProductHandler) list(c echo.Context) error {
	in, err := parseListProducts(c)
	if err != nil {
		return err
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *ProductHandler) listByCategory(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}

	out, err := h.uc.ListByCategory(c.Request().Context(), c.Param("category"), page, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p)
}
