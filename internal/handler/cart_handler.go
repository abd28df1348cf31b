package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

type MergeCartRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int64  `json:"quantity"`
	} `json:"items" validate:"max=100"`
}

// /cart, /cart/items/{id} を登録
func (h *CartHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	g := api.Group("/cart", guards.Require(policy.CapCartUse)...)

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clear)
	g.POST("/merge", h.merge)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.AddToCart(c.Request().Context(), middleware.UserID(c), usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), middleware.UserID(c), itemID, usecase.UpdateCartItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.DeleteCartItem(c.Request().Context(), middleware.UserID(c), itemID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	out, err := h.uc.ClearCart(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

// ログイン前のカートを取り込む
func (h *CartHandler) merge(c echo.Context) error {
	var req MergeCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	items := make([]usecase.MergeCartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.MergeCartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out, err := h.uc.MergeCart(c.Request().Context(), middleware.UserID(c), items)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}
