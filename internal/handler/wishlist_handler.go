package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type WishlistAddRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

func (h *WishlistHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	g := api.Group("/wishlist", guards.Require(policy.CapWishlistUse)...)

	g.GET("", h.list)
	g.POST("", h.add)
	g.GET("/check/:productId", h.check)
	g.DELETE("/:productId", h.remove)
}

func (h *WishlistHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

func (h *WishlistHandler) add(c echo.Context) error {
	var req WishlistAddRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.uc.Add(c.Request().Context(), middleware.UserID(c), req.ProductID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "added to wishlist")
}

func (h *WishlistHandler) remove(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return err
	}
	if err := h.uc.Remove(c.Request().Context(), middleware.UserID(c), productID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "removed from wishlist")
}

func (h *WishlistHandler) check(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return err
	}
	in, err := h.uc.Check(c.Request().Context(), middleware.UserID(c), productID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]bool{"inWishlist": in})
}
