package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

// ログインしていれば誰でも
func (h *AddressHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	g := api.Group("/addresses", guards.Authenticated()...)

	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/default", h.SetDefault)
}

func (h *AddressHandler) List(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

func (h *AddressHandler) Create(c echo.Context) error {
	var req usecase.AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.uc.Create(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, created)
}

func (h *AddressHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req usecase.AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.Update(c.Request().Context(), middleware.UserID(c), id, req); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "address updated")
}

func (h *AddressHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "address deleted")
}

func (h *AddressHandler) SetDefault(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.SetDefault(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "default address updated")
}
