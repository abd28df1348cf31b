package handler

import (
	"net/http"

	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/categories", h.list)
	api.GET("/categories/:id", h.get)

	admin := guards.Require(policy.CapCatalogManage)
	api.POST("/categories", h.create, admin...)
	api.PUT("/categories/:id", h.update, admin...)
	api.DELETE("/categories/:id", h.delete, admin...)
}

func (h *CategoryHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

func (h *CategoryHandler) get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cat)
}

func (h *CategoryHandler) create(c echo.Context) error {
	var req usecase.CategoryInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, cat)
}

func (h *CategoryHandler) update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req usecase.CategoryInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cat)
}

func (h *CategoryHandler) delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "category deleted")
}
