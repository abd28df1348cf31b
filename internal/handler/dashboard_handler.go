package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	uc *usecase.UserAdminUsecase
}

func NewDashboardHandler(uc *usecase.UserAdminUsecase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

func (h *DashboardHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/dashboard/user", h.user, guards.Authenticated()...)
}

func (h *DashboardHandler) user(c echo.Context) error {
	out, err := h.uc.UserDashboard(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}
