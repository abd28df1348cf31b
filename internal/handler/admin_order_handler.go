package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	admin := guards.Require(policy.CapOrdersManage)

	api.GET("/orders", h.list, admin...)
	api.PUT("/orders/:id/status", h.updateStatus, admin...)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}

	var userID *string
	if v := c.QueryParam("userId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			return usecase.NewHTTPError(http.StatusBadRequest, "invalid userId")
		}
		userID = &v
	}

	from, err := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid from")
	}
	to, err := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	// 操作した管理者ID（監査ログ用）
	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		middleware.UserID(c),
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}
