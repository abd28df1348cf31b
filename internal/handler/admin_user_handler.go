package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ユーザー管理・統計・監査ログ
type AdminUserHandler struct {
	uc     *usecase.UserAdminUsecase
	authUC *usecase.AuthUsecase
}

func NewAdminUserHandler(uc *usecase.UserAdminUsecase, authUC *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc, authUC: authUC}
}

func (h *AdminUserHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	users := guards.Require(policy.CapUsersManage)

	api.GET("/users", h.list, users...)
	api.GET("/users/:userId", h.get, users...)
	api.PUT("/users/:userId/block", h.block, users...)
	api.PUT("/users/:userId/unblock", h.unblock, users...)
	api.POST("/admin/users/:userId/force-logout", h.forceLogout, users...)

	api.GET("/admin/stats", h.stats, guards.Require(policy.CapStatsView)...)
	api.GET("/admin/audit-logs", h.auditLogs, guards.Require(policy.CapAuditView)...)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), repository.UserListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminUserHandler) get(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	out, err := h.uc.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminUserHandler) block(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	out, err := h.uc.Block(c.Request().Context(), middleware.UserID(c), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminUserHandler) unblock(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	out, err := h.uc.Unblock(c.Request().Context(), middleware.UserID(c), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	res, err := h.authUC.ForceLogout(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res)
}

func (h *AdminUserHandler) stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

// actorUserId / action / resourceType / resourceId / from / to / limit / offset
func (h *AdminUserHandler) auditLogs(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	from, err := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if err != nil {
		return err
	}
	to, err := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if err != nil {
		return err
	}

	f := repository.AuditLogFilter{
		CreatedFrom: from,
		CreatedTo:   to,
		Limit:       limit,
		Offset:      offset,
	}
	if v := c.QueryParam("actorUserId"); v != "" {
		f.ActorUserID = &v
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resourceType"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resourceId"); v != "" {
		f.ResourceID = &v
	}

	logs, err := h.uc.AuditLogs(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, logs)
}
