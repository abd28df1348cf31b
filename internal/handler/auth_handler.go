package handler

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// refresh tokenのcookie名
const refreshCookieName = "refresh"

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	refreshTTL   time.Duration // refresh cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// bodyが無ければcookieを使う
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// /auth/* を登録（register/login/refresh/logoutはレート制限）
func (h *AuthHandler) RegisterRoutes(api *echo.Group, guards Guards, limit echo.MiddlewareFunc) {
	g := api.Group("/auth")

	g.POST("/register", h.register, limit)
	g.POST("/login", h.login, limit)
	g.POST("/refresh", h.refresh, limit)
	g.POST("/logout", h.logout, limit)

	g.GET("/profile", h.profile, guards.Authenticated()...)
	g.PUT("/profile", h.updateProfile, guards.Authenticated()...)
	g.PUT("/change-password", h.changePassword, guards.Authenticated()...)
}

// 入力チェックはAuthValidatorで行う
func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Register(c.Request().Context(), req, c.Request().UserAgent())
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, out.Token.RefreshToken)
	return respond(c, http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	// User-Agentを取得（refreshtokenに紐付ける）
	out, err := h.uc.Login(c.Request().Context(), req, c.Request().UserAgent())
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, out.Token.RefreshToken)
	return respond(c, http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	token := h.refreshTokenFrom(c)

	out, err := h.uc.Refresh(c.Request().Context(), token, c.Request().UserAgent())
	if err != nil {
		//使えないcookieは消しておく
		h.clearRefreshCookie(c)
		return err
	}

	h.setRefreshCookie(c, out.RefreshToken)
	return respond(c, http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	token := h.refreshTokenFrom(c)
	h.clearRefreshCookie(c)

	if err := h.uc.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "logged out")
}

func (h *AuthHandler) profile(c echo.Context) error {
	user, err := h.uc.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	var req usecase.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// 全端末ログアウトになる
func (h *AuthHandler) changePassword(c echo.Context) error {
	var req usecase.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.ChangePassword(c.Request().Context(), middleware.UserID(c), req); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return respondMessage(c, http.StatusOK, "password changed")
}

func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	var req refreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		return ck.Value
	}
	return ""
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
