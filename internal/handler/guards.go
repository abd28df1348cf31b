package handler

import (
	"storefront/internal/middleware"
	"storefront/internal/policy"

	"github.com/labstack/echo/v4"
)

// Guards はルートごとに付ける認証・認可ミドルウェア
type Guards struct {
	// AuthJWT + TokenVersionGuard
	Auth []echo.MiddlewareFunc
}

// ログイン必須のみ
func (g Guards) Authenticated() []echo.MiddlewareFunc {
	return append([]echo.MiddlewareFunc{}, g.Auth...)
}

// ログイン＋capability
func (g Guards) Require(capability policy.Capability) []echo.MiddlewareFunc {
	return append(g.Authenticated(), middleware.RequireCapability(capability))
}
