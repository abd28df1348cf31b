package middleware

import (
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleがcapを持っているか確認します。
func RequireCapability(capability policy.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := UserRole(c)
			if role == "" {
				return usecase.ErrUnauthorized
			}
			if !policy.Allows(role, capability) {
				return usecase.ErrForbidden
			}
			return next(c)
		}
	}
}
