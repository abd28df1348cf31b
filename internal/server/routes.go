package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// Handlers はmainで組み立てたハンドラ一式
type Handlers struct {
	Users repository.UserRepository

	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Category     *handler.CategoryHandler
	Cart         *handler.CartHandler
	Wishlist     *handler.WishlistHandler
	Address      *handler.AddressHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
	Dashboard    *handler.DashboardHandler
	Payment      *handler.PaymentHandler
}

// 権限はルート単位でpolicyのcapabilityを付ける
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	guards := handler.Guards{
		Auth: []echo.MiddlewareFunc{
			middleware.AuthJWT(cfg),
			middleware.TokenVersionGuard(h.Users),
		},
	}
	limit := middleware.RateLimit(cfg.RateLimitRPS, 0)

	api := e.Group("/api")

	h.Health.RegisterRoutes(api)
	h.Auth.RegisterRoutes(api, guards, limit)
	h.Product.RegisterRoutes(api)
	h.AdminProduct.RegisterRoutes(api, guards)
	h.Category.RegisterRoutes(api, guards)
	h.Cart.RegisterRoutes(api, guards)
	h.Wishlist.RegisterRoutes(api, guards)
	h.Address.RegisterRoutes(api, guards)
	h.Order.RegisterRoutes(api, guards)
	h.AdminOrder.RegisterRoutes(api, guards)
	h.AdminUser.RegisterRoutes(api, guards)
	h.Dashboard.RegisterRoutes(api, guards)
	h.Payment.RegisterRoutes(api, guards, limit)
}
