package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	// 行ロック付き（ステータス更新用）
	FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)
	// IDが埋まる
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	//ゲートウェイ側の注文IDで検索（webhook用）
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Order, error)
	//同じ決済で二重に注文させない
	FindByPaymentID(ctx context.Context, paymentID string) (model.Order, bool, error)
	UpdatePayment(ctx context.Context, orderID string, status model.PaymentStatus, paymentID *string) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	Count(ctx context.Context) (int64, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
	SumTotalByStatus(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error)
}
