package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page            int
	Limit           int
	Q               string
	Category        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Sort            string // new / price_asc / price_desc / rating
	IncludeInactive bool   // 管理画面用
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// is_active=false にする
	Deactivate(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
}
