package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type WishlistRepository interface {
	// 追加日時の新しい順に商品を返す
	ListProductsByUserID(ctx context.Context, userID string) ([]model.Product, error)
	// 重複はErrConflict
	Add(ctx context.Context, item model.WishlistItem) error
	// 無ければErrNotFound
	Remove(ctx context.Context, userID, productID string) error
	Exists(ctx context.Context, userID, productID string) (bool, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}
