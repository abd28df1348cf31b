package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	// Rotate は旧tokenを使用済みにして後継を保存する（1トランザクション）。
	// 旧tokenが既に使用済みならErrRefreshTokenNotFound
	Rotate(ctx context.Context, oldID string, next *model.RefreshToken) error

	DeleteAllByUserID(ctx context.Context, userID string) error
	DeleteByID(ctx context.Context, tokenID string) error
}
