package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	ListByUserID(ctx context.Context, userID string) ([]model.Address, error)

	FindByID(ctx context.Context, addressID string) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID string) error

	//住所がそのユーザーのものか
	IsOwnedByUser(ctx context.Context, addressID, userID string) (bool, error)

	//デフォルト住所の切り替え
	SetDefault(ctx context.Context, userID, addressID string) error
}
