package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 管理画面のユーザー検索
type UserListQuery struct {
	Page   int
	Limit  int
	Search string // email / 名前
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（メール重複はErrConflict）
	Create(ctx context.Context, user *model.User) error
	// 無ければErrNotFound
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID string) error
	// is_activeの切り替え
	SetActive(ctx context.Context, userID string, active bool) error
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
}
