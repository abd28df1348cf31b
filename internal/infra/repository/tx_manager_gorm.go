package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// txを握ったまま、呼ばれたrepositoryだけ作る
type txRepos struct {
	tx *gorm.DB
}

func (r txRepos) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r txRepos) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r txRepos) Carts() repo.CartRepository           { return NewCartGormRepository(r.tx) }
func (r txRepos) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r txRepos) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }
func (r txRepos) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{tx: tx})
	})
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
