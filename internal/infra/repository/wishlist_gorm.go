package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type wishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) repo.WishlistRepository {
	return &wishlistGormRepository{db: db}
}

func (r *wishlistGormRepository) ListProductsByUserID(ctx context.Context, userID string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Joins("JOIN wishlists ON wishlists.product_id = products.id").
		Where("wishlists.user_id = ?", userID).
		Order("wishlists.created_at desc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 重複は(user_id, product_id)のユニーク制約で弾く
func (r *wishlistGormRepository) Add(ctx context.Context, item model.WishlistItem) error {
	return mapErr(r.db.WithContext(ctx).Create(&item).Error)
}

func (r *wishlistGormRepository) Remove(ctx context.Context, userID, productID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *wishlistGormRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *wishlistGormRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
