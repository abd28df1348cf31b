package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartGormRepository はカートと明細の両方を扱う
type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

var (
	_ repo.CartRepository     = (*CartGormRepository)(nil)
	_ repo.CartItemRepository = (*CartGormRepository)(nil)
)

func (r *CartGormRepository) activeCart(tx *gorm.DB, userID string) *gorm.DB {
	return tx.Where("user_id = ? AND status = ?", userID, model.CartStatusActive).Order("created_at DESC")
}

// ACTIVEが無ければ作る。同時に作られた場合は先にできた方を返す
func (r *CartGormRepository) GetOrCreateActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	cart, err := r.FindActiveByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, err
	}

	cart = model.Cart{UserID: userID, Status: model.CartStatusActive}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		if existing, findErr := r.FindActiveByUserID(ctx, userID); findErr == nil {
			return existing, nil
		}
		return model.Cart{}, mapErr(err)
	}
	return cart, nil
}

func (r *CartGormRepository) FindActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	if err := r.activeCart(r.db.WithContext(ctx), userID).First(&cart).Error; err != nil {
		return model.Cart{}, mapErr(err)
	}
	return cart, nil
}

func (r *CartGormRepository) Clear(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID string) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// (cart_id, product_id) のunique indexでupsert。
// 既存行は数量だけ加算し、価格は最初に入れたときのまま
func (r *CartGormRepository) UpsertByCartAndProduct(ctx context.Context, cartID string, productID string, addQty int64, unitPriceSnapshot decimal.Decimal) error {
	if addQty <= 0 {
		return errors.New("cart: quantity must be positive")
	}

	item := model.CartItem{
		CartID:            cartID,
		ProductID:         productID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("cart_items.quantity + EXCLUDED.quantity")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("NOW()")},
		},
	}).Create(&item).Error
}

// 後勝ち
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID string) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, "id = ?", cartItemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID string) (model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", cartItemID).Error; err != nil {
		return model.CartItem{}, mapErr(err)
	}
	return item, nil
}

func (r *CartGormRepository) IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", cartItemID, userID).
		Count(&count).Error
	return count > 0, err
}
