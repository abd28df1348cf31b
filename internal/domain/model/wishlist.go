package model

import "time"

// (user_id, product_id) はユニーク
type WishlistItem struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"productId"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (WishlistItem) TableName() string { return "wishlists" }
