package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格を必ず保存。
type CartItem struct {
	ID                string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CartID            string          `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"cartId"`
	ProductID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"productId"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"price"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
