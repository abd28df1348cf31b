package model

import "github.com/shopspring/decimal"

func init() {
	// 金額はJSONで数値として出す
	decimal.MarshalJSONWithoutQuotes = true
}

// AutoMigrate対象
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&InventoryAdjustment{},
		&Cart{},
		&CartItem{},
		&WishlistItem{},
		&Address{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
	}
}
