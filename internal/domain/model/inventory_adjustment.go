package model

import "time"

//在庫調整の履歴

type InventoryAdjustment struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID   string    `gorm:"type:uuid;not null;index" json:"productId"`
	AdminUserID string    `gorm:"type:uuid;not null;index" json:"adminUserId"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
