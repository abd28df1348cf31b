package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 削除はIsActive=false（注文明細から参照されるため物理削除しない）
type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Images      []string        `gorm:"serializer:json;type:jsonb" json:"images"`
	Rating      float64         `gorm:"not null;default:0" json:"rating"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
