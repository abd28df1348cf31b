package model

import "time"

type CartStatus string

// 注文確定時はカートを閉じずに明細を消すので、今はACTIVEのみ
const CartStatusActive CartStatus = "ACTIVE"

// 1ユーザーにつきACTIVEは1つ
type Cart struct {
	ID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"userId"`
	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
