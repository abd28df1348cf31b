package model

import "time"

// RefreshToken は平文を持たない（token_hashのみ）。
// ローテーションで使用済みになると ReplacedByID に後継のIDが入る
type RefreshToken struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string     `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash    string     `json:"-" gorm:"not null;uniqueIndex"`
	UserAgent    string     `json:"userAgent"`
	ExpiresAt    time.Time  `json:"expiresAt" gorm:"not null;index"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	ReplacedByID *string    `json:"replacedById,omitempty" gorm:"type:uuid"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// 使用済み＝再利用されたら盗用とみなす
func (t *RefreshToken) Used() bool {
	return t.UsedAt != nil
}
