package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// 通常の流れ。管理者はこれ以外の遷移も行える
var orderFlow = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned},
	OrderStatusDelivered:  {OrderStatusReturned},
}

// 文字列からステータスへ（大文字小文字は無視）
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return st, true
	}
	return "", false
}

// 本人キャンセルはPENDING/PROCESSINGのみ
func (s OrderStatus) CancellableByOwner() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// 通常の流れに沿った遷移か
func (s OrderStatus) IsForwardTo(next OrderStatus) bool {
	for _, n := range orderFlow[s] {
		if n == next {
			return true
		}
	}
	return false
}

// 在庫を確保している状態か（CANCELLED/RETURNEDは在庫に戻っている）
func (s OrderStatus) HoldsStock() bool {
	return s != OrderStatusCancelled && s != OrderStatusReturned
}

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "COD"
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodUPI  PaymentMethod = "UPI"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodUPI:
		return m, true
	}
	return "", false
}

// CARD/UPIは決済ゲートウェイで支払い済みであること
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodCard || m == PaymentMethodUPI
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// 注文時点の配送先（JSONで保存）
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) IsComplete() bool {
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}

// 注文は削除しない
type Order struct {
	ID              string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          string          `gorm:"type:uuid;not null;index" json:"userId"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"paymentStatus"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	ShippingAddress ShippingAddress `gorm:"serializer:json;type:jsonb;not null" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(10);not null" json:"paymentMethod"`
	GatewayOrderID  *string         `gorm:"type:varchar(64);index" json:"gatewayOrderId"`
	PaymentID       *string         `gorm:"type:varchar(64);uniqueIndex" json:"paymentId"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
