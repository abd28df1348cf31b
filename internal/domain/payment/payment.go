// Package payment は決済ゲートウェイとのやり取りの型と署名検証をまとめる。
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const DefaultCurrency = "INR"

var (
	// ゲートウェイ側に存在しない
	ErrNotFound = errors.New("payment: not found")
	// リトライしても応答が得られない
	ErrUnavailable = errors.New("payment: gateway unavailable")
)

// GatewayError はゲートウェイが返したエラー応答
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// ゲートウェイ側の決済インテント（Razorpayのorder）
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // 最小単位（paise）
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type CreateIntentRequest struct {
	Amount   int64
	Currency string
	// 冪等キーとしても使う
	Receipt string
	Notes   map[string]string
}

// 支払いのstatus（Razorpay）
const (
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
)

// ゲートウェイ側の支払い
type Payment struct {
	ID        string
	OrderID   string
	Amount    int64
	Currency  string
	Status    string
	Method    string
	Email     string
	Contact   string
	CreatedAt time.Time
}

// Settled はお金が確保済み（authorized/captured）
func (p Payment) Settled() bool {
	return p.Status == StatusAuthorized || p.Status == StatusCaptured
}

// Gateway はテストでモックに差し替える
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (Intent, error)
	FetchPayment(ctx context.Context, paymentID string) (Payment, error)
}

// IntentStore は同じユーザー・同じreceiptで作ったインテントを覚えておく。
// receiptはクライアントが決められるのでユーザーごとに分ける
type IntentStore interface {
	Get(ctx context.Context, userID, receipt string) (Intent, bool, error)
	Put(ctx context.Context, userID, receipt string, intent Intent, ttl time.Duration) error
}
