package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/payment"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	// 同じreceiptのインテントを覚えておく時間
	IntentTTL time.Duration
}

type PaymentUsecase struct {
	cfg     PaymentConfig
	gateway payment.Gateway
	intents payment.IntentStore
	orders  repo.OrderRepository
	log     *zap.Logger
	now     func() time.Time
}

// DI
func NewPaymentUsecase(
	cfg PaymentConfig,
	gateway payment.Gateway,
	intents payment.IntentStore,
	orders repo.OrderRepository,
	log *zap.Logger,
) *PaymentUsecase {
	if cfg.IntentTTL <= 0 {
		cfg.IntentTTL = 24 * time.Hour
	}
	return &PaymentUsecase{
		cfg:     cfg,
		gateway: gateway,
		intents: intents,
		orders:  orders,
		log:     log,
		now:     time.Now,
	}
}

type CreateIntentInput struct {
	UserID   string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

type IntentDTO struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type CreateIntentOutput struct {
	Order IntentDTO `json:"order"`
	// フロントで使う公開キー
	Key string `json:"key"`
}

// CreateIntent はゲートウェイ側に決済インテントを作る（DBには保存しない）
func (u *PaymentUsecase) CreateIntent(ctx context.Context, in CreateIntentInput) (CreateIntentOutput, error) {
	if !in.Amount.IsPositive() {
		return CreateIntentOutput{}, ErrInvalidAmount
	}
	minor := payment.ToMinorUnits(in.Amount)
	if minor <= 0 {
		return CreateIntentOutput{}, ErrInvalidAmount
	}
	if in.UserID == "" {
		return CreateIntentOutput{}, ErrUnauthorized
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = payment.DefaultCurrency
	}
	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" {
		receipt = fmt.Sprintf("order_%d", u.now().UnixMilli())
	}
	notes := in.Notes
	if notes == nil {
		notes = map[string]string{}
	}

	//同じユーザーが同じreceiptで作成済みならそれを返す
	if cached, found, err := u.intents.Get(ctx, in.UserID, receipt); err != nil {
		u.log.Warn("intent cache get failed", zap.String("receipt", receipt), zap.Error(err))
	} else if found && cached.Amount == minor && cached.Currency == currency {
		return u.intentOutput(cached), nil
	}

	intent, err := u.gateway.CreateIntent(ctx, payment.CreateIntentRequest{
		Amount:   minor,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return CreateIntentOutput{}, u.gatewayError(err)
	}

	if err := u.intents.Put(ctx, in.UserID, receipt, intent, u.cfg.IntentTTL); err != nil {
		u.log.Warn("intent cache put failed", zap.String("receipt", receipt), zap.Error(err))
	}
	return u.intentOutput(intent), nil
}

func (u *PaymentUsecase) intentOutput(in payment.Intent) CreateIntentOutput {
	return CreateIntentOutput{
		Order: IntentDTO{
			ID:       in.ID,
			Amount:   in.Amount,
			Currency: in.Currency,
			Receipt:  in.Receipt,
		},
		Key: u.cfg.KeyID,
	}
}

type VerifyPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyPayment は署名が一致するかだけを返す。不一致はエラーではない
func (u *PaymentUsecase) VerifyPayment(_ context.Context, in VerifyPaymentInput) (bool, error) {
	if strings.TrimSpace(in.GatewayOrderID) == "" ||
		strings.TrimSpace(in.PaymentID) == "" ||
		strings.TrimSpace(in.Signature) == "" {
		return false, ErrMissingFields
	}
	return payment.VerifyPaymentSignature(u.cfg.KeySecret, in.GatewayOrderID, in.PaymentID, in.Signature), nil
}

type PaymentDetailsOutput struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Method    string          `json:"method"`
	Email     string          `json:"email"`
	Contact   string          `json:"contact"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (u *PaymentUsecase) GetPayment(ctx context.Context, paymentID string) (PaymentDetailsOutput, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return PaymentDetailsOutput{}, NewHTTPError(http.StatusBadRequest, "payment id is required")
	}

	p, err := u.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return PaymentDetailsOutput{}, u.gatewayError(err)
	}

	return PaymentDetailsOutput{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    payment.FromMinorUnits(p.Amount),
		Currency:  p.Currency,
		Status:    p.Status,
		Method:    p.Method,
		Email:     p.Email,
		Contact:   p.Contact,
		CreatedAt: p.CreatedAt,
	}, nil
}

// ---- webhook ----

const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
)

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Status           string `json:"status"`
				Method           string `json:"method"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook は署名を検証してからイベントを反映する
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !payment.VerifyWebhookSignature(u.cfg.WebhookSecret, rawBody, signature) {
		u.log.Warn("webhook signature mismatch")
		return ErrInvalidWebhookSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}
	entity := ev.Payload.Payment.Entity

	log := u.log.With(
		zap.String("event", ev.Event),
		zap.String("payment_id", entity.ID),
		zap.String("gateway_order_id", entity.OrderID),
	)

	switch ev.Event {
	case EventPaymentAuthorized:
		log.Info("payment authorized")
		return nil
	case EventPaymentCaptured:
		return u.applyPaymentResult(ctx, log, entity.OrderID, entity.ID, model.PaymentStatusPaid)
	case EventPaymentFailed:
		log.Info("payment failed", zap.String("reason", entity.ErrorDescription))
		return u.applyPaymentResult(ctx, log, entity.OrderID, entity.ID, model.PaymentStatusFailed)
	default:
		log.Info("unhandled webhook event")
		return nil
	}
}

func (u *PaymentUsecase) applyPaymentResult(ctx context.Context, log *zap.Logger, gatewayOrderID, paymentID string, status model.PaymentStatus) error {
	if gatewayOrderID == "" {
		log.Warn("webhook without order id")
		return nil
	}

	o, err := u.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, repo.ErrNotFound) {
		//注文作成前に届くこともある
		log.Info("no order for gateway order id")
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	//支払い済みを失敗で上書きしない
	if o.PaymentStatus == model.PaymentStatusPaid {
		return nil
	}

	var pid *string
	if status == model.PaymentStatusPaid && paymentID != "" {
		pid = &paymentID
	}
	if err := u.orders.UpdatePayment(ctx, o.ID, status, pid); err != nil {
		return repoError(err, "order not found")
	}

	log.Info("order payment updated", zap.String("order_id", o.ID), zap.String("payment_status", string(status)))
	return nil
}

func (u *PaymentUsecase) gatewayError(err error) error {
	if errors.Is(err, payment.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "payment not found")
	}
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) && gwErr.StatusCode >= 400 && gwErr.StatusCode < 500 {
		msg := gwErr.Description
		if msg == "" {
			msg = "payment gateway rejected the request"
		}
		return &HTTPError{Status: http.StatusBadRequest, Code: "GATEWAY_REJECTED", Message: msg, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, payment.ErrUnavailable) {
		return &HTTPError{Status: ErrGatewayUnavailable.Status, Code: ErrGatewayUnavailable.Code, Message: ErrGatewayUnavailable.Message, Err: err}
	}
	return internalError(err)
}
