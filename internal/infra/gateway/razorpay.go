package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain/payment"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

type RazorpayConfig struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	Timeout    time.Duration // 1リクエストあたり
	MaxRetries int
	Backoff    time.Duration // 初回の待ち時間（以降倍）
}

// RazorpayClient はRazorpay REST APIのクライアント
type RazorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

func NewRazorpayClient(cfg RazorpayConfig, log *zap.Logger) *RazorpayClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RazorpayClient{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		log:        log,
	}
}

// ---- Razorpay API request/response structs ----

type rzpOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type rzpOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type rzpOrderList struct {
	Count int        `json:"count"`
	Items []rzpOrder `json:"items"`
}

type rzpPayment struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

type rzpErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent はゲートウェイにorderを作る。
// 失敗後の再試行では、先にreceiptで既存orderを探して二重作成を防ぐ。
func (c *RazorpayClient) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (payment.Intent, error) {
	body := rzpOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return payment.Intent{}, err
			}
			if req.Receipt != "" {
				existing, found, err := c.findIntentByReceipt(ctx, req.Receipt)
				//同じreceiptでも金額・通貨が違えば別物
				if err == nil && found && existing.Amount == req.Amount && existing.Currency == req.Currency {
					c.log.Info("razorpay order recovered by receipt",
						zap.String("receipt", req.Receipt), zap.String("order_id", existing.ID))
					return existing, nil
				}
			}
		}

		status, respBody, err := c.do(ctx, http.MethodPost, "/orders", body)
		if shouldRetry(ctx, status, err) {
			lastErr = describe(status, err)
			c.log.Warn("razorpay create order retry",
				zap.Int("attempt", attempt+1), zap.Error(lastErr))
			continue
		}
		if err != nil {
			return payment.Intent{}, err
		}
		if status >= 400 {
			return payment.Intent{}, parseAPIError(status, respBody)
		}

		var o rzpOrder
		if err := json.Unmarshal(respBody, &o); err != nil {
			return payment.Intent{}, fmt.Errorf("razorpay: decode order: %w", err)
		}
		return toIntent(o), nil
	}

	return payment.Intent{}, fmt.Errorf("%w: %v", payment.ErrUnavailable, lastErr)
}

// FetchPayment は支払い状態を取得する
func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (payment.Payment, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return payment.Payment{}, err
			}
		}

		status, respBody, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil)
		if shouldRetry(ctx, status, err) {
			lastErr = describe(status, err)
			continue
		}
		if err != nil {
			return payment.Payment{}, err
		}
		if status >= 400 {
			apiErr := parseAPIError(status, respBody)
			if isNotFound(apiErr) {
				return payment.Payment{}, payment.ErrNotFound
			}
			return payment.Payment{}, apiErr
		}

		var p rzpPayment
		if err := json.Unmarshal(respBody, &p); err != nil {
			return payment.Payment{}, fmt.Errorf("razorpay: decode payment: %w", err)
		}
		return payment.Payment{
			ID:        p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Status:    p.Status,
			Method:    p.Method,
			Email:     p.Email,
			Contact:   p.Contact,
			CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
		}, nil
	}

	return payment.Payment{}, fmt.Errorf("%w: %v", payment.ErrUnavailable, lastErr)
}

func (c *RazorpayClient) findIntentByReceipt(ctx context.Context, receipt string) (payment.Intent, bool, error) {
	status, respBody, err := c.do(ctx, http.MethodGet, "/orders?receipt="+url.QueryEscape(receipt), nil)
	if err != nil {
		return payment.Intent{}, false, err
	}
	if status >= 400 {
		return payment.Intent{}, false, parseAPIError(status, respBody)
	}

	var list rzpOrderList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return payment.Intent{}, false, err
	}
	for _, o := range list.Items {
		if o.Receipt == receipt {
			return toIntent(o), true, nil
		}
	}
	return payment.Intent{}, false, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func (c *RazorpayClient) wait(ctx context.Context, attempt int) error {
	d := c.backoff << (attempt - 1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ネットワークエラー・5xx・429だけ再試行
func shouldRetry(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	return status >= 500 || status == http.StatusTooManyRequests
}

func describe(status int, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("razorpay: status %d", status)
}

func parseAPIError(status int, body []byte) *payment.GatewayError {
	var eb rzpErrorBody
	_ = json.Unmarshal(body, &eb)
	return &payment.GatewayError{
		StatusCode:  status,
		Code:        eb.Error.Code,
		Description: eb.Error.Description,
	}
}

func isNotFound(e *payment.GatewayError) bool {
	if e.StatusCode == http.StatusNotFound {
		return true
	}
	return e.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(e.Description), "does not exist")
}

func toIntent(o rzpOrder) payment.Intent {
	return payment.Intent{
		ID:       o.ID,
		Amount:   o.Amount,
		Currency: o.Currency,
		Receipt:  o.Receipt,
		Status:   o.Status,
	}
}
