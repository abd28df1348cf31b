package handler

import (
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 署名ヘッダ
const HeaderRazorpaySignature = "X-Razorpay-Signature"

// webhook本文の上限
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type CreatePaymentOrderRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency" validate:"omitempty,len=3"`
	Receipt  string            `json:"receipt" validate:"omitempty,max=40"`
	Notes    map[string]string `json:"notes"`
}

// gatewayのフィールド名に合わせる
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}

// webhookは認証なし（署名で検証）。
// ゲートウェイは少数のIPからまとめて送ってくるのでレート制限もかけない
func (h *PaymentHandler) RegisterRoutes(api *echo.Group, guards Guards, limit echo.MiddlewareFunc) {
	g := api.Group("/payment")
	pay := append([]echo.MiddlewareFunc{limit}, guards.Require(policy.CapPaymentsCreate)...)

	g.POST("/create-order", h.createOrder, pay...)
	g.POST("/verify", h.verify, pay...)
	g.GET("/:paymentId", h.get, pay...)
	g.POST("/webhook", h.webhook)
}

func (h *PaymentHandler) createOrder(c echo.Context) error {
	var req CreatePaymentOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), usecase.CreateIntentInput{
		UserID:   middleware.UserID(c),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

// 不一致は400（エラーではなく結果として返す）
func (h *PaymentHandler) verify(c echo.Context) error {
	var req VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ok, err := h.uc.VerifyPayment(c.Request().Context(), usecase.VerifyPaymentInput{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, Envelope{
			Success: false,
			Message: "Payment verification failed",
			Code:    usecase.ErrPaymentNotVerified.Code,
		})
	}

	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: "Payment verified successfully",
		Data: map[string]string{
			"paymentId": req.PaymentID,
			"orderId":   req.GatewayOrderID,
		},
	})
}

func (h *PaymentHandler) get(c echo.Context) error {
	paymentID := c.Param("paymentId")
	if paymentID == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid paymentId")
	}

	out, err := h.uc.GetPayment(c.Request().Context(), paymentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

// 署名は生のbodyに対して検証するのでBindしない
func (h *PaymentHandler) webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(HeaderRazorpaySignature)); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "webhook processed")
}
