package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

// HTTPError はハンドラでそのままレスポンスにできるエラー
type HTTPError struct {
	Status  int
	Code    string
	Message string
	// ログ用（レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    codeForStatus(status),
		Message: message,
	}
}

func newCodedError(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	//400
	ErrValidation              = newCodedError(http.StatusBadRequest, "VALIDATION_ERROR", "validation error")
	ErrInvalidAmount           = newCodedError(http.StatusBadRequest, "INVALID_AMOUNT", "amount must be greater than 0")
	ErrMissingFields           = newCodedError(http.StatusBadRequest, "MISSING_FIELDS", "missing required payment fields")
	ErrEmptyOrder              = newCodedError(http.StatusBadRequest, "EMPTY_ORDER", "no order items")
	ErrMissingShippingInfo     = newCodedError(http.StatusBadRequest, "MISSING_SHIPPING_INFO", "shipping address and payment method are required")
	ErrInvalidStatus           = newCodedError(http.StatusBadRequest, "INVALID_STATUS", "invalid order status")
	ErrInvalidWebhookSignature = newCodedError(http.StatusBadRequest, "INVALID_WEBHOOK_SIGNATURE", "invalid webhook signature")
	ErrPaymentNotVerified      = newCodedError(http.StatusBadRequest, "PAYMENT_NOT_VERIFIED", "payment verification failed")
	ErrOrderNotCancellable     = newCodedError(http.StatusBadRequest, "ORDER_NOT_CANCELLABLE", "order can only be cancelled while pending or processing")
	ErrOutOfStock              = newCodedError(http.StatusBadRequest, "OUT_OF_STOCK", "out of stock")

	//401/403
	ErrUnauthorized     = newCodedError(http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrSecurityIncident = newCodedError(http.StatusUnauthorized, "UNAUTHORIZED", "refresh token reuse detected")
	ErrForbidden        = newCodedError(http.StatusForbidden, "FORBIDDEN", "forbidden")
	ErrUserBlocked      = newCodedError(http.StatusForbidden, "USER_BLOCKED", "account is blocked")

	//404/409
	ErrNotFound = newCodedError(http.StatusNotFound, "NOT_FOUND", "not found")
	ErrConflict = newCodedError(http.StatusConflict, "CONFLICT", "already exists")

	//502
	ErrGatewayUnavailable = newCodedError(http.StatusBadGateway, "GATEWAY_ERROR", "payment gateway unavailable")
)

// 500（原因はErrに残してログに出す）
func internalError(err error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
		Err:     err,
	}
}

// repositoryのエラーを寄せる
func repoError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return newCodedError(http.StatusNotFound, "NOT_FOUND", notFoundMsg)
	case errors.Is(err, repo.ErrConflict):
		return ErrConflict
	default:
		return internalError(err)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusBadGateway:
		return "GATEWAY_ERROR"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
