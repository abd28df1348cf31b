package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign は "gatewayOrderID|paymentID" のHMAC-SHA256(hex)
func Sign(secret, gatewayOrderID, paymentID string) string {
	return hmacHex(secret, []byte(gatewayOrderID+"|"+paymentID))
}

// VerifyPaymentSignature は定数時間で比較する
func VerifyPaymentSignature(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

// SignWebhook はリクエストボディそのもののHMAC-SHA256(hex)
func SignWebhook(secret string, body []byte) string {
	return hmacHex(secret, body)
}

func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := SignWebhook(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

func hmacHex(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}
