package settlement

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifyWebhookSignature checks the HMAC-SHA512 signature the settlement
// network attaches to webhook deliveries.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignWebhookBody produces the signature for a payload, used by tests and
// by local settlement simulators.
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
