package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	HeaderEvent       = "X-Webhook-Event"
	HeaderDelivery    = "X-Webhook-Delivery"
	HeaderSignature   = "X-Webhook-Signature"
	HeaderContentType = "Content-Type"
)

// Sign returns the lowercase hex HMAC-SHA256 of body keyed by the secret
// exactly as stored. It reports false when the secret is blank or signing
// fails; a delivery then goes out unsigned instead of being aborted.
func Sign(secret *string, body []byte) (signature string, ok bool) {
	if secret == nil || strings.TrimSpace(*secret) == "" {
		return "", false
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			signature, ok = "", false
		}
	}()
	mac := hmac.New(sha256.New, []byte(*secret))
	if _, err := mac.Write(body); err != nil {
		return "", false
	}
	return hex.EncodeToString(mac.Sum(nil)), true
}

// VerifySignature recomputes the signature over the raw body and compares in
// constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected, ok := Sign(&secret, body)
	if !ok {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
