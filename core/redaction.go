package core

import "strings"

const RedactedValue = "[REDACTED]"

var sensitiveFieldTokens = []string{
	"secret",
	"signature",
	"authorization",
	"password",
	"token",
}

// RedactFields masks values whose keys look like signing material before they
// reach a log sink. Nested maps are walked; the input is never mutated.
func RedactFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if isSensitiveField(key) {
			out[key] = RedactedValue
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			out[key] = RedactFields(nested)
			continue
		}
		out[key] = value
	}
	return out
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "", "delivery_id", "endpoint_id", "subscription_id", "site_id":
		return false
	}
	// header names arrive as X-Webhook-Signature
	key = strings.ReplaceAll(key, "-", "_")
	for _, token := range sensitiveFieldTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}
