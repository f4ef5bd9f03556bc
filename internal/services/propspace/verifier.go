package propspace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"propsync/internal/logger"
)

// WebhookVerifier checks inbound webhook authenticity against the shared
// secret. Running without a secret rejects everything unless AllowUnverified
// was explicitly configured; an open default is too easy to ship by accident.
type WebhookVerifier struct {
	secret          string
	allowUnverified bool
	logger          *logger.Logger
}

func NewWebhookVerifier(secret string, allowUnverified bool, logger *logger.Logger) *WebhookVerifier {
	return &WebhookVerifier{
		secret:          secret,
		allowUnverified: allowUnverified,
		logger:          logger,
	}
}

// Verify computes an HMAC-SHA256 of the raw body and compares it with the hex
// digest from the signature header.
func (v *WebhookVerifier) Verify(rawBody []byte, signature string) bool {
	if v.secret == "" {
		if v.allowUnverified {
			v.logger.Warn("No webhook secret configured, accepting unverified webhook")
			return true
		}
		v.logger.Error("No webhook secret configured, rejecting webhook")
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(rawBody)

	// Decode rather than compare hex strings so the header's casing
	// does not matter.
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), provided)
}
