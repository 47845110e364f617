package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ValidateWebhookSignature checks an HMAC-SHA256 hex signature over the raw
// payload. With no secret configured, checking is disabled and it returns true.
func (c *Client) ValidateWebhookSignature(payload []byte, signature string) bool {
	if c.cfg.HMACSecret == "" {
		log.Warn("webhook HMAC secret not configured, skipping signature validation")
		return true
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.HMACSecret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

// ValidateNotificationSecret compares the shared notification secret header.
// It returns true when no secret is configured.
func (c *Client) ValidateNotificationSecret(secret string) bool {
	if c.cfg.WebhookSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(c.cfg.WebhookSecret)) == 1
}

// Sign produces the signature ValidateWebhookSignature expects.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
