package gateway

import (
	"strings"
	"time"
)

const (
	testBaseURL       = "https://test-bankmuscat.gateway.mastercard.com"
	productionBaseURL = "https://bankmuscat.gateway.mastercard.com"
)

// Config is read from BANK_MUSCAT_* environment variables.
type Config struct {
	Environment     string        `envconfig:"ENVIRONMENT" default:"test"`
	MerchantID      string        `envconfig:"MERCHANT_ID"`
	MerchantName    string        `envconfig:"MERCHANT_NAME" default:"Spirit Hub Cafe"`
	APIUsername     string        `envconfig:"API_USERNAME"`
	APIPassword     string        `envconfig:"API_PASSWORD"`
	BaseURL         string        `envconfig:"BASE_URL"`
	APIVersion      string        `envconfig:"API_VERSION" default:"100"`
	DefaultCurrency string        `envconfig:"DEFAULT_CURRENCY" default:"OMR"`
	ReturnURL       string        `envconfig:"RETURN_URL"`
	WebhookURL      string        `envconfig:"WEBHOOK_URL"`
	WebhookSecret   string        `envconfig:"WEBHOOK_SECRET"`
	HMACSecret      string        `envconfig:"HMAC_SECRET"`
	CheckoutPageURL string        `envconfig:"CHECKOUT_PAGE_URL"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// Normalize fills the values that derive from other settings.
func (c *Config) Normalize(publicBaseURL string) {
	if c.BaseURL == "" {
		c.BaseURL = testBaseURL
		if strings.EqualFold(c.Environment, "production") {
			c.BaseURL = productionBaseURL
		}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIUsername == "" && c.MerchantID != "" {
		c.APIUsername = "merchant." + c.MerchantID
	}
	if c.ReturnURL == "" {
		c.ReturnURL = publicBaseURL + "/api/payments/confirm"
	}
	if c.WebhookURL == "" {
		c.WebhookURL = publicBaseURL + "/api/payments/webhook"
	}
	if c.CheckoutPageURL == "" {
		c.CheckoutPageURL = publicBaseURL + "/api/payments/checkout"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "OMR"
	}
}

// Redacted returns a copy that is safe to log or return to clients.
func (c Config) Redacted() Config {
	if c.APIPassword != "" {
		c.APIPassword = "***"
	}
	if c.WebhookSecret != "" {
		c.WebhookSecret = "***"
	}
	if c.HMACSecret != "" {
		c.HMACSecret = "***"
	}
	return c
}
