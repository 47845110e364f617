// Package pay exposes the payment endpoints: checkout session creation,
// gateway webhooks and the customer return page.
package pay

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

// Gateway is the payment gateway as the handlers use it.
type Gateway interface {
	Inquirer
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error)
	ValidateWebhookSignature(payload []byte, signature string) bool
	ValidateNotificationSecret(secret string) bool
	CheckoutScriptURL() string
	Config() gateway.Config
}

// Service holds the payment handlers and what they depend on.
type Service struct {
	gw        Gateway
	journal   Journal
	processor *Processor
	validate  *validator.Validate
}

func NewService(gw Gateway, journal Journal, processor *Processor) *Service {
	if journal == nil {
		journal = NewMemoryJournal()
	}
	return &Service{
		gw:        gw,
		journal:   journal,
		processor: processor,
		validate:  utils.NewValidator(),
	}
}
