package routes

import (
	"github.com/julienschmidt/httprouter"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/middleware"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pay"
)

// AddPayRoutes wires the Bank Muscat payment endpoints. The webhook and the
// confirm page are called by the gateway and the shopper's browser, so
// neither requires a token.
func AddPayRoutes(router *httprouter.Router, s Services) {
	router.POST("/api/payments/create-payment",
		middleware.Chain(
			s.PaymentLimiter.Limit,
			s.Auth.OptionalAuth,
			pay.Idempotent(s.Idempotency),
		)(s.Pay.CreatePayment),
	)

	router.POST("/api/payments/webhook", s.Pay.Webhook)
	router.GET("/api/payments/confirm", s.Pay.Confirm)
	router.GET("/api/payments/checkout", s.Pay.Checkout)
}
