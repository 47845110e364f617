package gateway

import (
	"net/url"
	"strings"
)

// RedirectURL is the hosted checkout page for a session.
func (c *Client) RedirectURL(sessionID, successURL, failureURL, cancelURL string) string {
	q := url.Values{}
	q.Set("merchant", c.cfg.MerchantID)
	q.Set("returnUrl", c.cfg.ReturnURL)
	if successURL != "" {
		q.Set("successUrl", successURL)
	}
	if failureURL != "" {
		q.Set("failureUrl", failureURL)
	}
	if cancelURL != "" {
		q.Set("cancelUrl", cancelURL)
	}
	return c.cfg.BaseURL + "/checkout/pay/" + url.PathEscape(sessionID) + "?" + q.Encode()
}

// CheckoutURL is the embeddable checkout page served by this service.
func (c *Client) CheckoutURL(sessionID string) string {
	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("merchantId", c.cfg.MerchantID)
	sep := "?"
	if strings.Contains(c.cfg.CheckoutPageURL, "?") {
		sep = "&"
	}
	return c.cfg.CheckoutPageURL + sep + q.Encode()
}

// CheckoutScriptURL is the gateway's checkout.js used by the embedded page.
func (c *Client) CheckoutScriptURL() string {
	return c.cfg.BaseURL + "/static/checkout/checkout.min.js"
}
