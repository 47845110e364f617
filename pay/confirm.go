package pay

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

type confirmation struct {
	OrderID   string           `json:"orderId"`
	SessionID string           `json:"sessionId,omitempty"`
	Result    string           `json:"result,omitempty"`
	Status    string           `json:"status"`
	Outcome   string           `json:"outcome"`
	Message   string           `json:"message"`
	Amount    float64          `json:"amount"`
	Currency  string           `json:"currency"`
	Inquiry   *gateway.Inquiry `json:"inquiry"`
}

// AmountText is the amount at the currency's precision, e.g. "7.500 OMR" or
// "19.50 USD".
func (c confirmation) AmountText() string {
	return gateway.FormatAmount(c.Amount, c.Currency) + " " + c.Currency
}

func wants(r *http.Request, mime string) bool {
	return strings.Contains(r.Header.Get("Accept"), mime)
}

// Confirm is where the gateway returns the customer. The order status is
// always taken from the gateway, never from the query string.
func (s *Service) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	orderID := strings.TrimSpace(q.Get("orderId"))
	if orderID == "" {
		renderPage(w, http.StatusBadRequest, errorPage, pageData{
			Title:   "Missing order",
			Message: "No order was specified. Please return to the store and try again.",
		})
		return
	}

	inq, err := s.gw.InquirePayment(r.Context(), orderID)
	if err != nil {
		ref := utils.GenerateRandomString(10)
		log.WithError(err).WithFields(log.Fields{"order_id": orderID, "reference": ref}).
			Error("Payment confirmation inquiry failed")
		if wants(r, "application/json") {
			respondFailure(w, http.StatusInternalServerError, errorBody{
				Code:    CodeInternal,
				Message: "Payment status is unavailable, reference " + ref,
			})
			return
		}
		renderPage(w, http.StatusInternalServerError, errorPage, pageData{
			Title:     "Something went wrong",
			Message:   "We could not check your payment status right now. Your order is safe; please refresh in a moment or contact support.",
			Reference: ref,
		})
		return
	}

	outcome := gateway.Outcome(inq)
	c := confirmation{
		OrderID:   orderID,
		SessionID: q.Get("sessionId"),
		Result:    q.Get("result"),
		Status:    inq.Status,
		Outcome:   outcome,
		Message:   gateway.StatusMessage(outcome),
		Amount:    inq.Amount,
		Currency:  inq.Currency,
		Inquiry:   inq,
	}

	// A returning customer may beat the webhook; settle the order now too.
	if s.processor != nil && (outcome == gateway.OutcomeSuccess || outcome == gateway.OutcomeFailure) {
		s.processor.Submit("", orderID)
	}

	switch {
	case wants(r, "application/json"):
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": c})
	case wants(r, "application/pdf"):
		pdf, err := renderReceipt(c, s.gw.Config().ReturnURL)
		if err != nil {
			log.WithError(err).WithField("order_id", orderID).Error("Receipt rendering failed")
			http.Error(w, "Failed to generate receipt", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+safeFilename(orderID)+".pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	default:
		renderPage(w, http.StatusOK, confirmPage, pageData{
			Title:        titleFor(outcome),
			Message:      c.Message,
			Outcome:      strings.ToLower(outcome),
			Confirmation: &c,
		})
	}
}

// Checkout serves the page that hosts the gateway's embedded checkout for
// a session created by CreatePayment.
func (s *Service) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		renderPage(w, http.StatusBadRequest, errorPage, pageData{
			Title:   "Missing session",
			Message: "This checkout link is incomplete. Please start the payment again.",
		})
		return
	}
	cfg := s.gw.Config()
	renderPage(w, http.StatusOK, checkoutPage, pageData{
		Title:        "Secure payment",
		SessionID:    sessionID,
		MerchantName: cfg.MerchantName,
		ScriptURL:    s.gw.CheckoutScriptURL(),
	})
}

func titleFor(outcome string) string {
	switch outcome {
	case gateway.OutcomeSuccess:
		return "Payment successful"
	case gateway.OutcomeFailure:
		return "Payment failed"
	case gateway.OutcomePending:
		return "Payment processing"
	}
	return "Payment status"
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

type pageData struct {
	Title        string
	Message      string
	Outcome      string
	Reference    string
	Confirmation *confirmation
	SessionID    string
	MerchantName string
	ScriptURL    string
}

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.WithError(err).Error("Page rendering failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

const pageLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | SpiritHub Cafe</title>
<style>
body{font-family:system-ui,sans-serif;background:#f7f3ee;color:#2b1d12;margin:0;padding:2rem}
.card{max-width:32rem;margin:3rem auto;background:#fff;border-radius:12px;padding:2rem;box-shadow:0 2px 12px rgba(0,0,0,.08)}
h1{font-size:1.5rem;margin-top:0}
.success h1{color:#1f7a3d}.failure h1{color:#a12b2b}.pending h1{color:#a36a00}
dl{display:grid;grid-template-columns:auto 1fr;gap:.25rem 1rem}
dt{color:#7a6a5c}
.ref{font-family:monospace;color:#7a6a5c}
a.button{display:inline-block;margin-top:1.5rem;padding:.6rem 1.2rem;background:#2b1d12;color:#fff;border-radius:6px;text-decoration:none}
</style>
</head>
<body>{{template "content" .}}</body>
</html>`

var (
	confirmPage = template.Must(template.Must(template.New("confirm").Parse(pageLayout)).Parse(`{{define "content"}}
<div class="card {{.Outcome}}">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{with .Confirmation}}<dl>
<dt>Order</dt><dd>{{.OrderID}}</dd>
<dt>Status</dt><dd>{{.Status}}</dd>
<dt>Amount</dt><dd>{{.AmountText}}</dd>
</dl>{{end}}
<a class="button" href="/">Back to store</a>
</div>{{end}}`))

	errorPage = template.Must(template.Must(template.New("error").Parse(pageLayout)).Parse(`{{define "content"}}
<div class="card failure">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{with .Reference}}<p class="ref">Reference: {{.}}</p>{{end}}
<a class="button" href="/">Back to store</a>
</div>{{end}}`))

	checkoutPage = template.Must(template.Must(template.New("checkout").Parse(pageLayout)).Parse(`{{define "content"}}
<div class="card">
<h1>{{.Title}}</h1>
{{with .MerchantName}}<p>Paying {{.}}</p>{{end}}
<div id="embed-target"></div>
<script src="{{.ScriptURL}}" data-error="errorCallback" data-cancel="cancelCallback"></script>
<script>
function errorCallback(error){console.error(JSON.stringify(error));}
function cancelCallback(){window.location.href="/";}
Checkout.configure({session:{id:{{.SessionID}}}});
Checkout.showEmbeddedPage('#embed-target');
</script>
</div>{{end}}`))
)
