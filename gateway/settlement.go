package gateway

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrAmountMismatch means the gateway settled a different amount or currency
// than the order asked for.
var ErrAmountMismatch = errors.New("settled amount does not match order total")

// Settlement is what an inquiry says was actually paid for an order.
type Settlement struct {
	Outcome   string
	Reference string
	Amount    float64
	Currency  string
}

// SettlementOf reads the outcome, the settled amount and the latest
// transaction id out of an inquiry. Captured funds win over authorized ones,
// which win over the order amount.
func SettlementOf(inq *Inquiry) Settlement {
	s := Settlement{Outcome: Outcome(inq)}
	if inq == nil {
		return s
	}
	s.Currency = inq.Currency
	switch {
	case inq.TotalCapturedAmount > 0:
		s.Amount = inq.TotalCapturedAmount
	case inq.TotalAuthorizedAmount > 0:
		s.Amount = inq.TotalAuthorizedAmount
	default:
		s.Amount = inq.Amount
	}
	for i := len(inq.Transactions) - 1; i >= 0; i-- {
		if id := inq.Transactions[i].Transaction.ID; id != "" {
			s.Reference = id
			break
		}
	}
	return s
}

// Covers reports whether the settlement pays exactly total in currency,
// compared at the currency's minor-unit precision.
func (s Settlement) Covers(total float64, currency string) bool {
	if !strings.EqualFold(s.Currency, currency) {
		return false
	}
	places := AmountPlaces(currency)
	return decimal.NewFromFloat(s.Amount).Round(places).Equal(decimal.NewFromFloat(total).Round(places))
}
