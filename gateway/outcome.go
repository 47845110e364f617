package gateway

import "strings"

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
	OutcomePending = "PENDING"
	OutcomeUnknown = "UNKNOWN"
)

var statusOutcomes = map[string]string{
	"CAPTURED":                 OutcomeSuccess,
	"PURCHASED":                OutcomeSuccess,
	"AUTHORIZED":               OutcomeSuccess,
	"PARTIALLY_CAPTURED":       OutcomeSuccess,
	"VERIFIED":                 OutcomeSuccess,
	"FAILED":                   OutcomeFailure,
	"DECLINED":                 OutcomeFailure,
	"CANCELLED":                OutcomeFailure,
	"EXPIRED":                  OutcomeFailure,
	"AUTHENTICATION_FAILED":    OutcomeFailure,
	"INITIATED":                OutcomePending,
	"AUTHENTICATION_INITIATED": OutcomePending,
	"AUTHENTICATED":            OutcomePending,
	"FUNDING":                  OutcomePending,
	"PENDING":                  OutcomePending,
}

// Outcome collapses the gateway order status into SUCCESS, FAILURE, PENDING
// or UNKNOWN.
func Outcome(inq *Inquiry) string {
	if inq == nil {
		return OutcomeUnknown
	}
	if o, ok := statusOutcomes[strings.ToUpper(inq.Status)]; ok {
		return o
	}
	switch strings.ToUpper(inq.Result) {
	case "FAILURE", "ERROR":
		return OutcomeFailure
	case "PENDING":
		return OutcomePending
	}
	return OutcomeUnknown
}

var outcomeMessages = map[string]string{
	OutcomeSuccess: "Your payment was completed successfully. Thank you for your order!",
	OutcomeFailure: "Your payment could not be completed. No charge was made; please try again.",
	OutcomePending: "Your payment is being processed. We will update your order shortly.",
}

// StatusMessage is the customer-facing text for an outcome.
func StatusMessage(outcome string) string {
	if msg, ok := outcomeMessages[strings.ToUpper(outcome)]; ok {
		return msg
	}
	return "We could not determine the status of your payment. Please contact support."
}
