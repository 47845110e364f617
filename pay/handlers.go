package pay

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"

	maxWebhookBody = 1 << 20
)

type createPaymentRequest struct {
	Amount        *float64          `json:"amount" validate:"required,gt=0"`
	Currency      string            `json:"currency" validate:"omitempty,oneof=OMR USD SAR"`
	OrderID       string            `json:"orderId" validate:"required"`
	CustomerEmail string            `json:"customerEmail" validate:"omitempty,basic_email"`
	CustomerPhone string            `json:"customerPhone"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata"`
	SuccessURL    string            `json:"successUrl" validate:"omitempty,url"`
	FailureURL    string            `json:"failureUrl" validate:"omitempty,url"`
	CancelURL     string            `json:"cancelUrl" validate:"omitempty,url"`
}

type errorBody struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	ValidationType string `json:"validationType,omitempty"`
	Details        any    `json:"details,omitempty"`
}

func respondFailure(w http.ResponseWriter, status int, body errorBody) {
	utils.RespondWithJSON(w, status, utils.M{"success": false, "error": body})
}

// CreatePayment opens a gateway order and checkout session for orderId.
func (s *Service) CreatePayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, errorBody{Code: CodeValidation, Message: "Invalid JSON body"})
		return
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)

	if err := s.validate.Struct(req); err != nil {
		fe, _ := utils.FirstFieldError(err)
		respondFailure(w, http.StatusBadRequest, errorBody{Code: CodeValidation, Message: fe.Message, Field: fe.Field})
		return
	}

	result, err := s.gw.CreatePayment(r.Context(), gateway.PaymentRequest{
		OrderID:       req.OrderID,
		Amount:        *req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		SuccessURL:    req.SuccessURL,
		FailureURL:    req.FailureURL,
		CancelURL:     req.CancelURL,
		Metadata:      req.Metadata,
	})
	if err != nil {
		if pe, ok := gateway.AsPaymentError(err); ok {
			respondFailure(w, http.StatusBadRequest, errorBody{
				Code:           pe.Code,
				Message:        pe.Message,
				Field:          pe.Field,
				ValidationType: pe.ValidationType,
				Details:        pe.Details,
			})
			return
		}
		log.WithError(err).WithField("order_id", req.OrderID).Error("Payment creation failed")
		respondFailure(w, http.StatusInternalServerError, errorBody{Code: CodeInternal, Message: "Payment could not be created"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": result})
}

// webhookOrderID reads the order id from either the flat notification
// shape or the gateway's nested order object.
func webhookOrderID(body map[string]any) string {
	if id, ok := body["orderId"].(string); ok && id != "" {
		return id
	}
	if order, ok := body["order"].(map[string]any); ok {
		if id, ok := order["id"].(string); ok {
			return id
		}
	}
	return ""
}

func signatureHeader(r *http.Request) string {
	if sig := r.Header.Get("X-Signature"); sig != "" {
		return sig
	}
	return r.Header.Get("Signature")
}

// Webhook records a gateway notification and hands it to the processor.
// Once the body is accepted the answer is always 200 so the gateway does
// not redeliver; settlement happens asynchronously from the journal.
func (s *Service) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "could not read body")
		return
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	orderID := webhookOrderID(body)
	if orderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	logger := log.WithField("order_id", orderID)

	signature := signatureHeader(r)
	signatureValid := true
	if signature != "" {
		signatureValid = s.gw.ValidateWebhookSignature(payload, signature)
	}
	if !signatureValid {
		logger.Warn("Webhook rejected: invalid signature")
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid signature")
		return
	}
	if secret := r.Header.Get("X-Notification-Secret"); secret != "" && !s.gw.ValidateNotificationSecret(secret) {
		logger.Warn("Webhook rejected: invalid notification secret")
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid notification secret")
		return
	}

	ev := models.WebhookEvent{
		ID:               utils.GetUUID(),
		OrderID:          orderID,
		Payload:          string(payload),
		SignaturePresent: signature != "",
		SignatureValid:   signatureValid,
		ReceivedAt:       time.Now().UTC(),
	}
	logger = logger.WithField("event_id", ev.ID)

	journaled := true
	if err := s.journal.Append(r.Context(), ev); err != nil {
		journaled = false
		logger.WithError(err).Error("Could not journal webhook event")
	}

	if s.processor != nil {
		eventID := ev.ID
		if !journaled {
			eventID = ""
		}
		s.processor.Submit(eventID, orderID)
	}

	logger.Info("Webhook accepted")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "received": true})
}
