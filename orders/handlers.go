package orders

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cart"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

type checkoutRequest struct {
	Currency        string         `json:"currency" validate:"omitempty,oneof=OMR USD SAR"`
	ShippingAddress models.Address `json:"shipping_address" validate:"required"`
	CustomerEmail   string         `json:"customer_email" validate:"required,basic_email"`
	CustomerPhone   string         `json:"customer_phone"`
	Notes           string         `json:"notes" validate:"max=1000"`
	PaymentMethod   string         `json:"payment_method" validate:"omitempty,oneof=bank_muscat cash_on_delivery"`
}

type Handlers struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc, validate: utils.NewValidator()}
}

// Checkout handles POST /api/orders.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := h.validate.Struct(req); err != nil {
		fe, _ := utils.FirstFieldError(err)
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"error": fe.Message, "field": fe.Field})
		return
	}

	order, items, err := h.svc.Checkout(r.Context(), utils.GetUserIDFromRequest(r), CheckoutInput{
		Currency:        models.Currency(req.Currency),
		ShippingAddress: req.ShippingAddress,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.WithError(err).Error("Checkout failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"order": order, "items": items})
}

// Mine handles GET /api/orders.
func (h *Handlers) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res := h.svc.ForUser(r.Context(), utils.GetUserIDFromRequest(r), utils.ParseLimit(r, 20, 100))
	utils.RespondWithResult(w, "orders", res, "Failed to load orders")
}

// Show handles GET /api/orders/:id. Admins may read any order.
func (h *Handlers) Show(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	var (
		order models.Order
		err   error
	)
	if utils.HasRole(r, "admin") {
		order, err = h.svc.Get(r.Context(), id)
	} else {
		order, err = h.svc.Owned(r.Context(), utils.GetUserIDFromRequest(r), id)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	items, err := h.svc.Items(r.Context(), order.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"order": order, "items": items})
}

// List handles GET /api/admin/orders?status=.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	res := h.svc.All(r.Context(), status, utils.ParseLimit(r, 50, 500))
	utils.RespondWithResult(w, "orders", res, "Failed to load orders")
}

// UpdateStatus handles PATCH /api/admin/orders/:id.
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Status        models.OrderStatus   `json:"status"`
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	order, err := h.svc.SetStatus(r.Context(), ps.ByName("id"), req.Status, req.PaymentStatus)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"order": order})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrInvalidStatus):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("Order operation failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Order operation failed")
	}
}
