package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

type addRequest struct {
	ProductID string `json:"product_id"`
	OptionID  string `json:"option_id"`
	Quantity  int    `json:"quantity"`
}

// Get handles GET /api/cart?currency=.
func (s *Service) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	currency := models.Currency(strings.ToUpper(r.URL.Query().Get("currency")))
	sum, err := s.Summary(r.Context(), userID, currency)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sum)
}

// AddHandler handles POST /api/cart. Quantity defaults to 1.
func (s *Service) AddHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := s.Add(r.Context(), utils.GetUserIDFromRequest(r), req.ProductID, req.OptionID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"item": item})
}

// UpdateHandler handles PATCH /api/cart/:id with {"quantity": n}.
func (s *Service) UpdateHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	item, err := s.SetQuantity(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"), req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"item": item})
}

func (s *Service) RemoveHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Remove(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) ClearHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.Clear(r.Context(), utils.GetUserIDFromRequest(r)); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnknownOption):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductUnavailable):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Cart item not found")
	default:
		log.WithError(err).Error("Cart operation failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Cart operation failed")
	}
}
