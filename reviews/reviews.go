// Package reviews stores customer product reviews. Reviews are hidden until
// an admin approves them.
package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

var ErrAlreadyReviewed = errors.New("you have already reviewed this product")

// ProductLookup confirms a product exists before it can be reviewed.
type ProductLookup interface {
	Lookup(ctx context.Context, id string) (models.Product, error)
}

type Service struct {
	coll     db.Collection[models.Review]
	products ProductLookup
	validate *validator.Validate
	now      func() time.Time
}

func NewService(coll db.Collection[models.Review], products ProductLookup) *Service {
	return &Service{coll: coll, products: products, validate: utils.NewValidator(), now: time.Now}
}

// Approved lists a product's approved reviews, newest first.
func (s *Service) Approved(ctx context.Context, productID string, limit int) db.Result[[]models.Review] {
	return db.Safe(ctx, "reviews.approved", []models.Review{}, func(ctx context.Context) ([]models.Review, error) {
		q := db.Query{OrderBy: "created_at", Desc: true, Limit: limit}.
			Where("product_id", db.OpEqual, productID).
			Where("is_approved", db.OpEqual, true)
		return s.coll.List(ctx, q)
	})
}

func (s *Service) Pending(ctx context.Context, limit int) db.Result[[]models.Review] {
	return db.Safe(ctx, "reviews.pending", []models.Review{}, func(ctx context.Context) ([]models.Review, error) {
		q := db.Query{OrderBy: "created_at", Limit: limit}.Where("is_approved", db.OpEqual, false)
		return s.coll.List(ctx, q)
	})
}

// Average is the mean rating of reviews, rounded to one decimal.
func Average(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1).InexactFloat64()
}

// Create stores an unapproved review. One review per user and product.
func (s *Service) Create(ctx context.Context, rv models.Review) (models.Review, error) {
	rv.Comment = strings.TrimSpace(rv.Comment)
	if err := s.validate.Struct(rv); err != nil {
		return rv, err
	}
	if _, err := s.products.Lookup(ctx, rv.ProductID); err != nil {
		return rv, err
	}
	existing, err := s.coll.List(ctx, db.Query{Limit: 1}.
		Where("product_id", db.OpEqual, rv.ProductID).
		Where("user_id", db.OpEqual, rv.UserID))
	if err != nil {
		return rv, err
	}
	if len(existing) > 0 {
		return rv, ErrAlreadyReviewed
	}

	rv.ID = utils.GetUUID()
	rv.IsApproved = false
	rv.CreatedAt = s.now().UTC()
	return rv, s.coll.Set(ctx, rv.ID, rv)
}

func (s *Service) Approve(ctx context.Context, id string) error {
	return s.coll.Update(ctx, id, map[string]any{"is_approved": true})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.coll.Delete(ctx, id)
}

// List handles GET /api/products/:id/reviews.
func (s *Service) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res := s.Approved(r.Context(), ps.ByName("id"), utils.ParseLimit(r, 20, 100))
	if res.Outcome == db.Failed {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	body := utils.M{"reviews": res.Data, "average": Average(res.Data), "count": len(res.Data)}
	if res.Degraded() {
		w.Header().Set("X-Degraded", res.Reason)
		body["degraded"] = true
		body["reason"] = res.Reason
	}
	utils.RespondWithJSON(w, http.StatusOK, body)
}

// Add handles POST /api/products/:id/reviews.
func (s *Service) Add(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Rating   int    `json:"rating"`
		Title    string `json:"title"`
		Comment  string `json:"comment"`
		UserName string `json:"user_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	created, err := s.Create(r.Context(), models.Review{
		ProductID: ps.ByName("id"),
		UserID:    utils.GetUserIDFromRequest(r),
		UserName:  strings.TrimSpace(req.UserName),
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   req.Comment,
	})
	if err != nil {
		if fe, ok := utils.FirstFieldError(err); ok {
			utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"error": fe.Message, "field": fe.Field})
			return
		}
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"review": created})
}

// PendingHandler handles GET /api/admin/reviews.
func (s *Service) PendingHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithResult(w, "reviews", s.Pending(r.Context(), utils.ParseLimit(r, 50, 200)), "Failed to retrieve reviews")
}

// ApproveHandler handles POST /api/admin/reviews/:id/approve.
func (s *Service) ApproveHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Approve(r.Context(), ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"approved": true})
}

func (s *Service) DeleteHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Delete(r.Context(), ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrAlreadyReviewed):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("Review operation failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Review operation failed")
	}
}
