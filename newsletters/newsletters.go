// Package newsletters records mailing list subscriptions. Sending is done
// elsewhere.
package newsletters

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

var ErrInvalidEmail = errors.New("a valid email address is required")

type Service struct {
	coll db.Collection[models.Newsletter]
	now  func() time.Time
}

func NewService(coll db.Collection[models.Newsletter]) *Service {
	return &Service{coll: coll, now: time.Now}
}

// subscriberID derives the document id from the normalized address so a
// repeat subscription lands on the same document.
func subscriberID(email string) string {
	return utils.StableID("newsletter", email)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe adds email to the list. created is false when the address was
// already subscribed; a lapsed subscription is reactivated.
func (s *Service) Subscribe(ctx context.Context, email string) (sub models.Newsletter, created bool, err error) {
	email = normalize(email)
	if !utils.IsBasicEmail(email) {
		return sub, false, ErrInvalidEmail
	}
	id := subscriberID(email)
	sub, err = s.coll.Get(ctx, id)
	switch {
	case err == nil && sub.IsActive:
		return sub, false, nil
	case err == nil:
		sub.IsActive = true
		sub.SubscribedAt = s.now().UTC()
		return sub, false, s.coll.Set(ctx, id, sub)
	case !errors.Is(err, db.ErrNotFound):
		return sub, false, err
	}
	sub = models.Newsletter{ID: id, Email: email, IsActive: true, SubscribedAt: s.now().UTC()}
	return sub, true, s.coll.Set(ctx, id, sub)
}

func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	err := s.coll.Update(ctx, subscriberID(normalize(email)), map[string]any{"is_active": false})
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) Active(ctx context.Context, limit int) db.Result[[]models.Newsletter] {
	return db.Safe(ctx, "newsletters.active", []models.Newsletter{}, func(ctx context.Context) ([]models.Newsletter, error) {
		q := db.Query{OrderBy: "subscribed_at", Desc: true, Limit: limit}.Where("is_active", db.OpEqual, true)
		return s.coll.List(ctx, q)
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// SubscribeHandler handles POST /api/newsletter.
func (s *Service) SubscribeHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	_, created, err := s.Subscribe(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrInvalidEmail) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).Error("Newsletter subscribe failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondWithJSON(w, status, utils.M{"subscribed": true})
}

// UnsubscribeHandler handles POST /api/newsletter/unsubscribe.
func (s *Service) UnsubscribeHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.Unsubscribe(r.Context(), req.Email); err != nil {
		log.WithError(err).Error("Newsletter unsubscribe failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"subscribed": false})
}

// ListHandler handles GET /api/admin/newsletters.
func (s *Service) ListHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithResult(w, "subscribers", s.Active(r.Context(), utils.ParseLimit(r, 100, 1000)), "Failed to load subscribers")
}
