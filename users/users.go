// Package users keeps storefront profiles. Identity and credentials belong
// to the token issuer; a profile is created on first access.
package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var ErrInvalidRole = errors.New("role must be customer or admin")

type Service struct {
	coll     db.Collection[models.User]
	validate *validator.Validate
	now      func() time.Time
}

func NewService(coll db.Collection[models.User]) *Service {
	return &Service{coll: coll, validate: utils.NewValidator(), now: time.Now}
}

// Profile returns userID's profile, creating an empty customer profile the
// first time.
func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	u, err := s.coll.Get(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return u, err
	}
	now := s.now().UTC()
	u = models.User{ID: userID, Role: RoleCustomer, CreatedAt: now, UpdatedAt: now}
	if err := s.coll.Set(ctx, userID, u); err != nil {
		return u, err
	}
	log.WithField("user_id", userID).Info("Created profile")
	return u, nil
}

// ProfileUpdate lists the fields a user may change on their own profile.
type ProfileUpdate struct {
	Email    *string         `json:"email" validate:"omitempty,basic_email"`
	FullName *string         `json:"full_name" validate:"omitempty,max=120"`
	Phone    *string         `json:"phone" validate:"omitempty,max=32"`
	Address  *models.Address `json:"address"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (models.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return u, err
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	u.UpdatedAt = s.now().UTC()
	return u, s.coll.Set(ctx, userID, u)
}

func (s *Service) SetRole(ctx context.Context, userID, role string) error {
	if role != RoleCustomer && role != RoleAdmin {
		return ErrInvalidRole
	}
	return s.coll.Update(ctx, userID, map[string]any{"role": role, "updated_at": s.now().UTC()})
}

func (s *Service) List(ctx context.Context, limit int) db.Result[[]models.User] {
	return db.Safe(ctx, "users.list", []models.User{}, func(ctx context.Context) ([]models.User, error) {
		return s.coll.List(ctx, db.Query{OrderBy: "created_at", Desc: true, Limit: limit})
	})
}

// Me handles GET /api/me.
func (s *Service) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.Profile(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		log.WithError(err).Error("Failed to load profile")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": u})
}

// UpdateMe handles PATCH /api/me.
func (s *Service) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	u, err := s.UpdateProfile(r.Context(), utils.GetUserIDFromRequest(r), in)
	if err != nil {
		if fe, ok := utils.FirstFieldError(err); ok {
			utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"error": fe.Message, "field": fe.Field})
			return
		}
		log.WithError(err).Error("Failed to update profile")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": u})
}

// ListHandler handles GET /api/admin/users.
func (s *Service) ListHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithResult(w, "users", s.List(r.Context(), utils.ParseLimit(r, 50, 500)), "Failed to load users")
}

// SetRoleHandler handles PUT /api/admin/users/:id/role.
func (s *Service) SetRoleHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	err := s.SetRole(r.Context(), ps.ByName("id"), req.Role)
	switch {
	case err == nil:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"role": req.Role})
	case errors.Is(err, ErrInvalidRole):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
	default:
		log.WithError(err).Error("Failed to set role")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to set role")
	}
}
