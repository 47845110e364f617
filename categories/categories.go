// Package categories manages the catalog's category tree (one level).
package categories

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

var ErrInvalidCategory = errors.New("invalid category")

type Service struct {
	coll db.Collection[models.Category]
	now  func() time.Time
}

func NewService(coll db.Collection[models.Category]) *Service {
	return &Service{coll: coll, now: time.Now}
}

// Active lists visible categories by sort_order.
func (s *Service) Active(ctx context.Context) db.Result[[]models.Category] {
	return db.Safe(ctx, "categories.active", []models.Category{}, func(ctx context.Context) ([]models.Category, error) {
		q := db.Query{OrderBy: "sort_order"}.Where("is_active", db.OpEqual, true)
		return s.coll.List(ctx, q)
	})
}

func (s *Service) All(ctx context.Context) db.Result[[]models.Category] {
	return db.Safe(ctx, "categories.all", []models.Category{}, func(ctx context.Context) ([]models.Category, error) {
		return s.coll.List(ctx, db.Query{OrderBy: "sort_order"})
	})
}

func (s *Service) Get(ctx context.Context, id string) db.Result[models.Category] {
	return db.Safe(ctx, "categories.get", models.Category{}, func(ctx context.Context) (models.Category, error) {
		return s.coll.Get(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, c models.Category) (models.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, errors.Wrap(ErrInvalidCategory, "name is required")
	}
	now := s.now().UTC()
	c.ID = utils.GetUUID()
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, s.coll.Set(ctx, c.ID, c)
}

// Replace overwrites id with c, keeping id and creation time.
func (s *Service) Replace(ctx context.Context, id string, c models.Category) (models.Category, error) {
	existing, err := s.coll.Get(ctx, id)
	if err != nil {
		return c, err
	}
	if strings.TrimSpace(c.Name) == "" {
		return c, errors.Wrap(ErrInvalidCategory, "name is required")
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().UTC()
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	return c, s.coll.Set(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.coll.Delete(ctx, id)
}

// List handles GET /api/categories. Admins see inactive ones too.
func (s *Service) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if utils.HasRole(r, "admin") {
		utils.RespondWithResult(w, "categories", s.All(r.Context()), "Failed to load categories")
		return
	}
	utils.RespondWithResult(w, "categories", s.Active(r.Context()), "Failed to load categories")
}

func (s *Service) Show(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	utils.RespondWithResult(w, "category", s.Get(r.Context(), ps.ByName("id")), "Failed to load category")
}

func (s *Service) CreateHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	created, err := s.Create(r.Context(), c)
	if err != nil {
		respondWriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"category": created})
}

func (s *Service) UpdateHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, err := s.coll.Get(r.Context(), id)
	if err != nil {
		respondWriteError(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&existing); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	saved, err := s.Replace(r.Context(), id, existing)
	if err != nil {
		respondWriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"category": saved})
}

func (s *Service) DeleteHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Delete(r.Context(), ps.ByName("id")); err != nil {
		respondWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, ErrInvalidCategory):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("Category write failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save category")
	}
}
