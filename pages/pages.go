// Package pages serves editable storefront content. Pages are stored under
// their slug.
package pages

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const HomepageSlug = "homepage"

var (
	ErrInvalidSlug = errors.New("slug may only contain lowercase letters, digits and dashes")
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

type Service struct {
	coll db.Collection[models.Page]
	now  func() time.Time
}

func NewService(coll db.Collection[models.Page]) *Service {
	return &Service{coll: coll, now: time.Now}
}

// Published returns the page at slug, treating an unpublished page as
// missing.
func (s *Service) Published(ctx context.Context, slug string) db.Result[models.Page] {
	return db.Safe(ctx, "pages.get", models.Page{}, func(ctx context.Context) (models.Page, error) {
		p, err := s.coll.Get(ctx, slug)
		if err != nil {
			return p, err
		}
		if !p.IsPublished {
			return models.Page{}, db.ErrNotFound
		}
		return p, nil
	})
}

// Upsert stores p under slug, replacing any existing page.
func (s *Service) Upsert(ctx context.Context, slug string, p models.Page) (models.Page, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return p, ErrInvalidSlug
	}
	p.ID = slug
	p.Slug = slug
	p.UpdatedAt = s.now().UTC()
	return p, s.coll.Set(ctx, slug, p)
}

func (s *Service) Delete(ctx context.Context, slug string) error {
	return s.coll.Delete(ctx, slug)
}

// Get handles GET /api/pages/:slug. Admins can preview unpublished pages.
func (s *Service) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")
	if utils.HasRole(r, "admin") {
		res := db.Safe(r.Context(), "pages.preview", models.Page{}, func(ctx context.Context) (models.Page, error) {
			return s.coll.Get(ctx, slug)
		})
		utils.RespondWithResult(w, "page", res, "Failed to load page")
		return
	}
	utils.RespondWithResult(w, "page", s.Published(r.Context(), slug), "Failed to load page")
}

// Put handles PUT /api/admin/pages/:slug.
func (s *Service) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p models.Page
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	saved, err := s.Upsert(r.Context(), ps.ByName("slug"), p)
	if err != nil {
		if errors.Is(err, ErrInvalidSlug) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).WithField("slug", ps.ByName("slug")).Error("Failed to save page")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save page")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"page": saved})
}

func (s *Service) DeleteHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Delete(r.Context(), ps.ByName("slug")); err != nil {
		log.WithError(err).Error("Failed to delete page")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
