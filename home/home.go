// Package home assembles the storefront landing page from the catalog and
// the editable homepage content.
package home

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/categories"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pages"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/products"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const sectionLimit = 8

type section func(ctx context.Context) (any, bool, string)

// fromResult adapts a guarded read to a section; Failed reads report
// degraded with their reason so one section cannot sink the page.
func fromResult[T any](res db.Result[T]) (any, bool, string) {
	return res.Data, !res.OK(), res.Reason
}

type Service struct {
	sections map[string]section
	order    []string
}

func NewService(catalog *products.Store, cats *categories.Service, content *pages.Service) *Service {
	yes := true
	s := &Service{
		order: []string{"page", "categories", "featured", "bestsellers", "on_sale"},
	}
	s.sections = map[string]section{
		"page": func(ctx context.Context) (any, bool, string) {
			res := content.Published(ctx, pages.HomepageSlug)
			if res.Reason == db.ReasonNotFound {
				return nil, false, ""
			}
			return fromResult(res)
		},
		"categories": func(ctx context.Context) (any, bool, string) {
			return fromResult(cats.Active(ctx))
		},
		"featured": func(ctx context.Context) (any, bool, string) {
			return fromResult(catalog.List(ctx, products.Filter{Featured: &yes, Active: &yes, Limit: sectionLimit}))
		},
		"bestsellers": func(ctx context.Context) (any, bool, string) {
			return fromResult(catalog.List(ctx, products.Filter{Bestseller: &yes, Active: &yes, Limit: sectionLimit}))
		},
		"on_sale": func(ctx context.Context) (any, bool, string) {
			return fromResult(catalog.List(ctx, products.Filter{OnSale: &yes, Active: &yes, Limit: sectionLimit}))
		},
	}
	return s
}

// Sections builds every section. degraded lists the ones served from
// fallback data with their reasons.
func (s *Service) Sections(ctx context.Context) (map[string]any, map[string]string) {
	out := make(map[string]any, len(s.order))
	degraded := map[string]string{}
	for _, name := range s.order {
		data, bad, reason := s.sections[name](ctx)
		out[name] = data
		if bad {
			degraded[name] = reason
		}
	}
	return out, degraded
}

// GetHomeContent handles GET /api/home.
func (s *Service) GetHomeContent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	out, degraded := s.Sections(r.Context())
	body := utils.M{"sections": out}
	if len(degraded) > 0 {
		log.WithField("sections", degraded).Warn("Homepage served with degraded sections")
		body["degraded"] = degraded
	} else {
		w.Header().Set("Cache-Control", "public, max-age=60")
	}
	utils.RespondWithJSON(w, http.StatusOK, body)
}

// GetSection handles GET /api/home/:section.
func (s *Service) GetSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := strings.ToLower(ps.ByName("section"))
	fn, ok := s.sections[name]
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Unknown section")
		return
	}
	data, bad, reason := fn(r.Context())
	if !bad {
		w.Header().Set("Cache-Control", "public, max-age=60")
	}
	utils.RespondWithData(w, name, data, bad, reason)
}
