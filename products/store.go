// Package products serves the coffee catalog. Reads go through a cache so
// that a store running out of read quota can still answer from the last
// values it saw.
package products

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cache"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const (
	listKeyPrefix = "products:list:"
	itemKeyPrefix = "products:id:"
)

var ErrInvalidProduct = errors.New("invalid product")

// Filter narrows a product listing. Nil flags are not filtered on.
type Filter struct {
	CategoryID string `json:"category_id,omitempty"`
	Featured   *bool  `json:"featured,omitempty"`
	Bestseller *bool  `json:"bestseller,omitempty"`
	OnSale     *bool  `json:"on_sale,omitempty"`
	Active     *bool  `json:"active,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

func (f Filter) query() db.Query {
	q := db.Query{OrderBy: "sort_order", Limit: f.Limit}
	if f.CategoryID != "" {
		q = q.Where("category_id", db.OpEqual, f.CategoryID)
	}
	if f.Featured != nil {
		q = q.Where("is_featured", db.OpEqual, *f.Featured)
	}
	if f.Bestseller != nil {
		q = q.Where("is_bestseller", db.OpEqual, *f.Bestseller)
	}
	if f.OnSale != nil {
		q = q.Where("is_on_sale", db.OpEqual, *f.OnSale)
	}
	if f.Active != nil {
		q = q.Where("is_active", db.OpEqual, *f.Active)
	}
	return q
}

// cacheKey is the filter serialized as JSON, so equal filters share an entry.
func (f Filter) cacheKey() string {
	raw, _ := json.Marshal(f)
	return listKeyPrefix + string(raw)
}

type Store struct {
	coll    db.Collection[models.Product]
	lists   cache.Cache[[]models.Product]
	items   cache.Cache[models.Product]
	listTTL time.Duration
	itemTTL time.Duration
	now     func() time.Time
}

func NewStore(coll db.Collection[models.Product], lists cache.Cache[[]models.Product], items cache.Cache[models.Product], listTTL, itemTTL time.Duration) *Store {
	return &Store{
		coll:    coll,
		lists:   lists,
		items:   items,
		listTTL: listTTL,
		itemTTL: itemTTL,
		now:     time.Now,
	}
}

// List returns products matching f, from cache when fresh. When the store
// is out of quota the last cached listing is served as a degraded result.
func (s *Store) List(ctx context.Context, f Filter) db.Result[[]models.Product] {
	key := f.cacheKey()
	if cached, ok := s.lists.Get(key); ok {
		return db.Result[[]models.Product]{Data: cached, Outcome: db.OK}
	}

	res := db.Safe(ctx, "products.list", []models.Product{}, func(ctx context.Context) ([]models.Product, error) {
		return s.coll.List(ctx, f.query())
	})
	if res.OK() {
		if res.Data == nil {
			res.Data = []models.Product{}
		}
		s.lists.Set(key, res.Data, s.listTTL)
		return res
	}
	if res.Reason == db.ReasonQuota {
		if stale, ok := s.lists.GetStale(key); ok {
			log.WithField("key", key).Warn("Serving stale product list")
			res.Data = stale
		}
	}
	return res
}

// Get returns one product by id with the same cache and stale fallback as
// List.
func (s *Store) Get(ctx context.Context, id string) db.Result[models.Product] {
	key := itemKeyPrefix + id
	if cached, ok := s.items.Get(key); ok {
		return db.Result[models.Product]{Data: cached, Outcome: db.OK}
	}

	res := db.Safe(ctx, "products.get", models.Product{}, func(ctx context.Context) (models.Product, error) {
		return s.coll.Get(ctx, id)
	})
	if res.OK() {
		s.items.Set(key, res.Data, s.itemTTL)
		return res
	}
	if res.Reason == db.ReasonQuota {
		if stale, ok := s.items.GetStale(key); ok {
			log.WithField("product_id", id).Warn("Serving stale product")
			res.Data = stale
		}
	}
	return res
}

// GetBySlug looks a product up by slug. Not cached; slugs are only used on
// first landing.
func (s *Store) GetBySlug(ctx context.Context, slug string) db.Result[models.Product] {
	return db.Safe(ctx, "products.get_by_slug", models.Product{}, func(ctx context.Context) (models.Product, error) {
		found, err := s.coll.List(ctx, db.Query{Limit: 1}.Where("slug", db.OpEqual, slug))
		if err != nil {
			return models.Product{}, err
		}
		if len(found) == 0 {
			return models.Product{}, db.ErrNotFound
		}
		return found[0], nil
	})
}

// Lookup reads a product without the degraded-result wrapping, for callers
// that must fail rather than act on stale or missing data.
func (s *Store) Lookup(ctx context.Context, id string) (models.Product, error) {
	res := s.Get(ctx, id)
	if res.OK() {
		return res.Data, nil
	}
	if res.Err != nil {
		return models.Product{}, res.Err
	}
	return models.Product{}, db.ErrNotFound
}

func (s *Store) Create(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, errors.Wrap(ErrInvalidProduct, "name is required")
	}
	if p.Price < 0 || p.PriceUSD < 0 || p.PriceSAR < 0 {
		return p, errors.Wrap(ErrInvalidProduct, "prices cannot be negative")
	}
	now := s.now().UTC()
	p.ID = utils.GetUUID()
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.coll.Set(ctx, p.ID, p); err != nil {
		return p, err
	}
	s.invalidate(p.ID)
	return p, nil
}

// Save replaces an existing product, keeping its id and creation time.
func (s *Store) Save(ctx context.Context, id string, p models.Product) (models.Product, error) {
	existing, err := s.coll.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return p, errors.Wrap(ErrInvalidProduct, "name is required")
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	if err := s.coll.Set(ctx, id, p); err != nil {
		return p, err
	}
	s.invalidate(id)
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = s.now().UTC()
	if err := s.coll.Update(ctx, id, fields); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.coll.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *Store) invalidate(id string) {
	s.items.Delete(itemKeyPrefix + id)
	s.lists.DeletePrefix(listKeyPrefix)
}
