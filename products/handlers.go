package products

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/filemgr"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pricing"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

type Handlers struct {
	store  *Store
	images *filemgr.Store
	now    func() time.Time
}

func NewHandlers(store *Store, images *filemgr.Store) *Handlers {
	return &Handlers{store: store, images: images, now: time.Now}
}

// List handles GET /api/products.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	f := Filter{
		CategoryID: q.Get("category"),
		Featured:   utils.ParseBool(r, "featured"),
		Bestseller: utils.ParseBool(r, "bestseller"),
		OnSale:     utils.ParseBool(r, "on_sale"),
		Active:     utils.ParseBool(r, "active"),
		Limit:      utils.ParseLimit(r, 50, 200),
	}
	if !utils.HasRole(r, "admin") {
		active := true
		f.Active = &active
	}
	utils.RespondWithResult(w, "products", h.store.List(r.Context(), f), "Failed to load products")
}

// Get handles GET /api/products/:id, where id may also be a slug.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("id")
	res := h.store.Get(r.Context(), key)
	if res.Reason == db.ReasonNotFound {
		res = h.store.GetBySlug(r.Context(), key)
	}
	utils.RespondWithResult(w, "product", visible(r, res), "Failed to load product")
}

// visible hides inactive products from everyone but admins, the same way
// List does.
func visible(r *http.Request, res db.Result[models.Product]) db.Result[models.Product] {
	if res.Data.ID != "" && !res.Data.IsActive && !utils.HasRole(r, "admin") {
		return db.Result[models.Product]{Outcome: db.Degraded, Reason: db.ReasonNotFound}
	}
	return res
}

// Price handles GET /api/products/:id/price?option=&currency=. Without a
// currency every supported currency is returned.
func (h *Handlers) Price(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res := visible(r, h.store.Get(r.Context(), ps.ByName("id")))
	if !res.OK() {
		utils.RespondWithResult(w, "price", res, "Failed to load product")
		return
	}

	option := r.URL.Query().Get("option")
	now := h.now()
	raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if raw == "" {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"prices": pricing.ResolveAll(res.Data, option, now)})
		return
	}
	currency := models.Currency(raw)
	if !currency.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported currency")
		return
	}
	price := pricing.Resolve(res.Data, option, currency, now)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"price": price, "discount": price.Discount()})
}

// Create handles POST /api/admin/products.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	created, err := h.store.Create(r.Context(), p)
	if err != nil {
		h.respondWriteError(w, err, "create")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"product": created})
}

// Update handles PUT /api/admin/products/:id. The body is decoded over the
// stored product so omitted fields keep their values.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, err := h.store.coll.Get(r.Context(), id)
	if err != nil {
		h.respondWriteError(w, err, "update")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&existing); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	saved, err := h.store.Save(r.Context(), id, existing)
	if err != nil {
		h.respondWriteError(w, err, "update")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"product": saved})
}

// Delete handles DELETE /api/admin/products/:id.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.store.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.respondWriteError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /api/admin/products/:id/image with a multipart
// "image" field. The first upload becomes the main image; later ones are
// appended to the gallery.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	product, err := h.store.coll.Get(r.Context(), id)
	if err != nil {
		h.respondWriteError(w, err, "upload image")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxSize+1<<20)
	if err := r.ParseMultipartForm(h.images.MaxSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing image file")
		return
	}

	saved, err := h.images.SaveUpload(file, header, "products")
	if err != nil {
		switch errors.Cause(err) {
		case filemgr.ErrInvalidExtension, filemgr.ErrInvalidMIME, filemgr.ErrNotAnImage:
			utils.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		case filemgr.ErrFileTooLarge:
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
		default:
			log.WithError(err).WithField("product_id", id).Error("Image upload failed")
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store image")
		}
		return
	}

	url := "/static/" + saved.Original
	fields := map[string]any{"images": append(product.Images, url)}
	if product.Image == "" {
		fields["image"] = url
	}
	if err := h.store.Update(r.Context(), id, fields); err != nil {
		h.respondWriteError(w, err, "upload image")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"image": url,
		"thumb": "/static/" + saved.Thumb,
	})
}

func (h *Handlers) respondWriteError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrInvalidProduct):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).WithField("operation", op).Error("Product write failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to "+op+" product")
	}
}
