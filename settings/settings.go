// Package settings holds the single store-wide settings document.
package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const DocumentID = "site"

var ErrInvalidSetting = errors.New("invalid setting")

// Defaults apply until an admin saves the settings document.
func Defaults() models.SiteSettings {
	return models.SiteSettings{
		ID:                    DocumentID,
		StoreName:             "Spirit Hub Cafe",
		ContactEmail:          "info@spirithubcafe.com",
		DefaultCurrency:       models.OMR,
		ShippingFee:           models.Amounts{OMR: 2, USD: 5.2, SAR: 19.5},
		FreeShippingThreshold: models.Amounts{OMR: 20, USD: 52, SAR: 195},
		TaxRate:               0,
	}
}

type Service struct {
	coll db.Collection[models.SiteSettings]
	now  func() time.Time
}

func NewService(coll db.Collection[models.SiteSettings]) *Service {
	return &Service{coll: coll, now: time.Now}
}

// Current returns the saved settings, or Defaults when none are saved or
// the store cannot be read.
func (s *Service) Current(ctx context.Context) db.Result[models.SiteSettings] {
	res := db.Safe(ctx, "settings.get", Defaults(), func(ctx context.Context) (models.SiteSettings, error) {
		return s.coll.Get(ctx, DocumentID)
	})
	if res.Reason == db.ReasonNotFound {
		return db.Result[models.SiteSettings]{Data: Defaults(), Outcome: db.OK}
	}
	return res
}

// Save validates and replaces the settings document.
func (s *Service) Save(ctx context.Context, in models.SiteSettings) (models.SiteSettings, error) {
	if err := validate(in); err != nil {
		return in, err
	}
	in.ID = DocumentID
	in.UpdatedAt = s.now().UTC()
	return in, s.coll.Set(ctx, DocumentID, in)
}

func validate(in models.SiteSettings) error {
	if in.DefaultCurrency != "" && !in.DefaultCurrency.Valid() {
		return errors.Wrap(ErrInvalidSetting, "default_currency must be OMR, USD or SAR")
	}
	if in.TaxRate < 0 || in.TaxRate > 1 {
		return errors.Wrap(ErrInvalidSetting, "tax_rate must be a fraction between 0 and 1")
	}
	for _, c := range models.Currencies {
		if in.ShippingFee.In(c) < 0 || in.FreeShippingThreshold.In(c) < 0 {
			return errors.Wrap(ErrInvalidSetting, "shipping amounts cannot be negative")
		}
	}
	return nil
}

// Get handles GET /api/settings.
func (s *Service) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithResult(w, "settings", s.Current(r.Context()), "Failed to load settings")
}

// Update handles PUT /api/admin/settings. Fields missing from the body keep
// their current values.
func (s *Service) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res := s.Current(r.Context())
	if !res.OK() {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Settings are temporarily unavailable")
		return
	}
	current := res.Data
	if err := json.NewDecoder(r.Body).Decode(&current); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	saved, err := s.Save(r.Context(), current)
	if err != nil {
		if errors.Is(err, ErrInvalidSetting) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).Error("Failed to save settings")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"settings": saved})
}
