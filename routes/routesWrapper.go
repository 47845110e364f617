// Package routes maps URLs onto the feature handlers.
package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cart"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/categories"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/home"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/middleware"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/newsletters"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/orders"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pages"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pay"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/products"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/ratelim"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/reviews"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/settings"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/users"
)

// Services is everything the router dispatches to.
type Services struct {
	Auth           *middleware.Auth
	PaymentLimiter *ratelim.RateLimiter
	Idempotency    pay.IdempotencyStore

	Pay         *pay.Service
	Products    *products.Handlers
	Categories  *categories.Service
	Cart        *cart.Service
	Orders      *orders.Handlers
	Pages       *pages.Service
	Settings    *settings.Service
	Reviews     *reviews.Service
	Users       *users.Service
	Newsletters *newsletters.Service
	Home        *home.Service

	StaticDir string
}

func (s Services) admin(h httprouter.Handle) httprouter.Handle {
	return middleware.Chain(s.Auth.Authenticate, middleware.RequireRoles(users.RoleAdmin))(h)
}

// New builds the router with every route registered.
func New(s Services) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	AddPayRoutes(router, s)
	AddCatalogRoutes(router, s)
	AddContentRoutes(router, s)
	AddCustomerRoutes(router, s)
	AddStaticRoutes(router, s.StaticDir)
	return router
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("200"))
}

func AddStaticRoutes(router *httprouter.Router, dir string) {
	router.ServeFiles("/static/*filepath", http.Dir(dir))
}
