package routes

import (
	"github.com/julienschmidt/httprouter"
)

func AddCatalogRoutes(router *httprouter.Router, s Services) {
	router.GET("/api/products", s.Auth.OptionalAuth(s.Products.List))
	router.GET("/api/products/:id", s.Auth.OptionalAuth(s.Products.Get))
	router.GET("/api/products/:id/price", s.Auth.OptionalAuth(s.Products.Price))
	router.GET("/api/products/:id/reviews", s.Reviews.List)
	router.POST("/api/products/:id/reviews", s.Auth.Authenticate(s.Reviews.Add))

	router.POST("/api/admin/products", s.admin(s.Products.Create))
	router.PUT("/api/admin/products/:id", s.admin(s.Products.Update))
	router.DELETE("/api/admin/products/:id", s.admin(s.Products.Delete))
	router.POST("/api/admin/products/:id/image", s.admin(s.Products.UploadImage))

	router.GET("/api/categories", s.Auth.OptionalAuth(s.Categories.List))
	router.GET("/api/categories/:id", s.Categories.Show)
	router.POST("/api/admin/categories", s.admin(s.Categories.CreateHandler))
	router.PUT("/api/admin/categories/:id", s.admin(s.Categories.UpdateHandler))
	router.DELETE("/api/admin/categories/:id", s.admin(s.Categories.DeleteHandler))

	router.GET("/api/admin/reviews", s.admin(s.Reviews.PendingHandler))
	router.POST("/api/admin/reviews/:id/approve", s.admin(s.Reviews.ApproveHandler))
	router.DELETE("/api/admin/reviews/:id", s.admin(s.Reviews.DeleteHandler))
}

func AddContentRoutes(router *httprouter.Router, s Services) {
	router.GET("/api/home", s.Home.GetHomeContent)
	router.GET("/api/home/:section", s.Home.GetSection)

	router.GET("/api/pages/:slug", s.Auth.OptionalAuth(s.Pages.Get))
	router.PUT("/api/admin/pages/:slug", s.admin(s.Pages.Put))
	router.DELETE("/api/admin/pages/:slug", s.admin(s.Pages.DeleteHandler))

	router.GET("/api/settings", s.Settings.Get)
	router.PUT("/api/admin/settings", s.admin(s.Settings.Update))

	router.POST("/api/newsletter", s.Newsletters.SubscribeHandler)
	router.POST("/api/newsletter/unsubscribe", s.Newsletters.UnsubscribeHandler)
	router.GET("/api/admin/newsletters", s.admin(s.Newsletters.ListHandler))
}

func AddCustomerRoutes(router *httprouter.Router, s Services) {
	auth := s.Auth.Authenticate

	router.GET("/api/cart", auth(s.Cart.Get))
	router.POST("/api/cart", auth(s.Cart.AddHandler))
	router.PATCH("/api/cart/:id", auth(s.Cart.UpdateHandler))
	router.DELETE("/api/cart/:id", auth(s.Cart.RemoveHandler))
	router.DELETE("/api/cart", auth(s.Cart.ClearHandler))

	router.POST("/api/orders", auth(s.Orders.Checkout))
	router.GET("/api/orders", auth(s.Orders.Mine))
	router.GET("/api/orders/:id", auth(s.Orders.Show))
	router.GET("/api/admin/orders", s.admin(s.Orders.List))
	router.PATCH("/api/admin/orders/:id", s.admin(s.Orders.UpdateStatus))

	router.GET("/api/me", auth(s.Users.Me))
	router.PATCH("/api/me", auth(s.Users.UpdateMe))
	router.GET("/api/admin/users", s.admin(s.Users.ListHandler))
	router.PUT("/api/admin/users/:id/role", s.admin(s.Users.SetRoleHandler))
}
