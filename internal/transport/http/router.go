// Package http wires the handler structs onto the echo router.
package http

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/handlers/admin"
	carthandlers "github.com/Skotchmaster/storefront/internal/handlers/cart"
	orderhandlers "github.com/Skotchmaster/storefront/internal/handlers/order"
	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/order"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

// Deps carries everything the handlers need. Optional members (ES) may be
// nil; the handlers degrade accordingly.
type Deps struct {
	DB        *gorm.DB
	Sessions  session.Store
	Producer  *mykafka.Producer
	Store     storage.Store
	ES        *elasticsearch.Client
	ESIndex   string
	JWTSecret []byte
	BaseURL   string
}

func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := &handlers.AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Producer: d.Producer}
	catalog := &handlers.CatalogHandler{DB: d.DB, ES: d.ES, Index: d.ESIndex, BaseURL: d.BaseURL}
	review := &handlers.ReviewHandler{DB: d.DB, Store: d.Store, Producer: d.Producer}
	cart := &carthandlers.CartHandler{DB: d.DB, Sessions: d.Sessions, Producer: d.Producer, BaseURL: d.BaseURL}
	checkout := &orderhandlers.OrderHandler{Svc: &order.Service{DB: d.DB}, Producer: d.Producer}
	brands := &admin.BrandHandler{DB: d.DB}
	categories := &admin.CategoryHandler{DB: d.DB, Store: d.Store}
	products := &admin.ProductHandler{DB: d.DB, Store: d.Store, Producer: d.Producer}

	api := e.Group("/api/v1", middleware.Resolve(d.JWTSecret))

	api.POST("/register", auth.Register)
	api.POST("/login", auth.Login)
	api.POST("/logout", auth.LogOut)

	api.GET("/products", catalog.GetProducts)
	api.GET("/products/category/:slug", catalog.GetProductsByCategory)
	api.GET("/categories", catalog.GetCategories)
	api.GET("/product/:slug", catalog.GetProductBySlug)
	api.GET("/products/:id/related", catalog.GetRelatedProducts)
	api.GET("/search", catalog.Search)

	api.POST("/cart/add", cart.AddToCart)
	api.POST("/cart/remove", cart.RemoveFromCart)
	api.GET("/cart", cart.GetCart)
	api.POST("/cart/clear", cart.ClearCart)

	api.POST("/order", checkout.CreateOrder, middleware.RequireUser)

	api.POST("/reviews", review.CreateReview, middleware.RequireUser)
	api.POST("/reviews/:id", review.UpdateReview, middleware.RequireUser)
	api.DELETE("/reviews/:id", review.DeleteReview, middleware.RequireUser)

	adm := api.Group("/admin", middleware.RequireAdmin)

	adm.GET("/brands", brands.List)
	adm.GET("/brands/:id", brands.Get)
	adm.POST("/brands", brands.Create)
	adm.PUT("/brands/:id", brands.Update)
	adm.DELETE("/brands/:id", brands.Delete)

	adm.GET("/categories", categories.List)
	adm.GET("/categories/:id", categories.Get)
	adm.POST("/categories", categories.Create)
	adm.POST("/categories/:id", categories.Update)
	adm.DELETE("/categories/:id", categories.Delete)

	adm.GET("/products", products.List)
	adm.GET("/products/:id", products.Get)
	adm.POST("/products", products.Create)
	adm.POST("/products/:id", products.Update)
	adm.DELETE("/products/:id", products.Delete)
}
