// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

// Dependencies carries the wired services the route handlers need
type Dependencies struct {
	Config   *config.Config
	Log      *logrus.Logger
	Users    *user.Service
	Products *product.Service
	Carts    *cart.Service
	Orders   *order.Service
	Checkout *checkout.Service
	PDF      *pdf.Service
}

// Setup registers every API route under the given group
func Setup(rg *gin.RouterGroup, deps *Dependencies) {
	cfg := deps.Config

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Carts, cfg, deps.Log)
	productHandler := handlers.NewProductHandler(deps.Products)
	cartHandler := handlers.NewCartHandler(deps.Carts, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Checkout, cfg)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	invoiceHandler := handlers.NewInvoiceHandler(deps.Orders, deps.PDF)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
		}
	}

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	// Cart endpoints serve guests and account holders alike: optional auth
	// first, then the guest cookie for whoever remains anonymous.
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	cartGroup.Use(middleware.GuestMiddleware(cfg))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.POST("/items/:id/increase", cartHandler.IncreaseItem)
		cartGroup.POST("/items/:id/decrease", cartHandler.DecreaseItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
	}

	merge := rg.Group("/cart")
	merge.Use(middleware.AuthMiddleware(cfg))
	merge.Use(middleware.GuestMiddleware(cfg))
	{
		merge.POST("/merge", cartHandler.MergeCart)
	}

	checkoutGroup := rg.Group("/checkout")
	checkoutGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	checkoutGroup.Use(middleware.GuestMiddleware(cfg))
	{
		checkoutGroup.POST("/session", checkoutHandler.CreateSession)
		checkoutGroup.GET("/confirm", checkoutHandler.ConfirmSession)
	}

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/invoice", invoiceHandler.DownloadInvoice)
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	}
}
