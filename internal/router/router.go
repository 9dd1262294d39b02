// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/handlers"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/search"
	"github.com/javajoker/storefront-backend/internal/services"
)

const apiVersion = "1.0.0"

// Services is the wired service graph behind the HTTP API.
type Services struct {
	Auth       *services.AuthService
	Catalog    *services.CatalogService
	Cart       *services.CartService
	Mapping    *services.MappingCache
	Checkout   *services.CheckoutService
	Forum      *services.ForumService
	Reviews    *services.ReviewService
	Newsletter *services.NewsletterService
	Support    *services.SupportService
	Admin      *services.AdminService
}

// NewServices builds every service from configuration. Optional providers
// (search, object storage, payments, AI, SMTP) degrade to their local or
// not-configured behavior when their settings are empty.
func NewServices(db *gorm.DB, cfg *config.Config, publisher events.Publisher) (*Services, error) {
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var index services.ProductIndex
	if cfg.Elasticsearch.URL != "" {
		client, err := search.NewClient(search.Config{
			URL:      cfg.Elasticsearch.URL,
			Username: cfg.Elasticsearch.Username,
			Password: cfg.Elasticsearch.Password,
			Index:    cfg.Elasticsearch.Index,
		})
		if err != nil {
			return nil, err
		}
		index = client
	} else {
		logrus.Info("Elasticsearch not configured, product search uses the database")
	}

	notificationService := services.NewNotificationService(cfg)
	gateway := services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	mapping := services.NewMappingCache(db, gateway)
	catalogService := services.NewCatalogService(db, index, storageService)

	return &Services{
		Auth:       services.NewAuthService(db, cfg),
		Catalog:    catalogService,
		Cart:       services.NewCartService(catalogService, mapping, cfg.Payment.MappingTTL),
		Mapping:    mapping,
		Checkout:   services.NewCheckoutService(db, cfg, gateway, mapping, publisher, notificationService),
		Forum:      services.NewForumService(db),
		Reviews:    services.NewReviewService(db),
		Newsletter: services.NewNewsletterService(db, services.NewAIService(cfg.AI), notificationService, cfg.Frontend.BaseURL),
		Support:    services.NewSupportService(db, notificationService),
		Admin:      services.NewAdminService(db, cfg.Admin),
	}, nil
}

func Initialize(db *gorm.DB, cfg *config.Config, svc *Services) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Catalog)
	cartHandler := handlers.NewCartHandler(svc.Cart)
	stripeHandler := handlers.NewStripeHandler(svc.Mapping)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout)
	forumHandler := handlers.NewForumHandler(svc.Forum)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	newsletterHandler := handlers.NewNewsletterHandler(svc.Newsletter)
	supportHandler := handlers.NewSupportHandler(svc.Support)
	adminHandler := handlers.NewAdminHandler(svc.Admin)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"version":   apiVersion,
			"languages": i18n.GetSupportedLanguages(),
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Catalog routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/reviews", reviewHandler.ListProductReviews)
			products.POST("/:id/reviews", middleware.AuthRequired(), reviewHandler.CreateReview)
		}
		v1.GET("/categories", productHandler.GetCategories)

		// Cart routes, the cart itself lives on the client
		cart := v1.Group("/cart")
		{
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:productId", cartHandler.UpdateItem)
			cart.DELETE("/items", cartHandler.Clear)
			cart.POST("/price", cartHandler.Price)
		}
		v1.GET("/stripe/mappings", stripeHandler.GetMappings)

		// Checkout and orders
		checkout := v1.Group("/checkout")
		checkout.Use(middleware.AuthRequired(), middleware.CheckoutRateLimit())
		{
			checkout.POST("/session", checkoutHandler.CreateSession)
			checkout.POST("/crypto", checkoutHandler.CreateCryptoPayment)
		}
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.GET("", checkoutHandler.ListOrders)
			orders.GET("/:id", checkoutHandler.GetOrder)
		}
		v1.POST("/webhooks/stripe", checkoutHandler.StripeWebhook)

		// Reviews
		reviews := v1.Group("/reviews")
		reviews.Use(middleware.AuthRequired())
		{
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
			reviews.POST("/:id/like", reviewHandler.LikeReview)
			reviews.DELETE("/:id/like", reviewHandler.UnlikeReview)
		}

		// Forum routes
		forum := v1.Group("/forum")
		{
			forum.GET("/posts", forumHandler.ListPosts)
			forum.GET("/posts/:id", forumHandler.GetPost)
			forum.GET("/posts/:id/comments", forumHandler.ListComments)

			// Authenticated routes
			protected := forum.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/posts", forumHandler.CreatePost)
				protected.PUT("/posts/:id", forumHandler.UpdatePost)
				protected.DELETE("/posts/:id", forumHandler.DeletePost)
				protected.POST("/posts/:id/comments", forumHandler.CreateComment)
				protected.PUT("/comments/:id", forumHandler.UpdateComment)
				protected.DELETE("/comments/:id", forumHandler.DeleteComment)
				protected.POST("/comments/:id/like", forumHandler.LikeComment)
			}
		}

		// Newsletter and support (public)
		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("/subscribe", newsletterHandler.Subscribe)
			newsletter.GET("/unsubscribe/:token", newsletterHandler.Unsubscribe)
		}
		v1.POST("/support/messages", supportHandler.Create)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)

			// User management
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)

			// Catalog management
			admin.POST("/products", productHandler.CreateProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.POST("/products/:id/images", middleware.UploadRateLimit(), productHandler.UploadImage)
			admin.POST("/categories", productHandler.CreateCategory)
			admin.POST("/search/reindex", productHandler.Reindex)
			admin.POST("/stripe/sync", stripeHandler.Sync)

			// Orders
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/orphaned", adminHandler.GetOrphanedOrders)

			// Newsletter
			admin.GET("/newsletters", newsletterHandler.List)
			admin.POST("/newsletters/generate", newsletterHandler.Generate)
			admin.POST("/newsletters/:id/send", newsletterHandler.Send)

			// Support inbox
			admin.GET("/support/messages", supportHandler.List)
			admin.PUT("/support/messages/:id/resolve", supportHandler.Resolve)

			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			// Setup
			admin.POST("/setup/schema", adminHandler.SetupSchema)
			admin.POST("/setup/seed", adminHandler.Seed)
		}
	}

	// Static file serving (for development)
	if !cfg.IsProduction() {
		r.Static("/uploads", "./uploads")
	}

	return r
}
