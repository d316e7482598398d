package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/container"
	"github.com/joshua-takyi/eventnest/internal/handlers"
	"github.com/joshua-takyi/eventnest/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	origins := container.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.New()
	// forwarding headers are ignored unless they come from a configured proxy
	if err := r.SetTrustedProxies(container.TrustedProxies); err != nil {
		container.Logger.Error("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(middleware.Metrics())
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(container.RateLimiter.Handler())
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "eventnest-api",
			})
		})

		eventRoutes := api.Group("/events")
		{
			eventRoutes.GET("", handlers.ListEvents(container.EventService))
			eventRoutes.POST("", handlers.CreateEvent(container.EventService))
			eventRoutes.GET("/:id", handlers.GetEvent(container.EventService))
			eventRoutes.PUT("/:id", handlers.UpdateEvent(container.EventService))
			eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
			eventRoutes.POST("/:id/purchase", handlers.ConfirmPurchase(container.TicketService))
			eventRoutes.POST("/:id/verify-pin", handlers.VerifyPin(container.EventService))
		}

		api.GET("/search", handlers.Search(container.SearchService))
		api.POST("/ai/describe", handlers.DescribeEvent(container.SearchService))

		sideshift := api.Group("/sideshift")
		{
			sideshift.POST("/quote", handlers.SideShiftQuote(container.ExchangeService))
			sideshift.POST("/shift", handlers.SideShiftCreateShift(container.ExchangeService))
			sideshift.GET("/shift", handlers.SideShiftStatus(container.ExchangeService))
			sideshift.GET("/coins", handlers.SideShiftCoins(container.ExchangeService))
			sideshift.GET("/permissions", handlers.SideShiftPermissions(container.ExchangeService))
		}

		api.POST("/upload", handlers.UploadFile(container.UploadService))
		api.PUT("/upload", handlers.UploadMetadata(container.UploadService))

		api.GET("/user", handlers.GetUser(container.UserService))

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/nonce", handlers.Nonce(container.AuthService))
			authRoutes.POST("/verify", handlers.VerifySignature(container.AuthService))
		}

		purchaseRoutes := api.Group("/purchases")
		purchaseRoutes.Use(middleware.WalletAuth(container.AuthService))
		{
			purchaseRoutes.POST("", handlers.StartPurchase(container.PaymentService))
			purchaseRoutes.GET("/:id", handlers.GetPurchase(container.PaymentService))
			purchaseRoutes.DELETE("/:id", handlers.AbandonPurchase(container.PaymentService))
		}
	}

	return r
}
