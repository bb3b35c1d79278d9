package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staylane/internal/infra/config"
	"staylane/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Property       PropertyHTTP
	HostProperty   HostPropertyHTTP
	Availability   AvailabilityHTTP
	Booking        BookingHTTP
	Payment        PaymentHTTP
	Reviews        ReviewsHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires middleware and routes. Route groups whose handler is nil
// are left out.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Property != nil {
		api.GET("/properties", h.Property.Catalog)
		api.GET("/properties/:id", h.Property.Get)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/calendar", h.Availability.Calendar)
		api.GET("/properties/:id/quote", h.Availability.Quote)
	}
	if h.Reviews != nil {
		api.GET("/properties/:id/reviews", h.Reviews.ListByProperty)
		api.POST("/bookings/:id/review", h.Reviews.Submit)
	}
	if h.HostProperty != nil {
		hostGroup := api.Group("/host/properties")
		hostGroup.GET("", h.HostProperty.List)
		hostGroup.POST("", h.HostProperty.Create)
		hostGroup.PATCH("/:id/price", h.HostProperty.Reprice)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.DELETE("/bookings/:id", h.Booking.Delete)
	}
	if h.Payment != nil {
		api.POST("/bookings/:id/payment-session", h.Payment.CreateSession)
		api.GET("/payments/confirm", h.Payment.Confirm)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		api.GET("/host/reservations", h.Me.ListReservations)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
