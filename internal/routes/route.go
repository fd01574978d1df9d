package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventease/internal/container"
	"github.com/joshua-takyi/eventease/internal/handlers"
	"github.com/joshua-takyi/eventease/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := container.SecureCookies()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.CorsAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger, container.Metrics))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	if container.Config.MetricsEnabled && container.Metrics != nil {
		r.GET("/metrics", gin.WrapH(container.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "eventease-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.Signup(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(container.UserService, secure))
		v1.POST("/rsvp", handlers.SubmitRsvp(container.RsvpService))

		public := v1.Group("/public/events")
		public.GET("", handlers.ListPublicEvents(container.EventService))
		public.GET("/:id", handlers.GetPublicEvent(container.EventService))
		public.GET("/:id/admission", handlers.EventAdmission(container.LedgerService))
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(container.TokenValidator, container.UserService, secure, container.Logger))

	protected.GET("/profile", handlers.Profile())
	protected.GET("/dashboard", handlers.Dashboard(container.LedgerService))
	protected.GET("/attendees", handlers.ListAttendees(container.RsvpService))

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("", handlers.ListUsers(container.UserService))
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.DELETE("/:id", handlers.DeleteUser(container.UserService))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEvent(container.EventService))
		eventRoutes.GET("", handlers.ListEvents(container.EventService))
		eventRoutes.GET("/:id", handlers.GetEvent(container.EventService))
		eventRoutes.PUT("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
		eventRoutes.GET("/:id/attendees", handlers.EventAttendees(container.RsvpService))
		eventRoutes.DELETE("/:id/attendees/:rsvpId", handlers.RemoveAttendee(container.RsvpService))
	}

	exportRoutes := protected.Group("/export")
	{
		exportRoutes.GET("/attendees.csv", handlers.ExportAttendees(container.RsvpService))
		exportRoutes.GET("/events.csv", handlers.ExportEvents(container.EventService))
	}

	return r
}
