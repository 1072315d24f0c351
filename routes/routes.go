package routes

import (
	"net/http"

	"MediCore/config"
	"MediCore/controllers"
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cfg *config.AppConfig, log zerolog.Logger, container *services.Container) http.Handler {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	production := cfg.IsProduction()

	router := gin.New()
	router.Use(middlewares.Recovery(log, production))
	router.Use(middlewares.LoggingMiddleware(log))
	router.Use(middlewares.SecurityHeaders())
	router.Use(middlewares.CorsMiddleware(middlewares.DefaultCorsConfig(cfg.CORSOrigins())))
	router.Use(middlewares.ErrorHandler(log, production))
	router.NoRoute(middlewares.NoRoute(log, production))

	api := router.Group("/api/v1")
	api.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		Requests: cfg.RateLimitGlobal,
		Window:   cfg.RateLimitWindow,
	}))

	controllers.SetupRootRoute(router, api, cfg.Env, log)

	cookies := utils.CookieSettings{
		Production: production,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}
	authenticate := middlewares.Authenticate(container.Auth)

	authGroup := api.Group("", middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		Requests: cfg.RateLimitAuth,
		Window:   cfg.RateLimitWindow,
		Message:  "Too many authentication attempts, please try again later",
	}))
	controllers.NewAuthController(handlers.NewAuthHandler(container.Auth, cookies)).RegisterRoutes(authGroup, authenticate)

	protected := api.Group("", authenticate)
	controllers.NewUserController(handlers.NewUserHandler(container.Users, cookies)).RegisterRoutes(protected)
	controllers.SetupPatientRoutes(protected, handlers.NewPatientHandler(container.Patients))
	controllers.SetupAppointmentRoutes(protected, handlers.NewAppointmentHandler(container.Appointments))
	controllers.SetupPrescriptionRoutes(protected, handlers.NewPrescriptionHandler(container.Prescriptions))
	controllers.SetupDiagnosisRoutes(protected, handlers.NewDiagnosisHandler(container.Diagnoses))
	controllers.SetupAnalyticsRoutes(protected, handlers.NewAnalyticsHandler(container.Analytics))

	return router
}
