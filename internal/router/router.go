package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/config"
	"github.com/ikkim/userhub-backend/internal/app/controller"
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/response"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authController     *controller.AuthController
	userController     *controller.UserController
	roleController     *controller.RoleController
	locationController *controller.LocationController
	authMiddleware     *middleware.AuthMiddleware
	limiter            middleware.Limiter
	metrics            *middleware.Metrics
	gatherer           prometheus.Gatherer
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	userController *controller.UserController,
	roleController *controller.RoleController,
	locationController *controller.LocationController,
	authMiddleware *middleware.AuthMiddleware,
	limiter middleware.Limiter,
	metrics *middleware.Metrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		userController:     userController,
		roleController:     roleController,
		locationController: locationController,
		authMiddleware:     authMiddleware,
		limiter:            limiter,
		metrics:            metrics,
		gatherer:           gatherer,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	if r.metrics != nil {
		router.Use(r.metrics.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, "UserHub API is running", gin.H{"status": "healthy"})
	})
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/register", r.authController.Register)
		api.POST("/login", r.authController.Login)
		api.POST("/reset-password-request",
			middleware.RateLimit(r.limiter, "reset-password-request", r.config.Reset.RequestLimit, r.config.Reset.RequestWindow),
			r.authController.RequestPasswordReset,
		)
		api.POST("/verify-otp", r.authController.VerifyOTP)
		api.POST("/reset-password", r.authController.ResetPassword)

		locations := api.Group("/locations")
		{
			locations.GET("/provinces", r.locationController.Provinces)
			locations.GET("/regencies", r.locationController.Regencies)
			locations.GET("/districts", r.locationController.Districts)
			locations.GET("/villages", r.locationController.Villages)
		}

		authed := api.Group("")
		authed.Use(r.authMiddleware.Authenticate())
		{
			authed.POST("/logout", r.authController.Logout)
			authed.GET("/user", r.authController.User)
			authed.GET("/roles", r.roleController.List)

			users := authed.Group("/users")
			users.Use(r.authMiddleware.RequireRole(model.RoleAdmin))
			{
				users.GET("", r.userController.List)
				users.POST("", r.userController.Create)
				users.GET("/:id", r.userController.Show)
				users.PUT("/:id", r.userController.Update)
				users.DELETE("/:id", r.userController.Delete)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
