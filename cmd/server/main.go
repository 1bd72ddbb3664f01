package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/userhub-backend/config"
	"github.com/ikkim/userhub-backend/internal/app/controller"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/app/service"
	"github.com/ikkim/userhub-backend/internal/db"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/router"
	"github.com/ikkim/userhub-backend/internal/scheduler"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/ikkim/userhub-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting UserHub Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	conn := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(conn)
	roleRepo := repository.NewRoleRepository(conn)
	tokenRepo := repository.NewAccessTokenRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	locationRepo := repository.NewLocationRepository(conn)

	// Initialize services
	roleService := service.NewRoleService(roleRepo)
	if err := roleService.EnsureDefaults(); err != nil {
		logger.Fatal("Failed to ensure default roles", err)
	}
	authService := service.NewAuthService(
		conn,
		userRepo,
		tokenRepo,
		roleService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
	)
	passwordResetService := service.NewPasswordResetService(conn, resetRepo, userRepo, service.NewMailer(cfg.SMTP))
	userService := service.NewUserService(conn, userRepo, tokenRepo, roleService)
	locationService := service.NewLocationService(locationRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService, passwordResetService)
	userController := controller.NewUserController(userService)
	roleController := controller.NewRoleController(roleService)
	locationController := controller.NewLocationController(locationService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, roleService)
	limiter := newLimiter(cfg)
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// Setup router
	r := router.NewRouter(
		authController,
		userController,
		roleController,
		locationController,
		authMiddleware,
		limiter,
		metrics,
		registry,
		cfg,
	)
	engine := r.Setup()

	// Start cleanup scheduler
	cleanup := scheduler.NewCleanupScheduler(cfg.Scheduler.CleanupSpec, passwordResetService, authService)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start cleanup scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	cleanup.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

// newLimiter uses Redis when enabled and reachable so limits hold across
// instances, otherwise an in-process window.
func newLimiter(cfg *config.Config) middleware.Limiter {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, using in-memory rate limiter")
		return middleware.NewMemoryLimiter()
	}
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limiter", map[string]interface{}{
			"error": err.Error(),
		})
		return middleware.NewMemoryLimiter()
	}
	return redis.NewFixedWindow(redis.GetClient(), "ratelimit")
}
