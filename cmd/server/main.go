package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/booklibrary/backend/docs"
	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/config"
	"github.com/booklibrary/backend/internal/database"
	"github.com/booklibrary/backend/internal/handlers"
	"github.com/booklibrary/backend/internal/logger"
	"github.com/booklibrary/backend/internal/middleware"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/booklibrary/backend/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Book Library API
// @version 1.0
// @description API for browsing the book catalog and managing accounts

// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey TokenAuth
// @in header
// @name x-auth-token
// @description JWT issued by /api/auth/login, sent without a Bearer prefix.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Book Library service")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	tokenService := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, appLogger)
	bookRepo := repositories.NewBookRepository(db, appLogger)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenService, appLogger)
	bookService := services.NewBookService(bookRepo, appLogger)

	if cfg.Admin.Username != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			appLogger.Fatal("Failed to create admin account", zap.Error(err))
		}
		cancel()
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	bookHandler := handlers.NewBookHandler(bookService, tokenService, appLogger)
	healthHandler := handlers.NewHealthHandler(db, appLogger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggerMiddleware(appLogger))
	r.Use(middleware.RecoveryMiddleware(appLogger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	healthHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)
	bookHandler.RegisterRoutes(r)
	handlers.RegisterStatic(r, cfg.Server.StaticDir, appLogger)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}
