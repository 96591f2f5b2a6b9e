package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meal-tracker/internal/api"
	"github.com/meal-tracker/internal/config"
	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/middleware"
	"github.com/meal-tracker/internal/report"
	"github.com/meal-tracker/internal/storage"

	_ "github.com/meal-tracker/docs" // swagger docs
)

// @title Meal Tracker API
// @version 1.0
// @description Multi-tenant meal tracking backend with role-based access, session tokens and calorie reporting.

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your JWT token with the `Bearer ` prefix, e.g. "Bearer eyJhbGci..."

func main() {
	log := logger.New("server")

	cfg := config.Load()

	log.Info().Msg("connecting to database")
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("running migrations")
	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := storage.NewUserRepository(db)
	mealRepo := storage.NewMealRepository(db)
	sessionRepo := storage.NewSessionRepository(db)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT, userRepo, sessionRepo, log)

	handler := api.NewHandler(userRepo, mealRepo, sessionRepo, authMiddleware, log)
	router := api.NewRouter(handler, authMiddleware, log)

	var digest *report.Digest
	if cfg.Digest.Enabled {
		digest = report.NewDigest(cfg.Digest, userRepo, mealRepo, logger.New("digest"))
		if err := digest.Start(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to start daily digest")
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if digest != nil {
		digest.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
