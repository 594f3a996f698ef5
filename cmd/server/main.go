package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sitecanvas/internal/archive"
	"sitecanvas/internal/auth"
	"sitecanvas/internal/blocks"
	"sitecanvas/internal/config"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/handler"
	"sitecanvas/internal/middleware"
	"sitecanvas/internal/repository"
	serviceSite "sitecanvas/internal/service/site"
	"sitecanvas/internal/visibility"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	out, closeLog, err := config.LogWriter(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	logger := config.NewLogger(cfg, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_driver", cfg.StorageDriver,
		"move_target", cfg.MoveTarget,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := repository.Open(ctx, cfg, repository.Options{Migrate: true}, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer repos.Close()

	kinds, err := blocks.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load block kinds: %v", err)
	}
	logger.Info("block registry initialized", "kinds", len(kinds.List()))

	// Event stream shares the CORS allow-list
	origins := strings.Split(cfg.CORSOrigins, ",")
	eventsCfg := visibility.DefaultConfig()
	eventsCfg.AllowedOrigins = origins
	hub := visibility.NewHub(eventsCfg, logger)
	defer hub.Close()

	var archiver siteSvc.Archiver
	if cfg.ArchiveEnabled() {
		s3Archiver, err := archive.NewS3Archiver(ctx, archive.OptionsFromConfig(cfg), logger)
		if err != nil {
			log.Fatalf("Failed to create S3 archiver: %v", err)
		}
		archiver = s3Archiver
	} else {
		logger.Warn("S3_BUCKET not set, backup archiving disabled")
	}

	services, err := serviceSite.SetupServices(repos, kinds, hub, archiver, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}
	logger.Info("services initialized")

	var verifier auth.JWTVerifier
	if cfg.AuthDisabled {
		logger.Warn("AUTH_DISABLED: every request runs as the local editor (NEVER use in production!)")
	} else {
		verifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
	}

	mux := handler.NewRouter(handler.NewHandlers(services, kinds, logger), hub, promhttp.Handler())

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestID → RequestLogger → Recovery → Auth → Routes
	h = middleware.Auth(verifier, middleware.PublicRoutes, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.RequestID(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived event streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("server shutting down")
		// Shutdown does not track hijacked websocket connections
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
