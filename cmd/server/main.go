package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/analytics"
	"github.com/smartbin/smartbin-backend/internal/api/middleware"
	"github.com/smartbin/smartbin-backend/internal/api/rest"
	"github.com/smartbin/smartbin-backend/internal/audit"
	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/auth/mfa"
	"github.com/smartbin/smartbin-backend/internal/config"
	"github.com/smartbin/smartbin-backend/internal/pkg/logger"
	"github.com/smartbin/smartbin-backend/internal/repository"
	"github.com/smartbin/smartbin-backend/internal/service"
	"github.com/smartbin/smartbin-backend/internal/thingspeak"
	"github.com/smartbin/smartbin-backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	var repo repository.Repository
	var err error
	switch cfg.DatabaseDriver {
	case "postgres":
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURL)
	default:
		repo, err = repository.NewSQLiteRepository(cfg.DatabasePath)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	migrationSQL, err := migrations.Load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := repo.RunMigrations(migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.DatabaseDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sessions auth.SessionStore
	if cfg.SessionTTLMin > 0 {
		sessions = auth.NewTTLSessionStore(time.Duration(cfg.SessionTTLMin) * time.Minute)
	} else {
		sessions = auth.NewMemorySessionStore()
	}
	gate := auth.NewGate(repo, sessions)

	if cfg.BootstrapAdmin {
		if err := bootstrapAdmin(ctx, repo, gate, cfg.BootstrapPassword, log); err != nil {
			return err
		}
	}

	pending := mfa.NewPendingSecrets(mfa.DefaultPendingTTL)
	verifier := mfa.NewVerifier(repo, pending)
	analyzer := analytics.NewAnalyzer(repo)
	recorder := audit.NewRecorder(repo, log)
	exporter := service.NewExportService(repo)

	cleanup := service.NewCleanupService(pending, repo, log,
		time.Duration(cfg.CleanupIntervalMin)*time.Minute, cfg.RetentionDays)
	cleanup.Start(ctx)
	defer cleanup.Stop()

	if cfg.ThingSpeakEnabled {
		if cfg.ThingSpeakChannelID == "" {
			return fmt.Errorf("thingspeak_channel_id is required when thingspeak_enabled")
		}
		poller := thingspeak.New(repo, log, cfg.ThingSpeakChannelID, cfg.ThingSpeakReadKey,
			time.Duration(cfg.ThingSpeakIntervalSec)*time.Second)
		go poller.Run(ctx)
	}

	handler := rest.NewHandler(repo, gate, verifier, analyzer, exporter, recorder, log,
		cfg.LoginRatePerMin, cfg.LoginRateBurst)

	router := mux.NewRouter()
	router.Use(middleware.Observe(log))
	router.Use(middleware.Auth(gate))
	rest.SetupRoutes(router, handler)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      corsHandler,
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bootstrapAdmin seeds the initial admin account when the user table is
// empty, so a fresh install is reachable.
func bootstrapAdmin(ctx context.Context, repo repository.Repository, gate *auth.Gate, password string, log *zap.Logger) error {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := gate.CreateUser(ctx, "admin", password, "Administrador", string(auth.RoleAdmin), ""); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Warn("seeded default admin account, change its password", zap.String("username", "admin"))
	return nil
}
