package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickchat/dm-service/config"
	"github.com/quickchat/dm-service/internal/metrics"
	"github.com/quickchat/dm-service/internal/postgres"
	"github.com/quickchat/dm-service/internal/security"
	"github.com/quickchat/dm-service/internal/service"
	"github.com/quickchat/dm-service/internal/storage"
	httpx "github.com/quickchat/dm-service/internal/transport/http"
	"github.com/quickchat/dm-service/internal/transport/ws"
	"github.com/quickchat/dm-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting dm-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	if err := postgres.RunMigrations(cfg.Postgres.DSN); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)

	// --- collaborators ---
	tokens, err := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	images, err := storage.NewFSImageStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}
	collector := metrics.NewCollector()

	// --- WS registry, presence, server ---
	registry := ws.NewRegistry()
	presence := ws.NewPresence(registry)
	wsServer := ws.NewServer(registry, presence, tokens, collector)

	// --- services ---
	authSvc := service.NewAuthService(userRepo, tokens, images)
	msgSvc := service.NewMessageService(msgRepo, wsServer, images, collector)

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, msgSvc)
	router := httpx.NewRouter(httpx.RouterDeps{
		Handler:        handler,
		WSServer:       wsServer,
		Tokens:         tokens,
		Stats:          collector,
		MetricsHandler: collector.Handler(),
		UploadsDir:     images.Dir(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- run ---
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
