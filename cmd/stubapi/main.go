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

	"github.com/sirupsen/logrus"

	"pmdesk/internal/config"
	"pmdesk/internal/handler"
	"pmdesk/internal/logging"
	"pmdesk/internal/realtime"
	"pmdesk/internal/stubapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub(cfg.Realtime.MaxConnPerUser, log)
	go hub.Run(ctx)

	backend := stubapi.NewBackend(stubapi.Options{
		JWTSecret:     cfg.JWT.Secret,
		JWTExpiration: cfg.JWT.Expiration,
		BcryptCost:    cfg.Server.BcryptCost,
		Events:        hub,
		Logger:        log,
	})
	if cfg.Server.SeedDemo {
		if err := backend.SeedDemo(); err != nil {
			log.WithError(err).Fatal("Failed to seed demo data")
		}
		log.WithField("user", stubapi.DemoUserName).Info("Seeded demo data")
	}

	r := handler.NewRouter(backend, hub, handler.RouterConfig{
		JWTSecret: cfg.JWT.Secret,
		CORS:      cfg.CORS,
		Logger:    log,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Server.Env}).Info("Starting stub API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped gracefully")
}
