// Package main runs the habitloop HTTP server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/habitloop/habitloop/internal/app"
	"github.com/habitloop/habitloop/internal/app/httpapi"
	"github.com/habitloop/habitloop/internal/app/metrics"
	"github.com/habitloop/habitloop/internal/app/storage/memory"
	"github.com/habitloop/habitloop/internal/app/storage/postgres"
	"github.com/habitloop/habitloop/internal/auth"
	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/middleware"
	"github.com/habitloop/habitloop/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.NewDefault("server").WithError(err).Fatal("load configuration")
	}

	log := logger.New("server", cfg.LogLevel, cfg.LogFormat)

	if cfg.Auth.Secret == "" {
		log.Fatal("auth secret is not configured")
	}

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.TokenTTL())

	stores := app.Stores{}
	var pg *postgres.Store
	if cfg.Database.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err = postgres.Open(ctx, cfg.Database.PostgresDSN)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("connect to postgres")
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.WithError(err).Fatal("ensure postgres schema")
		}
		stores.Users = pg
		stores.Habits = pg
		log.Info("using postgres storage")
	} else {
		mem := memory.New()
		stores.Users = mem
		stores.Habits = mem
		log.Info("using in-memory storage")
	}

	application, err := app.New(stores, tokens, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	if len(cfg.Users) > 0 {
		seeds := make(map[string]string, len(cfg.Users))
		for _, u := range cfg.Users {
			seeds[u.Username] = u.Password
		}
		if err := application.SeedUsers(context.Background(), seeds); err != nil {
			log.WithError(err).Fatal("seed users")
		}
	}

	api, err := httpapi.NewHandler(application, httpapi.Options{
		AuditPath:       cfg.Audit.Path,
		AuditMaxEntries: cfg.Audit.MaxEntries,
	})
	if err != nil {
		log.WithError(err).Fatal("build handler")
	}

	authMW := middleware.NewAuthMiddleware(tokens, stores.Users, log, []string{
		"/api/auth/login",
		"/healthz",
		"/metrics",
	})
	handler := metrics.InstrumentHandler(authMW.Handler(api))

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Listen).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if pg != nil {
		if err := pg.Close(); err != nil {
			log.WithError(err).Warn("close postgres")
		}
	}
}
