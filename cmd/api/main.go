package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"ramani.co.tz/internal/application"
	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/config"
	"ramani.co.tz/internal/httpapi"
	"ramani.co.tz/internal/notify"
	"ramani.co.tz/internal/obs"
	"ramani.co.tz/internal/site"
)

var version = "0.3.0"

func main() {
	configPath := flag.String("config", os.Getenv("RAMANI_CONFIG"), "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	logger, err := obs.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Postgres when a DSN is configured, in-memory stores otherwise.
	var (
		db        *sql.DB
		userStore auth.Store
		siteStore site.Store
		appStore  application.Store
	)
	if cfg.Database.DSN != "" {
		db, err = sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Fatal("open db", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		userStore = auth.NewPGStore(db)
		siteStore = site.NewPGStore(db)
		appStore = application.NewPGStore(db)
	} else {
		logger.Warn("no database DSN configured, using in-memory stores")
		userStore = auth.NewInMemory()
		siteStore = site.NewInMemory()
		appStore = application.NewInMemory()
	}

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(cfg.SMTP, logger)
	} else {
		logger.Warn("no SMTP host configured, emails go to the log")
		notifier = notify.NewLog(logger)
	}

	users, err := auth.NewService(userStore, notifier, cfg.Auth.Secret,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithOneTimeTokenTTL(cfg.Auth.OneTimeTokenTTL),
		auth.WithBaseURL(cfg.Server.BaseURL),
	)
	if err != nil {
		logger.Fatal("init auth service", zap.Error(err))
	}
	sites := site.NewService(siteStore)
	applications := application.NewService(appStore, sites, notifier)

	api := httpapi.New(httpapi.Options{
		Users:         users,
		Sites:         sites,
		Applications:  applications,
		Ready:         httpapi.ReadyProbe{DB: db},
		Version:       version,
		CookieSecure:  cfg.Auth.CookieSecure,
		RateBurst:     cfg.Rate.Burst,
		RatePerSecond: cfg.Rate.PerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting ramani-api",
		zap.String("version", version),
		zap.String("addr", srv.Addr),
		zap.String("environment", cfg.Environment),
	)

	go func() {
		obs.SetReady(true)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info("stopped")
}
