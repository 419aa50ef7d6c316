package main

import (
	"context"
	"fmt"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tang-isab/swimlane-chart/api"
	"github.com/tang-isab/swimlane-chart/config"
	"github.com/tang-isab/swimlane-chart/storage"
)

const bodyLimit = "8M"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("tracer shutdown")
		}
	}()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()

	if cfg.Redis.ConnectionString != "" {
		rc, err := config.NewRedisClient(cfg.Redis.ConnectionString)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rc.Close()
		store = storage.NewCache(store, rc, cfg.Redis.CacheTTL.Std())
	}

	var notifier storage.Notifier
	if cfg.Storage.EventsQueue != "" {
		qn, err := storage.NewQueueNotifier(cfg.Storage.ConnectionString, cfg.Storage.EventsQueue)
		if err != nil {
			log.Fatalf("events queue: %v", err)
		}
		notifier = qn
	}

	var auth api.Authenticator
	if cfg.Auth.Enabled() {
		a, err := newAuth(cfg.Auth)
		if err != nil {
			log.Fatalf("auth: %v", err)
		}
		auth = a
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(api.DecompressBody(api.MaxSnapshotSize))

	logger := log.StandardLogger()
	api.Register(e, &api.Server{Store: store, Notifier: notifier, Auth: auth, Logger: logger})

	logger.WithFields(log.Fields{
		"addr":    cfg.ListenAddr,
		"backend": cfg.Storage.Backend,
		"cache":   cfg.Redis.ConnectionString != "",
		"events":  notifier != nil,
		"auth":    auth != nil,
	}).Info("board api starting")
	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		s, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.WithError(err).Warn("close sqlite")
			}
		}, nil
	case config.BackendTable:
		s, err := storage.NewTableStore(cfg.Storage.ConnectionString, cfg.Storage.Table)
		return s, noop, err
	default:
		return storage.NewFileStore(cfg.Storage.DataFile), noop, nil
	}
}

func newAuth(cfg config.AuthConfig) (*api.Auth, error) {
	if cfg.TestMode {
		return api.NewTestAuth([]byte(cfg.TestSecret), cfg.Audience, "")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(jwks, cfg.Audience, "https://"+cfg.Domain+"/", cfg.JWKSCacheTTL.Std()), nil
}
