package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/config"
	"github.com/tang-isab/swimlane-chart/persist"
	"github.com/tang-isab/swimlane-chart/render"
	"github.com/tang-isab/swimlane-chart/web"
)

const (
	bodyLimit       = "8M"
	loadTimeout     = 15 * time.Second
	shutdownTimeout = 10 * time.Second
	redisKeyPrefix  = "swimlane:"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	var rc *redis.Client
	if cfg.Redis.ConnectionString != "" {
		rc, err = config.NewRedisClient(cfg.Redis.ConnectionString)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rc.Close()
	}

	local, err := openLocal(cfg, rc)
	if err != nil {
		log.Fatalf("local store: %v", err)
	}
	var remote persist.RemoteStore
	if cfg.Web.RemoteURL != "" {
		r := persist.NewRemote(cfg.Web.RemoteURL)
		r.Token = cfg.Web.RemoteToken
		r.GzipMinSize = cfg.Web.GzipMinSize
		remote = r
	}

	tracker := web.NewTracker(persist.NewAdapter(remote, local, logger), web.Options{
		SaveDelay: cfg.Web.SaveDebounce.Std(),
		Logger:    logger,
	})
	loadCtx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	tracker.Load(loadCtx)
	cancel()

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	var deduper web.Deduper
	if rc != nil {
		deduper = web.NewRedisDeduper(rc, cfg.Redis.DeduperTTL.Std())
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))
	web.Register(e, &web.Server{Tracker: tracker, Renderer: renderer, Deduper: deduper, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.WithFields(log.Fields{
			"addr":   cfg.ListenAddr,
			"remote": cfg.Web.RemoteURL,
			"local":  cfg.Web.LocalStore,
		}).Info("board web starting")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	if err := tracker.Close(); err != nil {
		logger.WithError(err).Warn("flush pending save")
	}
}

func openLocal(cfg *config.Config, rc *redis.Client) (persist.LocalStore, error) {
	if cfg.Web.LocalStore == config.LocalRedis {
		return persist.NewRedisStore(rc, redisKeyPrefix), nil
	}
	return persist.NewFileStore(cfg.Web.LocalStorePath)
}
