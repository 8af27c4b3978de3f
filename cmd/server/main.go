package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // load .env when present
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/router"
	"github.com/iliyamo/movie-catalog/internal/scheduler"
	"github.com/iliyamo/movie-catalog/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProd())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName, CAPath: cfg.DBCAPath,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		m, err := database.NewMigrator(db, "mysql")
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Redis backs the response cache and the rate limiter; nil disables both.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	movies := repository.NewMovieRepo(db)
	opts := catalog.Options{BaseURL: cfg.BaseURL, PageMaxLimit: cfg.PageMaxLimit, Logger: logger}

	events := config.LoadEventsConfig()
	if events.Enabled {
		opts.Publisher = queue.NewPublisher(events.URL, events.Queue, events.PublishTimeout)
		if events.ConsumeEnabled {
			consumer := &queue.Consumer{URL: events.URL, Queue: events.Queue, LogDir: events.LogDir, Log: logger}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("catalog consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	sweep := config.LoadSweepConfig()
	sched := scheduler.NewScheduler(logger, 0)
	if sweep.Enabled && cfg.UploadBackend == "local" {
		job := &scheduler.SweepJob{Dir: cfg.UploadDir, Grace: sweep.Grace, Refs: movies, Log: logger}
		if err := sched.AddJob(sweep.Spec, job); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	svc := catalog.NewService(movies, opts)

	e := router.New(logger)
	staticDir := ""
	if cfg.UploadBackend == "local" {
		staticDir = cfg.UploadDir
	}
	router.RegisterRoutes(e, db, staticDir)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db)), cfg.JWTSecret)
	router.RegisterMovies(e, handler.NewMovieHandler(svc, store, logger), store, cfg.UploadMaxBytes,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	return serve(ctx, e, ":"+cfg.Port, logger)
}

func newStore(ctx context.Context, cfg config.Config) (upload.Store, error) {
	if cfg.UploadBackend == "gcs" {
		client, err := upload.NewGCSClient(ctx, cfg.GCSCredentials)
		if err != nil {
			return nil, err
		}
		return upload.NewGCSStore(client, cfg.GCSBucket, cfg.GCSPublicBaseURL), nil
	}
	return upload.NewLocalStore(cfg.UploadDir)
}

// serve runs e until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		return e.Close()
	}
	logger.Info("server stopped")
	return nil
}
