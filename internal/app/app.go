package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"NewsDistributor/internal/config"
	"NewsDistributor/internal/infrastructure/facebook"
	"NewsDistributor/internal/infrastructure/instagram"
	"NewsDistributor/internal/infrastructure/preview"
	"NewsDistributor/internal/infrastructure/realtime"
	"NewsDistributor/internal/infrastructure/scheduler"
	"NewsDistributor/internal/infrastructure/storage"
	"NewsDistributor/internal/logging"
	"NewsDistributor/internal/publisher"
	"NewsDistributor/internal/transport/httpapi"
	"NewsDistributor/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client
	server *httpapi.Server
	reaper *usecase.Reaper
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	repository := storage.NewPostgresRepository(db)
	notifier := realtime.NewRedisNotifier(redisClient, cfg.Redis.Channel)

	registry := publisher.NewRegistry()
	registry.Register(facebook.NewPublisher(cfg.Facebook.APIBase, cfg.Facebook.PageID, cfg.Facebook.AccessToken, nil))
	registry.Register(instagram.NewPublisher(cfg.Instagram.APIBase, cfg.Instagram.UserID, cfg.Instagram.AccessToken, nil))

	distributor := usecase.NewDistributor(usecase.DistributorDeps{
		Repository: repository,
		Publishers: registry,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "distributor"),
	})

	reaper := usecase.NewReaper(
		scheduler.NewCronScheduler(cfg.Reaper.CronExpression),
		repository,
		cfg.Reaper.MaxAge(),
		baseLogger.With("component", "reaper"),
	)

	server := httpapi.NewServer(
		distributor,
		preview.NewScraper(nil),
		baseLogger.With("component", "httpapi"),
	)

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		redis:  redisClient,
		server: server,
		reaper: reaper,
	}, nil
}

// Run pings the database, starts the reaper, and serves HTTP until ctx ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("start reaper: %w", err)
	}

	srv := &http.Server{
		Addr:    a.cfg.HTTP.Addr,
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.reaper.Stop(shutdownCtx); err != nil {
		a.logger.Warn("reaper stop", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", "error", err)
	}

	return a.db.Close()
}
