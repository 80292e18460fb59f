package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/handler"
	"github.com/noah-isme/chatcal-api/internal/interpreter"
	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/remotesync"
	"github.com/noah-isme/chatcal-api/internal/repository"
	"github.com/noah-isme/chatcal-api/internal/service"
	"github.com/noah-isme/chatcal-api/internal/store"
	"github.com/noah-isme/chatcal-api/pkg/cache"
	"github.com/noah-isme/chatcal-api/pkg/config"
	"github.com/noah-isme/chatcal-api/pkg/database"
	"github.com/noah-isme/chatcal-api/pkg/logger"
	"github.com/noah-isme/chatcal-api/pkg/middleware/cors"
	"github.com/noah-isme/chatcal-api/pkg/middleware/requestid"
	"github.com/noah-isme/chatcal-api/pkg/storage"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type eventWriter interface {
	ApplyChanges(ctx context.Context, deletedIDs []string, upserts []models.Event) error
}

type syncController interface {
	RequestRefresh() (bool, error)
	Status() models.SyncStatus
}

// application owns every long-lived component of the serve command.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	router  *gin.Engine
	adapter *remotesync.Adapter
	closers []func() error
}

// meteredCache counts snapshot cache hits and misses.
type meteredCache struct {
	repo    *repository.SnapshotCacheRepository
	metrics *service.MetricsService
}

func (c meteredCache) SaveSnapshot(ctx context.Context, snapshot models.StoreSnapshot) error {
	return c.repo.SaveSnapshot(ctx, snapshot)
}

func (c meteredCache) LoadSnapshot(ctx context.Context) (models.StoreSnapshot, error) {
	snapshot, err := c.repo.LoadSnapshot(ctx)
	c.metrics.RecordCacheOperation(err == nil)
	return snapshot, err
}

func openSnapshotFile(path string) (*repository.SnapshotFileRepository, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}
	local, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return repository.NewSnapshotFileRepository(local, filepath.Base(path)), nil
}

func newSnapshotCache(client *redis.Client, cfg config.RedisConfig, logr *zap.Logger) *repository.SnapshotCacheRepository {
	return repository.NewSnapshotCacheRepository(client, cfg.SnapshotKey, cfg.RevisionChannel, cfg.SnapshotTTL, logr)
}

func newApplication(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logr}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}
	validate := validator.New()

	st := store.New(store.WithLogger(logr.Named("store")))
	app.store = st

	fileRepo, err := openSnapshotFile(cfg.Store.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	var redisClient *redis.Client
	var cacheRepo *repository.SnapshotCacheRepository
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cacheRepo = newSnapshotCache(redisClient, cfg.Redis, logr)
		app.closers = append(app.closers, redisClient.Close)
	}

	var persistence *service.PersistenceService
	if cacheRepo != nil {
		persistence = service.NewPersistenceService(fileRepo, cacheRepo, metrics, logr.Named("persistence"))
	} else {
		persistence = service.NewPersistenceService(fileRepo, nil, metrics, logr.Named("persistence"))
	}
	if _, err := persistence.Restore(st); err != nil {
		logr.Warn("snapshot file unreadable, starting with an empty store", zap.Error(err))
	}
	st.OnChange(persistence.OnChange)

	var db *sqlx.DB
	var writer eventWriter
	var events *handler.EventHandler
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.closers = append(app.closers, db.Close)
		eventRepo := repository.NewEventRepository(db)
		events = handler.NewEventHandler(service.NewEventService(eventRepo, validate, logr.Named("events")))
		if cfg.Store.WriteThrough {
			writer = eventRepo
		}
	}

	var sync syncController
	if cfg.Sync.Enabled {
		fetcher := remotesync.NewHTTPFetcher(remotesync.FetcherConfig{
			URL:     cfg.Sync.RemoteURL,
			Token:   cfg.Sync.RemoteToken,
			Timeout: cfg.Sync.Timeout,
		}, nil)
		opts := []remotesync.Option{remotesync.WithLogger(logr)}
		if metrics != nil {
			opts = append(opts, remotesync.WithObserver(metrics))
		}
		if cacheRepo != nil {
			opts = append(opts, remotesync.WithCache(meteredCache{repo: cacheRepo, metrics: metrics}))
		}
		app.adapter = remotesync.NewAdapter(fetcher, st, remotesync.Config{
			Schedule:      cfg.Sync.Schedule(),
			Timeout:       cfg.Sync.Timeout,
			OnStart:       cfg.Sync.OnStart,
			WorkerRetries: cfg.Sync.WorkerRetries,
		}, opts...)
		sync = app.adapter
	}

	interp := interpreter.NewClient(interpreter.Config{
		URL:     cfg.Interpreter.URL,
		APIKey:  cfg.Interpreter.APIKey,
		Timeout: cfg.Interpreter.Timeout,
	}, nil, logr.Named("interpreter"))

	chatSvc := service.NewChatService(interp, st, writer, validate, metrics, logr.Named("chat"))
	storeSvc := service.NewStoreService(st, sync, logr.Named("store"))
	exportSvc := service.NewExportService(st, logr.Named("export"), nil, nil, nil)

	var auth gin.HandlerFunc
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}, logr.Named("auth"))
	switch {
	case cfg.Auth.Enabled:
		auth = middleware.JWT(authSvc)
	case cfg.Auth.JWTSecret != "":
		auth = middleware.OptionalJWT(authSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	app.router = handler.NewRouter(handler.RouterConfig{
		APIPrefix:     cfg.APIPrefix,
		EnableDocs:    cfg.Env != config.EnvProduction,
		EnableMetrics: cfg.Metrics.Enabled,
		Auth:          auth,
		Middlewares: []gin.HandlerFunc{
			requestid.Middleware(),
			logger.GinMiddleware(logr),
			cors.New(cfg.CORS.AllowedOrigins),
			middleware.Metrics(metrics),
		},
		Logger: logr,
	}, handler.Handlers{
		Chat:    handler.NewChatHandler(chatSvc),
		Store:   handler.NewStoreHandler(storeSvc, exportSvc),
		Events:  events,
		Metrics: handler.NewMetricsHandler(metrics, storeSvc, chatSvc),
	})

	return app, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *application) Run(ctx context.Context) error {
	if a.adapter != nil {
		if err := a.adapter.Start(ctx); err != nil {
			return fmt.Errorf("start remote sync: %w", err)
		}
		defer a.adapter.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			zap.Int("port", a.cfg.Port),
			zap.String("env", a.cfg.Env),
			zap.Uint64("revision", a.store.Revision()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases external connections in reverse order.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
