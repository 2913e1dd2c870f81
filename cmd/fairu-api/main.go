package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fairu-api/api/swagger"
	"github.com/noah-isme/fairu-api/internal/handler"
	internalmiddleware "github.com/noah-isme/fairu-api/internal/middleware"
	"github.com/noah-isme/fairu-api/internal/repository"
	"github.com/noah-isme/fairu-api/internal/repository/mongodb"
	"github.com/noah-isme/fairu-api/internal/service"
	"github.com/noah-isme/fairu-api/pkg/cache"
	"github.com/noah-isme/fairu-api/pkg/captcha"
	"github.com/noah-isme/fairu-api/pkg/config"
	"github.com/noah-isme/fairu-api/pkg/database"
	"github.com/noah-isme/fairu-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fairu-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fairu-api/pkg/middleware/requestid"
	"github.com/noah-isme/fairu-api/pkg/oauth"
)

// @title Fairu API
// @version 1.0.0
// @description File metadata catalog with Google sign in, moderation and CAPTCHA gated downloads
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type storage struct {
	contributors repository.ContributorStore
	files        repository.FileStore
	ping         handler.ReadinessCheck
	close        func(ctx context.Context) error
}

type cacheStore interface {
	service.CacheRepository
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to open storage", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logr.Warn("failed to close storage", zap.Error(err))
		}
	}()

	checks := map[string]handler.ReadinessCheck{"database": store.ping}

	cacheRepo, cachePing, err := openCache(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cacheRepo.Close() //nolint:errcheck
	if cachePing != nil {
		checks["cache"] = cachePing
	}

	googleVerifier, err := oauth.NewGoogleVerifier(ctx, cfg.Google)
	if err != nil {
		logr.Fatal("failed to init google verifier", zap.Error(err))
	}
	if cfg.Google.ClientID == "" {
		logr.Warn("GOOGLE_CLIENT_ID is empty, sign in is disabled")
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(store.contributors, googleVerifier, logr, service.AuthConfig{
		Secret:         cfg.JWT.Secret,
		Expiry:         cfg.JWT.Expiration,
		SuperUserEmail: cfg.SuperUserEmail,
	})
	contributorSvc := service.NewContributorService(store.contributors, logr)
	fileSvc := service.NewFileService(store.files, store.contributors, captcha.NewRecaptcha(cfg.Recaptcha), cacheSvc, metricsSvc, validator.New(), logr)

	if err := authSvc.EnsureSuperUser(ctx); err != nil {
		logr.Warn("failed to promote superuser", zap.Error(err))
	}

	limiter := internalmiddleware.NewRateLimiter(internalmiddleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	go limiter.Cleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(internalmiddleware.Identity(authSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, limiter.Middleware(),
		handler.NewAuthHandler(authSvc),
		handler.NewContributorHandler(contributorSvc),
		handler.NewFileHandler(fileSvc),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func registerRoutes(r *gin.Engine, rateLimit gin.HandlerFunc, auth *handler.AuthHandler, contributors *handler.ContributorHandler, files *handler.FileHandler) {
	authGroup := r.Group("/auth")
	authGroup.POST("/google", rateLimit, auth.Google)

	contributorGroup := r.Group("/contributors")
	contributorGroup.GET("/", contributors.List)
	contributorGroup.GET("/count", contributors.Count)
	contributorGroup.GET("/role", contributors.Role)
	contributorGroup.GET("/me", contributors.Me)
	contributorGroup.POST("/ban/:id", contributors.ToggleBan)
	contributorGroup.POST("/admin/:id", contributors.SetAdmin)

	fileGroup := r.Group("/files")
	fileGroup.GET("/", files.List)
	fileGroup.GET("/count", files.Count)
	fileGroup.GET("/pagecount", files.PageCount)
	fileGroup.GET("/search", files.Search)
	fileGroup.GET("/search/count", files.SearchCount)
	fileGroup.GET("/search/pagecount", files.SearchPageCount)
	fileGroup.GET("/details/:id", files.Details)
	fileGroup.POST("/download/:id/:index", rateLimit, files.Download)
	fileGroup.POST("/add", files.Add)
	fileGroup.POST("/update/:id", files.Update)
	fileGroup.DELETE("/delete", files.Delete)
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateMongo(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &storage{
			contributors: mongodb.NewContributorRepository(db),
			files:        mongodb.NewFileRepository(db),
			ping:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:        client.Disconnect,
		}, nil
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			contributors: repository.NewContributorRepository(db),
			files:        repository.NewFileRepository(db),
			ping:         db.PingContext,
			close:        func(context.Context) error { return db.Close() },
		}, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config) (cacheStore, handler.ReadinessCheck, error) {
	if !cfg.Redis.Enabled {
		return repository.NewMemoryCacheRepository(cache.NewMemory(cfg.Cache.TTL)), nil, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return repository.NewCacheRepository(client), ping, nil
}
