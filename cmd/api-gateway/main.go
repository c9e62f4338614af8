package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-unit-gateway/api/swagger"
	"github.com/noah-isme/sma-unit-gateway/internal/handler"
	"github.com/noah-isme/sma-unit-gateway/internal/middleware"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/repository"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	"github.com/noah-isme/sma-unit-gateway/internal/upstream"
	"github.com/noah-isme/sma-unit-gateway/pkg/cache"
	"github.com/noah-isme/sma-unit-gateway/pkg/config"
	"github.com/noah-isme/sma-unit-gateway/pkg/confirmation"
	"github.com/noah-isme/sma-unit-gateway/pkg/database"
	"github.com/noah-isme/sma-unit-gateway/pkg/jobs"
	"github.com/noah-isme/sma-unit-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-unit-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-unit-gateway/pkg/middleware/requestid"
)

// @title SMA Unit Gateway
// @version 1.0.0
// @description Unit configuration, activity grading and unit closure in front of the school REST backend
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var cacheRepo service.CacheRepository
	ledger := service.NewConfirmationLedger(nil, logr)
	if cfg.Catalog.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer closeRedis(client, logr)
			repo := repository.NewCacheRepository(client, logr)
			cacheRepo = repo
			ledger = service.NewConfirmationLedger(repo, logr)
			checks["redis"] = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cacheRepo != nil)

	auditSvc, auditQueue := buildAudit(ctx, cfg, metricsSvc, checks, logr)
	if auditQueue != nil {
		defer auditQueue.Stop()
	}

	httpClient := &http.Client{Transport: http.DefaultTransport}
	client := upstream.NewClient(cfg.Upstream, httpClient, metricsSvc, logr)
	validate := validator.New()
	signer := confirmation.NewSigner(cfg.Confirmation.Secret, cfg.Confirmation.TTL)

	sessionSvc := service.NewSessionService(cfg.JWT, logr)
	assignmentSvc := service.NewAssignmentService(client, cacheSvc, cfg.Catalog.CacheTTL, logr)
	unitSvc := service.NewUnitConfigService(client, auditSvc, validate, logr)
	gradingSvc := service.NewGradingService(client, auditSvc, validate, logr)
	closureSvc := service.NewUnitClosureService(client, signer, auditSvc, metricsSvc, logr,
		service.WithConfirmationLedger(ledger),
		service.WithCatalogInvalidator(assignmentSvc),
	)
	exportSvc := service.NewExportService(logr)

	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	unitHandler := handler.NewUnitHandler(unitSvc)
	gradingHandler := handler.NewGradingHandler(gradingSvc)
	closureHandler := handler.NewUnitClosureHandler(closureSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, cfg.APIPrefix))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.Session(sessionSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api.GET("/assignments", staff, assignmentHandler.List)
	api.GET("/assignments/:id/units", staff, unitHandler.ListUnits)
	api.GET("/points/complement", staff, unitHandler.Complement)
	api.PUT("/units/:id/points", admin, unitHandler.UpdatePoints)
	api.POST("/units/:id/activate", admin, unitHandler.Activate)

	grading := api.Group("/grading/units/:unitId/activities/:activityId", staff)
	grading.GET("", gradingHandler.Load)
	grading.POST("/preview", gradingHandler.Preview)
	grading.POST("/grades", gradingHandler.Save)

	closure := api.Group("/unit-closure/:number", admin)
	closure.GET("", closureHandler.Status)
	closure.POST("/recompute", closureHandler.Recompute)
	closure.POST("/close/confirmation", closureHandler.PrepareClose)
	closure.POST("/close", closureHandler.Close)
	closure.POST("/notifications/confirmation", closureHandler.PrepareNotify)
	closure.POST("/notifications", closureHandler.Notify)
	closure.GET("/export", closureHandler.Export)
	closure.GET("/audit", closureHandler.Audit)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildAudit wires the postgres audit trail behind an async queue. Any failure leaves auditing disabled.
func buildAudit(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, checks map[string]handler.ReadinessCheck, logr *zap.Logger) (*service.AuditService, *jobs.Queue) {
	if !cfg.Audit.Enabled {
		return service.NewAuditService(nil, metrics, logr), nil
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Warn("postgres unavailable, audit trail disabled", zap.Error(err))
		return service.NewAuditService(nil, metrics, logr), nil
	}
	if err := database.Migrate(ctx, db); err != nil {
		logr.Warn("audit migration failed, audit trail disabled", zap.Error(err))
		closeDB(db, logr)
		return service.NewAuditService(nil, metrics, logr), nil
	}
	checks["postgres"] = db.PingContext

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), metrics, logr)
	queue := jobs.NewQueue("audit", auditSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	queue.Start(context.Background())
	auditSvc.AttachQueue(queue)
	return auditSvc, queue
}

func closeRedis(client *redis.Client, logr *zap.Logger) {
	if err := client.Close(); err != nil {
		logr.Warn("close redis", zap.Error(err))
	}
}

func closeDB(db *sqlx.DB, logr *zap.Logger) {
	if err := db.Close(); err != nil {
		logr.Warn("close postgres", zap.Error(err))
	}
}
