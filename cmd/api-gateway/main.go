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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-report-batch/api/swagger"
	"github.com/noah-isme/sma-report-batch/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-report-batch/internal/middleware"
	"github.com/noah-isme/sma-report-batch/internal/repository"
	"github.com/noah-isme/sma-report-batch/internal/router"
	"github.com/noah-isme/sma-report-batch/internal/service"
	"github.com/noah-isme/sma-report-batch/pkg/cache"
	"github.com/noah-isme/sma-report-batch/pkg/config"
	"github.com/noah-isme/sma-report-batch/pkg/database"
	"github.com/noah-isme/sma-report-batch/pkg/export"
	"github.com/noah-isme/sma-report-batch/pkg/jobs"
	"github.com/noah-isme/sma-report-batch/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-report-batch/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-report-batch/pkg/middleware/requestid"
	"github.com/noah-isme/sma-report-batch/pkg/storage"
)

// @title SMA Report Batch API
// @version 0.2.0
// @description Class rankings and bulk report card printing/saving
// @BasePath /
// @schemes http
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
	sugar := logr.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		sugar.Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, caching and print spool disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	students := repository.NewStudentRepository(db)
	scores := repository.NewScoreRepository(db)
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Ranking.CacheTTL, logr, redisClient != nil)
	printSpool := repository.NewPrintQueueRepository(redisClient, cfg.Printing.Stream, cfg.Printing.StreamMaxLen)

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		sugar.Fatalw("report storage unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	prefix := cfg.APIPrefix

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
	rankings := service.NewRankingService(students, scores, cacheSvc, cfg.Ranking.CacheTTL, logr)
	renders := service.NewRenderService(export.NewReportCardRenderer(cfg.Reports.FontFile), cfg.Reports.SchoolName, logr)
	if err := renders.Available(); err != nil {
		sugar.Warnw("report renderer unavailable, bulk batches will be refused", "error", err)
	}
	printer := service.NewPrintService(store, printSpool, logr)
	saver := service.NewSaveService(store, signer, prefix+"/export/", logr)
	exports := service.NewExportService(rankings, store, signer, nil, nil, logr)
	workspaces := service.NewWorkspaceRegistry(metrics, logr)

	scheduler := service.NewTaskScheduler(service.StaggerConfig{
		Print: cfg.Batch.PrintStagger,
		Save:  cfg.Batch.SaveStagger,
	}, metrics, logr)
	worker := service.NewBatchWorker(scheduler, logr)
	queue := jobs.NewQueue("report-batches", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Batch.Workers,
		BufferSize: cfg.Batch.BufferSize,
		Logger:     logr,
	})
	queue.Start(ctx)
	bulk := service.NewBulkReportService(rankings, students, renders, printer, saver, queue, validate, logr)

	cleanup := service.NewCleanupService(store, cfg.Reports.SignedURLTTL, cfg.Reports.CleanupSchedule, logr)
	if err := cleanup.Start(); err != nil {
		sugar.Fatalw("invalid cleanup schedule", "schedule", cfg.Reports.CleanupSchedule, "error", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"renderer": func(context.Context) error { return renders.Available() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router.Register(r, prefix, router.Handlers{
		Auth:      authSvc,
		Metrics:   handler.NewMetricsHandler(metrics, checks),
		Selection: handler.NewSelectionHandler(workspaces),
		Batch:     handler.NewBatchHandler(workspaces, bulk),
		Ranking:   handler.NewRankingHandler(rankings, exports),
		Export:    handler.NewExportHandler(exports),
		Logger:    logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("http shutdown incomplete", "error", err)
	}
	cleanup.Stop()
	queue.Stop()
}
