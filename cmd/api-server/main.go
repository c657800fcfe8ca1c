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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hfiuc/uc-reservation-api/api/swagger"
	"github.com/hfiuc/uc-reservation-api/internal/handler"
	"github.com/hfiuc/uc-reservation-api/internal/middleware"
	"github.com/hfiuc/uc-reservation-api/internal/repository"
	"github.com/hfiuc/uc-reservation-api/internal/service"
	"github.com/hfiuc/uc-reservation-api/pkg/cache"
	"github.com/hfiuc/uc-reservation-api/pkg/captcha"
	"github.com/hfiuc/uc-reservation-api/pkg/config"
	"github.com/hfiuc/uc-reservation-api/pkg/database"
	"github.com/hfiuc/uc-reservation-api/pkg/jobs"
	"github.com/hfiuc/uc-reservation-api/pkg/logger"
	"github.com/hfiuc/uc-reservation-api/pkg/mailer"
	corsmiddleware "github.com/hfiuc/uc-reservation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hfiuc/uc-reservation-api/pkg/middleware/requestid"
	"github.com/hfiuc/uc-reservation-api/pkg/scheduler"
)

// @title UC Reservation API
// @version 1.0.0
// @description Facility reservation admission, approval and analytics service
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// the report cache degrades to direct reads without Redis
		logr.Sugar().Warnw("connect redis", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := jobs.NewDispatcher(jobs.DispatcherConfig{
		Workers: cfg.SMTP.DispatchersN,
		Logger:  logr,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	reservationRepo := repository.NewReservationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	approverRepo := repository.NewApproverRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	oplogRepo := repository.NewOperationLogRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	txManager := repository.NewTxManager(db)

	authService := service.NewAuthService(adminRepo, cfg.JWT.Secret,
		cfg.JWT.Expiration, cfg.JWT.LinkTokenTTL, cfg.Links.AdminBaseURL, logr)

	mail := mailer.New(cfg.SMTP)
	notifier := service.NewMailNotifier(mail, dispatcher, authService, logr)

	metricsService := service.NewMetricsService()

	approvalService := service.NewApprovalService(reservationRepo, approverRepo,
		analyticsRepo, oplogRepo, txManager, notifier, metricsService, logr)

	var autoDecider service.AutoDecider
	if cfg.AutoApproval.Enabled {
		decider := service.NewHTTPDecider(cfg.AutoApproval.Endpoint,
			cfg.AutoApproval.APIKey, cfg.AutoApproval.Timeout)
		autoDecider = service.NewAutoApprover(decider, approvalService, adminRepo,
			cfg.AutoApproval.SystemAdminEmail, logr)
	}

	admissionService := service.NewAdmissionService(service.AdmissionServiceDeps{
		Reservations: reservationRepo,
		Rooms:        catalogRepo,
		Policies:     policyRepo,
		Approvers:    approverRepo,
		Admins:       adminRepo,
		Analytics:    analyticsRepo,
		Oplog:        oplogRepo,
		Tx:           txManager,
		Captcha:      captcha.NewTurnstile(cfg.Turnstile, logr),
		Notifier:     notifier,
		Dispatcher:   dispatcher,
		AutoDecider:  autoDecider,
		Metrics:      metricsService,
		Logger:       logr,
	})

	var tokenizer service.Tokenizer
	if gse, err := service.NewGseTokenizer(); err != nil {
		logr.Sugar().Warnw("load segmentation dictionary", "error", err)
	} else {
		tokenizer = gse
	}

	analyticsService := service.NewAnalyticsService(analyticsRepo, reservationRepo,
		cacheRepo, tokenizer, cfg.Analytics.WeeklyCacheTTL, logr)
	catalogService := service.NewCatalogService(catalogRepo, policyRepo, approverRepo, logr)
	reportService := service.NewReportService(reservationRepo, catalogRepo,
		analyticsService, mail, cfg.Reports.Recipients, logr)

	sched := scheduler.New(logr)
	if err := sched.Add(cfg.Reports.DailyReportCron, "daily-report", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := reportService.DailyReport(ctx); err != nil {
			logr.Sugar().Errorw("daily report", "error", err)
		}
	}); err != nil {
		logr.Sugar().Fatalw("schedule daily report", "error", err)
	}
	if err := sched.Add(cfg.Reports.CachePurgeCron, "cache-purge", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := reportService.PurgeAnalyticsCaches(ctx); err != nil {
			logr.Sugar().Errorw("cache purge", "error", err)
		}
	}); err != nil {
		logr.Sugar().Fatalw("schedule cache purge", "error", err)
	}
	sched.Start()
	defer sched.Stop()

	r := gin.New()
	r.Use(middleware.Recovery(accessLogRepo, logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.AccessLog(accessLogRepo, analyticsService, logr))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handler.RouterDeps{
		Reservations: handler.NewReservationHandler(admissionService, approvalService),
		Analytics:    handler.NewAnalyticsHandler(analyticsService),
		Catalog:      handler.NewCatalogHandler(catalogService),
		Auth:         handler.NewAuthHandler(authService, oplogRepo),
		AuthService:  authService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
