package main

import (
	"context"
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

	_ "github.com/noah-isme/burs-api/api/swagger"
	"github.com/noah-isme/burs-api/internal/handler"
	"github.com/noah-isme/burs-api/internal/middleware"
	"github.com/noah-isme/burs-api/internal/repository"
	"github.com/noah-isme/burs-api/internal/router"
	"github.com/noah-isme/burs-api/internal/scheduler"
	"github.com/noah-isme/burs-api/internal/service"
	"github.com/noah-isme/burs-api/pkg/cache"
	"github.com/noah-isme/burs-api/pkg/config"
	"github.com/noah-isme/burs-api/pkg/database"
	"github.com/noah-isme/burs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/burs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/burs-api/pkg/middleware/requestid"
	"github.com/noah-isme/burs-api/pkg/storage"
)

// @title Burs API
// @version 0.1.0
// @description Scholarship back office for a charitable foundation
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs dashboard caching; the API runs without it.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	termRepo := repository.NewTermRepository(db)
	configRepo := repository.NewScholarshipConfigRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	studentTermRepo := repository.NewStudentTermRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	cutRepo := repository.NewCutRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "burs-api",
	})
	termSvc := service.NewTermService(termRepo, validate, logr)
	configSvc := service.NewScholarshipConfigService(configRepo, validate, logr, cfg.Scholarship)
	studentSvc := service.NewStudentService(studentRepo, studentTermRepo, termRepo, configSvc, validate, logr)
	memberSvc := service.NewMemberService(memberRepo, validate, logr)
	commitmentSvc := service.NewCommitmentService(commitmentRepo, memberRepo, validate, logr, cfg.Scholarship.MonthsPerYear)
	paymentSvc := service.NewPaymentService(paymentRepo, commitmentRepo, studentTermRepo, validate, logr)
	ledgerSvc := service.NewLedgerService(ledgerRepo, termRepo, studentTermRepo, validate, logr)
	cutSvc := service.NewCutService(termRepo, studentTermRepo, transcriptRepo, meetingRepo, cutRepo, ledgerRepo, configSvc, logr, cfg.Scholarship)
	promotionSvc := service.NewPromotionService(termRepo, studentTermRepo, logr, cfg.Promotion, cfg.Scholarship)
	meetingSvc := service.NewMeetingService(meetingRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(transcriptRepo, studentTermRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(commitmentRepo, paymentRepo, studentTermRepo, cacheRepo, metricsSvc, logr, cfg.Dashboard.CacheTTL)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Term:       handler.NewTermHandler(termSvc, configSvc),
		Student:    handler.NewStudentHandler(studentSvc, transcriptSvc),
		Member:     handler.NewMemberHandler(memberSvc, commitmentSvc),
		Commitment: handler.NewCommitmentHandler(commitmentSvc),
		Payment:    handler.NewPaymentHandler(paymentSvc),
		Ledger:     handler.NewLedgerHandler(ledgerSvc),
		Cut:        handler.NewCutHandler(cutSvc),
		Meeting:    handler.NewMeetingHandler(meetingSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}
	if cfg.Dashboard.Enabled {
		handlers.Dashboard = handler.NewDashboardHandler(dashboardSvc)
	}

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(ledgerSvc, dashboardSvc, commitmentSvc, logr)
		reportSvc = service.NewReportService(reportRepo, exportSvc, store, signer, validate, logr,
			cfg.Reports.WorkerConcurrency, cfg.Reports.WorkerRetries)
		handlers.Report = handler.NewReportHandler(reportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, handlers, authSvc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if reportSvc != nil {
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	if cfg.Promotion.Enabled {
		job, err := scheduler.NewPromotionJob(cfg.Promotion.CronSpec, scheduler.RunnerFunc(func(ctx context.Context, date time.Time) error {
			_, err := promotionSvc.RunIfDue(ctx, date)
			return err
		}), logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to schedule promotion job", "error", err)
		}
		job.Start()
		defer job.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
