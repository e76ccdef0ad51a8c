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
	"go.uber.org/zap"

	_ "github.com/noah-isme/studymate-api/api/swagger"
	"github.com/noah-isme/studymate-api/internal/handler"
	"github.com/noah-isme/studymate-api/internal/middleware"
	"github.com/noah-isme/studymate-api/internal/repository"
	"github.com/noah-isme/studymate-api/internal/service"
	"github.com/noah-isme/studymate-api/pkg/cache"
	"github.com/noah-isme/studymate-api/pkg/config"
	"github.com/noah-isme/studymate-api/pkg/database"
	"github.com/noah-isme/studymate-api/pkg/jobs"
	"github.com/noah-isme/studymate-api/pkg/logger"
	"github.com/noah-isme/studymate-api/pkg/meeting"
	corsmiddleware "github.com/noah-isme/studymate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studymate-api/pkg/middleware/requestid"
)

// @title StudyMate API
// @version 1.0.0
// @description Session scheduling and conflict engine for the StudyMate tutoring marketplace.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := validator.New()

	var (
		locker   service.TutorLocker = service.NewLocalTutorLocker()
		cacheSvc                     = service.NewCacheService(nil, metrics, cfg.Cache.UpcomingTTL, logr, false)
	)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close() //nolint:errcheck
		locker = repository.NewRedisTutorLocker(client, cfg.Scheduling.LockTTL, cfg.Scheduling.LockWait)
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Cache.UpcomingTTL, logr, true)
		logr.Info("redis enabled for tutor locks and caching")
	}

	availabilityRepo := repository.NewAvailabilityRepository(db)
	timeOffRepo := repository.NewTimeOffRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	rooms := meeting.NewIssuer(cfg.Meeting.BaseURL, cfg.Meeting.RoomPrefix)
	signer := meeting.NewJoinSigner(cfg.Meeting.JoinSecret, cfg.Meeting.JoinTTL)

	checker := service.NewConflictChecker(availabilityRepo, timeOffRepo, leaveRepo, sessionRepo, metrics, logr)
	generator := service.NewSessionGenerator(classRepo, sessionRepo, checker, rooms, locker, metrics, cacheSvc, cfg.Scheduling.GenerationWindowDays, logr)

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, sessionRepo, locker, metrics, validate, logr)
	timeOffSvc := service.NewTimeOffService(timeOffRepo, availabilityRepo, leaveRepo, sessionRepo, locker, metrics, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, sessionRepo, locker, metrics, validate, logr)
	sessionSvc := service.NewSessionService(
		sessionRepo,
		classRepo,
		enrollmentRepo,
		checker,
		generator,
		rooms,
		signer,
		locker,
		cacheSvc,
		metrics,
		service.SessionPolicy{
			NoticePeriod:           cfg.Scheduling.NoticePeriod,
			TutorSkipsAvailability: cfg.Scheduling.TutorSkipsAvailability,
			UpcomingTTL:            cfg.Cache.UpcomingTTL,
		},
		validate,
		logr,
	)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, enrollmentRepo, validate, logr)
	exportSvc := service.NewExportService(sessionRepo, validate, logr)
	lifecycleSvc := service.NewClassLifecycleService(classRepo, generator, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	actorSvc := service.NewActorService(profileRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lifecycleQueue *jobs.Queue
	if cfg.ClassJobs.Enabled {
		lifecycleQueue = jobs.NewQueue(service.JobClassLifecycle, lifecycleSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.ClassJobs.Workers,
			BufferSize: 4,
			MaxRetries: cfg.ClassJobs.Retries,
			RetryDelay: 30 * time.Second,
			Logger:     logr,
		})
		lifecycleQueue.Start(ctx)
		if err := lifecycleQueue.Every(cfg.ClassJobs.Interval, service.ClassLifecycleJob); err != nil {
			logr.Fatal("failed to schedule class lifecycle job", zap.Error(err))
		}
		logr.Info("class lifecycle worker started", zap.Duration("interval", cfg.ClassJobs.Interval))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		TimeOff:      handler.NewTimeOffHandler(timeOffSvc, leaveSvc),
		Session:      handler.NewSessionHandler(sessionSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Export:       handler.NewExportHandler(exportSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
	}, middleware.JWT(tokenSvc, actorSvc), logr)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if lifecycleQueue != nil {
		lifecycleQueue.Stop()
	}
}
