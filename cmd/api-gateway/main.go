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
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-scheduler/api/swagger"
	"github.com/noah-isme/class-scheduler/internal/handler"
	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/internal/repository"
	"github.com/noah-isme/class-scheduler/internal/service"
	"github.com/noah-isme/class-scheduler/pkg/cache"
	"github.com/noah-isme/class-scheduler/pkg/config"
	"github.com/noah-isme/class-scheduler/pkg/database"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
	"github.com/noah-isme/class-scheduler/pkg/events"
	"github.com/noah-isme/class-scheduler/pkg/logger"
	"github.com/noah-isme/class-scheduler/pkg/mailer"
)

// @title Class Scheduler API
// @version 1.0.0
// @description Professor availability, class rescheduling and calendar projection.
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logr.Fatal("document store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logr.Warn("document store close failed", zap.Error(err))
		}
	}()
	store = docstore.Instrument(store, metrics.ObserveStoreOperation)

	checks := map[string]handler.ReadinessCheck{
		"store": func(ctx context.Context) error { return docstore.Ping(ctx, store) },
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["cache"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	notifier, err := service.NewNotificationService(newSender(cfg, logr), metrics, logr, service.NotificationServiceConfig{
		Enabled:    cfg.Notifications.Enabled,
		AppName:    cfg.Notifications.AppName,
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	if err != nil {
		logr.Fatal("notification service init failed", zap.Error(err))
	}
	notifier.Start(ctx)
	defer notifier.Stop()

	publisher := newPublisher(cfg, logr)
	defer publisher.Close() //nolint:errcheck

	validate := validator.New()
	opts := service.SchedulingOptions{
		DefaultRules: models.ReschedulingRules{
			MinAdvanceHours:        cfg.Scheduling.MinAdvanceHours,
			MaxReschedulesPerWeek:  cfg.Scheduling.MaxPerWeek,
			MaxReschedulesPerMonth: cfg.Scheduling.MaxPerMonth,
		},
		WindowDays:   cfg.Scheduling.WindowDays,
		HorizonWeeks: cfg.Scheduling.CalendarHorizonWeeks,
		ClassMinutes: cfg.Scheduling.ClassMinutes,
		WeekStart:    cfg.Scheduling.WeekStart,
		Location:     cfg.Scheduling.Location,
		CacheTTL:     cfg.Cache.TTL,
	}

	professors := repository.NewProfessorRepository(store)
	students := repository.NewStudentRepository(store)
	reschedules := repository.NewRescheduleRepository(store)
	audits := repository.NewAuditRepository(store)

	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Professors:  professors,
		Students:    students,
		Reschedules: reschedules,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
		Options:     opts,
	})
	rescheduleSvc := service.NewRescheduleService(service.RescheduleServiceParams{
		Professors:  professors,
		Students:    students,
		Reschedules: reschedules,
		Notifier:    notifier,
		Publisher:   publisher,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Options:     opts,
	})
	calendarSvc := service.NewCalendarService(service.CalendarServiceParams{
		Professors:  professors,
		Students:    students,
		Reschedules: reschedules,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
		Options:     opts,
	})
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
		Leeway:            30 * time.Second,
	})

	r := newRouter(cfg, logr, routeDeps{
		auth:         authSvc,
		metrics:      metrics,
		audit:        audits,
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		reschedules:  handler.NewRescheduleHandler(rescheduleSvc),
		calendar:     handler.NewCalendarHandler(calendarSvc),
		observe:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory, "":
		return docstore.NewMemoryStore(), nil
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		store := docstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case config.StoreMongo:
		client, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return docstore.NewMongoStore(client, cfg.Mongo.Database), nil
	case config.StoreFirestore:
		client, err := database.NewFirestore(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		return docstore.NewFirestoreStore(client), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newSender(cfg *config.Config, logr *zap.Logger) mailer.Sender {
	if cfg.Notifications.Provider == "sendgrid" {
		if cfg.Notifications.SendGrid == "" {
			logr.Warn("sendgrid selected without api key, falling back to log sender")
			return mailer.NewLogSender(logr)
		}
		return mailer.NewSendGridSender(cfg.Notifications.SendGrid, cfg.Notifications.AppName, cfg.Notifications.FromEmail)
	}
	return mailer.NewLogSender(logr)
}

func newPublisher(cfg *config.Config, logr *zap.Logger) events.Publisher {
	if !cfg.Events.Enabled {
		return events.NopPublisher{}
	}
	publisher, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
	if err != nil {
		logr.Warn("kafka publisher unavailable, events disabled", zap.Error(err))
		return events.NopPublisher{}
	}
	return publisher
}
