package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/internal/handler"
	"github.com/noah-isme/class-scheduler/internal/middleware"
	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/internal/repository"
	"github.com/noah-isme/class-scheduler/internal/service"
	"github.com/noah-isme/class-scheduler/pkg/config"
	"github.com/noah-isme/class-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-scheduler/pkg/middleware/requestid"
)

type routeDeps struct {
	auth         *service.AuthService
	metrics      *service.MetricsService
	audit        *repository.AuditRepository
	availability *handler.AvailabilityHandler
	reschedules  *handler.RescheduleHandler
	calendar     *handler.CalendarHandler
	observe      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.observe.Health)
	r.GET("/ready", deps.observe.Ready)
	r.GET("/metrics", deps.observe.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.audit, logr, action, resource)
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.auth))

	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), deps.observe.Summary)

	owner := middleware.ProfessorOwner()
	professors := api.Group("/professors/:id")
	professors.GET("/availability", owner, deps.availability.GetAvailability)
	professors.PUT("/availability", owner, audit("availability.replace", "professor"), deps.availability.SaveAvailability)
	professors.GET("/rules", owner, deps.availability.GetRules)
	professors.PUT("/rules", owner, audit("rules.update", "professor"), deps.availability.UpdateRules)
	professors.GET("/slots", deps.availability.BookableSlots)
	professors.GET("/calendar", owner, deps.calendar.ProfessorCalendar)
	professors.GET("/calendar/export", owner, deps.calendar.ExportProfessorCalendar)
	professors.GET("/reschedules", owner, deps.reschedules.ProfessorReschedules)

	student := middleware.RequireRoles(models.RoleStudent)
	reschedules := api.Group("/reschedules")
	reschedules.POST("", student, audit("reschedule.create", "reschedule"), deps.reschedules.Create)
	reschedules.GET("", student, deps.reschedules.History)
	reschedules.GET("/usage", student, deps.reschedules.Usage)
	reschedules.POST("/:id/cancel", audit("reschedule.cancel", "reschedule"), deps.reschedules.Cancel)

	api.GET("/students/me/calendar", student, deps.calendar.StudentCalendar)

	return r
}
