package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/middleware"
	"github.com/noah-isme/studymate-api/internal/models"
)

// Handlers groups every resource handler mounted by RegisterRoutes.
type Handlers struct {
	Availability *AvailabilityHandler
	TimeOff      *TimeOffHandler
	Session      *SessionHandler
	Attendance   *AttendanceHandler
	Export       *ExportHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the health endpoints on r and the authenticated API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth gin.HandlerFunc, logger *zap.Logger) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix, middleware.WithResponseMeta(), auth)
	tutorOnly := middleware.RequireRoles(models.RoleTutor)
	participants := middleware.RequireRoles(models.RoleTutor, models.RoleStudent)
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(logger, action) }

	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)

	me := api.Group("/tutors/me", tutorOnly)
	me.GET("/availability", h.Availability.List)
	me.POST("/availability", audit("availability.create"), h.Availability.Create)
	me.PATCH("/availability/:id", audit("availability.update"), h.Availability.Update)
	me.PATCH("/availability/:id/toggle", audit("availability.toggle"), h.Availability.Toggle)
	me.DELETE("/availability/:id", audit("availability.delete"), h.Availability.Delete)
	me.GET("/time-off", h.TimeOff.ListTimeOff)
	me.POST("/time-off", audit("time_off.create"), h.TimeOff.CreateTimeOff)
	me.DELETE("/time-off/:id", audit("time_off.delete"), h.TimeOff.DeleteTimeOff)
	me.GET("/leave", h.TimeOff.ListLeave)
	me.POST("/leave", audit("leave.create"), h.TimeOff.CreateLeave)
	me.DELETE("/leave/:id", audit("leave.delete"), h.TimeOff.DeleteLeave)
	me.GET("/schedule/export", h.Export.Schedule)

	api.GET("/tutors/:id/available-slots", h.Session.AvailableSlots)

	sessions := api.Group("/sessions")
	sessions.POST("", participants, audit("session.create"), h.Session.Create)
	sessions.GET("/upcoming", participants, h.Session.Upcoming)
	sessions.POST("/:id/approve", tutorOnly, audit("session.approve"), h.Session.Approve)
	sessions.POST("/:id/reject", tutorOnly, audit("session.reject"), h.Session.Reject)
	sessions.POST("/:id/cancel", participants, audit("session.cancel"), h.Session.Cancel)
	sessions.POST("/:id/complete", tutorOnly, audit("session.complete"), h.Session.Complete)
	sessions.PATCH("/:id/reschedule", participants, audit("session.reschedule"), h.Session.Reschedule)
	sessions.GET("/:id/join", participants, h.Session.JoinConfig)
	sessions.GET("/:id/attendance", tutorOnly, h.Attendance.List)
	sessions.POST("/:id/attendance", tutorOnly, audit("attendance.mark"), h.Attendance.Mark)
	sessions.POST("/:id/attendance/all-present", tutorOnly, audit("attendance.mark_all"), h.Attendance.MarkAllPresent)

	api.PATCH("/attendance/:id/toggle", tutorOnly, audit("attendance.toggle"), h.Attendance.Toggle)

	classes := api.Group("/classes/:id/sessions")
	classes.GET("", h.Session.ListClassSessions)
	classes.POST("/extra", tutorOnly, audit("session.extra"), h.Session.CreateExtra)
	classes.POST("/dbout", tutorOnly, audit("session.dbout"), h.Session.CreateDbout)
}
