package handler

import "github.com/gin-gonic/gin"

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Events   *EventHandler
	Calendar *CalendarHandler
	Pets     *PetHandler
	Metrics  *MetricsHandler
	Realtime *RealtimeHandler
}

// RegisterRoutes mounts the probes at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	if h.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Summary)
	}
	if h.Events != nil {
		events := api.Group("/events")
		events.GET("", h.Events.List)
		events.POST("", h.Events.Create)
		if h.Realtime != nil {
			events.GET("/stream", h.Realtime.Stream)
		}
		events.GET("/:id", h.Events.Get)
		events.PUT("/:id", h.Events.Update)
		events.DELETE("/:id", h.Events.Delete)
		events.PATCH("/:id/done", h.Events.Done)
	}
	if h.Calendar != nil {
		api.GET("/calendar/view", h.Calendar.View)
		api.GET("/calendar/export", h.Calendar.Export)
		api.POST(shareRoute, h.Calendar.Share)
		api.GET(sharedRoute+":token", h.Calendar.Shared)
	}
	if h.Pets != nil {
		api.GET("/pets", h.Pets.List)
		api.POST("/pets", h.Pets.Create)
	}
}
