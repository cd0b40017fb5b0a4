package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type realtimeHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// RealtimeHandler upgrades calendar clients to the change feed.
type RealtimeHandler struct {
	hub    realtimeHub
	logger *zap.Logger
}

// NewRealtimeHandler constructs the handler.
func NewRealtimeHandler(hub realtimeHub, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Stream godoc
// @Summary Subscribe to event changes
// @Description Websocket feed; every mutation pushes an events.changed notice so clients refetch their window.
// @Tags Events
// @Success 101
// @Router /events/stream [get]
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}
