package handler

import (
	"errors"
	"net/http"
	"time"

	"notification-relay/internal/presence"
	"notification-relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresenceRequest - отчет страницы о своем состоянии.
type PresenceRequest struct {
	State      string `json:"state" binding:"required,oneof=foreground background"`
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,min=1"`
}

// Handler обслуживает HTTP API релея: health check и отчеты о присутствии.
type Handler struct {
	tracker    presence.Tracker
	logger     *zap.Logger
	defaultTTL time.Duration
	secret     string
}

func NewHandler(tracker presence.Tracker, logger *zap.Logger, defaultTTL time.Duration, interServiceSecret string) *Handler {
	return &Handler{
		tracker:    tracker,
		logger:     logger.Named("http_handler"),
		defaultTTL: defaultTTL,
		secret:     interServiceSecret,
	}
}

// RegisterRoutes регистрирует маршруты в роутере.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	internal := router.Group("/internal")
	internal.Use(InternalServiceAuth(h.secret, service.InternalServiceTokenHeader, h.logger))
	internal.PUT("/presence/:user_id", h.reportPresence)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) reportPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.State {
	case presence.StateForeground:
		ttl := h.defaultTTL
		if req.TTLSeconds > 0 {
			ttl = time.Duration(req.TTLSeconds) * time.Second
		}
		err = h.tracker.MarkForeground(c.Request.Context(), userID, ttl)
	case presence.StateBackground:
		err = h.tracker.MarkBackground(c.Request.Context(), userID)
	default:
		err = errors.New("unknown presence state")
	}

	if err != nil {
		h.logger.Error("Ошибка сохранения присутствия", zap.String("user_id", userID.String()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update presence"})
		return
	}

	c.Status(http.StatusNoContent)
}
