package payment

import (
	"errors"
	"net/http"

	"mixlab/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the gateway endpoints on rg (usually /api/webhooks).
// callbackAuth guards the push webhook only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, callbackAuth gin.HandlerFunc) {
	rg.POST("/xendit", callbackAuth, h.Webhook)
	rg.GET("/xendit/verify/:bookingId", h.Verify)
}

// Webhook always acknowledges an authenticated delivery with 200 so the
// gateway does not retry; processing failures are logged for follow-up.
func (h *Handler) Webhook(c *gin.Context) {
	var evt WebhookEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		h.log.Error("xendit webhook payload invalid", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true, "error": "invalid payload"})
		return
	}

	if _, err := h.service.HandleWebhook(c.Request.Context(), evt); err != nil {
		h.log.Error("xendit webhook processing failed",
			zap.String("external_id", evt.ExternalID),
			zap.String("status", evt.Status),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"received": true, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) Verify(c *gin.Context) {
	out, err := h.service.Verify(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify payment")
		return
	}
	response.Success(c, http.StatusOK, out.Booking)
}
