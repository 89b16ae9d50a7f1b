package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/maintenance"
)

// Cleaner runs confirmation-gated bulk deletes.
type Cleaner interface {
	Cleanup(ctx context.Context, req maintenance.Request) (maintenance.Result, error)
}

// MaintenanceHandler exposes bulk record deletion.
type MaintenanceHandler struct {
	svc    Cleaner
	logger *zap.Logger
}

// NewMaintenanceHandler constructs the HTTP handler adapter.
func NewMaintenanceHandler(svc Cleaner, logger *zap.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceHandler{svc: svc, logger: logger}
}

type cleanupRequest struct {
	Mode         maintenance.Mode    `json:"mode" binding:"required"`
	Day          models.CalendarDate `json:"day"`
	Confirmation string              `json:"confirmation"`
}

// Cleanup deletes records. The response always carries the removed count, also when the
// delete stopped part way.
func (h *MaintenanceHandler) Cleanup(c *gin.Context) {
	var body cleanupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := ""
	if user, ok := c.Get(ctxUserKey); ok {
		actor = user.(*models.User).Email
	}

	res, err := h.svc.Cleanup(c.Request.Context(), maintenance.Request{
		Mode:         body.Mode,
		Day:          body.Day,
		Confirmation: body.Confirmation,
		Actor:        actor,
	})
	switch {
	case errors.Is(err, maintenance.ErrConfirmationMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "confirmation does not match"})
	case errors.Is(err, maintenance.ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("cleanup failed", zap.Int("removed", res.Removed), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cleanup interrupted", "removed": res.Removed})
	default:
		c.JSON(http.StatusOK, res)
	}
}
