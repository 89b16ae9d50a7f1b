package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/aggregation"
	"github.com/mamadbah2/shiftboard/internal/service/overview"
)

const heartbeatInterval = 15 * time.Second

// RecordReader loads record snapshots and the record calendar.
type RecordReader interface {
	Snapshot(ctx context.Context, filter models.RecordFilter) ([]models.HourlyRecord, error)
	ListDistinctDays(ctx context.Context) ([]models.MonthDays, error)
}

// ViewOpener opens live overview views owned by a session.
type ViewOpener interface {
	Open(sessionID string) (*overview.View, func())
}

// OverviewHandler serves the per-line overview, once or as a live stream.
type OverviewHandler struct {
	records RecordReader
	views   ViewOpener
	site    Site
	logger  *zap.Logger
}

// NewOverviewHandler constructs the HTTP handler adapter.
func NewOverviewHandler(records RecordReader, views ViewOpener, site Site, logger *zap.Logger) *OverviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewHandler{records: records, views: views, site: site, logger: logger}
}

// Snapshot returns the current overview for the selected shift.
func (h *OverviewHandler) Snapshot(c *gin.Context) {
	shift, ok := h.site.shiftParam(c)
	if !ok {
		return
	}

	records, err := h.records.Snapshot(c.Request.Context(), models.RecordFilter{Shift: shift})
	if err != nil {
		h.logger.Error("overview snapshot failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load records"})
		return
	}

	report := aggregation.AggregateWithReport(records, h.site.Lines)
	for line, n := range report.Dropped {
		h.logger.Debug("records of unknown line ignored", zap.String("line", string(line)), zap.Int("count", n))
	}

	c.JSON(http.StatusOK, overview.State{Shift: shift, Lines: report.Lines, At: time.Now()})
}

// Stream pushes a new overview as a server-sent event every time the records change. The view
// is released when the client disconnects or its session signs out. A failed subscription ends
// the stream with an error event.
func (h *OverviewHandler) Stream(c *gin.Context) {
	shift, ok := h.site.shiftParam(c)
	if !ok {
		return
	}

	view, release := h.views.Open(c.GetString(ctxSessionIDKey))
	defer release()

	if err := view.Select(c.Request.Context(), shift); err != nil {
		h.logger.Error("overview subscription failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to subscribe to records"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	updates := view.Updates()
	failures := view.Failures()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case state, open := <-updates:
			if !open {
				c.SSEvent("closed", gin.H{"reason": "session ended"})
				return false
			}
			c.SSEvent("overview", state)
			return true
		case err := <-failures:
			h.logger.Warn("overview stream interrupted", zap.Error(err))
			c.SSEvent("error", gin.H{"error": "live updates interrupted"})
			return false
		}
	})
}
