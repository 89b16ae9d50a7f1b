package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/analysis"
	"github.com/mamadbah2/shiftboard/internal/service/reporting"
)

// ReportExporter produces shareable report artifacts.
type ReportExporter interface {
	PDF(ctx context.Context, doc reporting.Document) ([]byte, error)
	Share(ctx context.Context, doc reporting.Document, to string) (string, error)
}

// LineHandler serves the per-line detail, Pareto breakdown and reports.
type LineHandler struct {
	records  RecordReader
	analyzer *analysis.Analyzer
	exporter ReportExporter
	site     Site
	logger   *zap.Logger
}

// NewLineHandler constructs the HTTP handler adapter.
func NewLineHandler(records RecordReader, analyzer *analysis.Analyzer, exporter ReportExporter, site Site, logger *zap.Logger) *LineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(nil)
	}
	return &LineHandler{records: records, analyzer: analyzer, exporter: exporter, site: site, logger: logger}
}

type lineQuery struct {
	line  models.LineCode
	day   models.CalendarDate
	shift models.ShiftCode
}

func (h *LineHandler) parse(c *gin.Context) (lineQuery, bool) {
	line, ok := h.site.lineParam(c)
	if !ok {
		return lineQuery{}, false
	}
	day, ok := h.site.dateParam(c)
	if !ok {
		return lineQuery{}, false
	}
	shift, ok := h.site.shiftParam(c)
	if !ok {
		return lineQuery{}, false
	}
	return lineQuery{line: line, day: day, shift: shift}, true
}

func (h *LineHandler) load(c *gin.Context, q lineQuery) ([]models.HourlyRecord, bool) {
	records, err := h.records.Snapshot(c.Request.Context(), models.RecordFilter{Line: q.line})
	if err != nil {
		h.logger.Error("line snapshot failed", zap.String("line", string(q.line)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load records"})
		return nil, false
	}
	return records, true
}

// Detail returns the chronological timeline, totals and efficiency of one line and day.
func (h *LineHandler) Detail(c *gin.Context) {
	q, ok := h.parse(c)
	if !ok {
		return
	}
	records, ok := h.load(c, q)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":   q.line,
		"result": h.analyzer.AnalyzeDay(records, q.day, q.shift),
	})
}

// Pareto returns the stoppage breakdown at the level selected by category and cause.
func (h *LineHandler) Pareto(c *gin.Context) {
	q, ok := h.parse(c)
	if !ok {
		return
	}
	drill := analysis.Drill{Category: c.Query("category"), Cause: c.Query("cause")}
	if drill.Category == "" && drill.Cause != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cause requires category"})
		return
	}
	records, ok := h.load(c, q)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":   q.line,
		"pareto": h.analyzer.Pareto(records, q.day, q.shift, drill),
	})
}

func (h *LineHandler) document(c *gin.Context) (reporting.Document, bool) {
	q, ok := h.parse(c)
	if !ok {
		return reporting.Document{}, false
	}
	records, ok := h.load(c, q)
	if !ok {
		return reporting.Document{}, false
	}
	day := h.analyzer.AnalyzeDay(records, q.day, q.shift)
	pareto := h.analyzer.Pareto(records, q.day, q.shift, analysis.Drill{})
	return reporting.Build(q.line, day, pareto, time.Now()), true
}

// Report renders the line report as html (default), pdf or png (Pareto chart only).
func (h *LineHandler) Report(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "html"))
	if format != "html" && format != "pdf" && format != "png" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be html, pdf or png"})
		return
	}

	doc, ok := h.document(c)
	if !ok {
		return
	}

	switch format {
	case "png":
		png, err := reporting.RenderChart(doc.Pareto)
		if err != nil {
			h.logger.Error("chart rendering failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to render chart"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	case "pdf":
		pdf, err := h.exporter.PDF(c.Request.Context(), doc)
		if errors.Is(err, reporting.ErrPDFUnavailable) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			h.logger.Error("pdf export failed", zap.String("report_id", doc.ID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export report"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+doc.FileName("pdf")+`"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	default:
		html, err := reporting.RenderHTML(doc)
		if err != nil {
			h.logger.Error("report rendering failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to render report"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", html)
	}
}

type shareRequest struct {
	To string `json:"to" binding:"required"`
}

// Share sends the line report to a phone number.
func (h *LineHandler) Share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, ok := h.document(c)
	if !ok {
		return
	}

	id, err := h.exporter.Share(c.Request.Context(), doc, req.To)
	if errors.Is(err, reporting.ErrSharingUnavailable) || errors.Is(err, reporting.ErrPDFUnavailable) {
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("report sharing failed", zap.String("report_id", doc.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to share report"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"report_id": doc.ID, "message_id": id})
}

// Days lists the days that have records, grouped by month.
func (h *LineHandler) Days(c *gin.Context) {
	months, err := h.records.ListDistinctDays(c.Request.Context())
	if err != nil {
		h.logger.Error("listing record days failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to list days"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}
