package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Session     *handlers.SessionHandler
	Overview    *handlers.OverviewHandler
	Line        *handlers.LineHandler
	Maintenance *handlers.MaintenanceHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/session", h.Session.SignIn)

	authed := api.Group("", h.Session.RequireSession())
	authed.GET("/session", h.Session.Current)
	authed.DELETE("/session", h.Session.SignOut)

	authed.GET("/overview", h.Overview.Snapshot)
	authed.GET("/overview/stream", h.Overview.Stream)

	authed.GET("/days", h.Line.Days)
	lines := authed.Group("/lines/:line")
	lines.GET("/detail", h.Line.Detail)
	lines.GET("/pareto", h.Line.Pareto)
	lines.GET("/report", h.Line.Report)
	lines.POST("/report/share", h.Line.Share)

	authed.POST("/maintenance/cleanup", h.Maintenance.Cleanup)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
