package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/config"
	"github.com/mamadbah2/shiftboard/internal/events"
	"github.com/mamadbah2/shiftboard/internal/repository/mongodb"
	"github.com/mamadbah2/shiftboard/internal/repository/sheets"
	"github.com/mamadbah2/shiftboard/internal/scheduler"
	"github.com/mamadbah2/shiftboard/internal/server/handlers"
	"github.com/mamadbah2/shiftboard/internal/server/router"
	"github.com/mamadbah2/shiftboard/internal/service/analysis"
	"github.com/mamadbah2/shiftboard/internal/service/maintenance"
	"github.com/mamadbah2/shiftboard/internal/service/overview"
	"github.com/mamadbah2/shiftboard/internal/service/reporting"
	"github.com/mamadbah2/shiftboard/internal/service/session"
	"github.com/mamadbah2/shiftboard/pkg/clients/gotenberg"
	"github.com/mamadbah2/shiftboard/pkg/clients/identity"
	"github.com/mamadbah2/shiftboard/pkg/clients/whatsapp"
	"github.com/mamadbah2/shiftboard/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Site.Location()
	lines := cfg.Site.LineCodes()
	calendar := cfg.Site.Calendar()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB, loc, baseLogger.Named("repo.mongodb"))
	cancelConnect()
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var store session.Store = session.NewMemoryStore()
	if cfg.Session.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr, DB: cfg.Session.RedisDB})
		defer func() { _ = redisClient.Close() }()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			baseLogger.Fatal("failed to reach redis", zap.Error(err))
		}
		store = session.NewRedisStore(redisClient)
		baseLogger.Info("redis session store enabled", zap.String("addr", cfg.Session.RedisAddr))
	}
	sessions := session.NewManager(cfg.Session, identity.NewClient(cfg.Identity), store, baseLogger.Named("svc.session"))

	views := overview.NewRegistry(mongoRepo, lines, baseLogger.Named("svc.overview"))
	sessions.OnSessionChange(func(change session.Change) {
		if change.User == nil {
			views.CloseSession(change.SessionID)
		}
	})

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
		baseLogger.Info("maintenance audit events enabled", zap.String("topic", cfg.Kafka.Topic))
	}
	maintenanceSvc := maintenance.NewService(mongoRepo, cfg.Maintenance.ConfirmationSecret, loc, publisher, baseLogger.Named("svc.maintenance"))

	var renderer gotenberg.Client
	if cfg.Renderer.URL != "" {
		renderer = gotenberg.NewClient(cfg.Renderer)
	} else {
		baseLogger.Warn("pdf renderer url missing, pdf export disabled")
	}
	var messenger whatsapp.Client
	if cfg.WhatsApp.AccessToken != "" {
		messenger = whatsapp.NewClient(cfg.WhatsApp)
	} else {
		baseLogger.Warn("whatsapp token missing, report sharing disabled")
	}
	exporter := reporting.NewExporter(renderer, messenger, baseLogger.Named("svc.reporting"))

	analyzer := analysis.NewAnalyzer(calendar)

	var summaries scheduler.SummaryPublisher
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		summaries = reporting.NewSummaryService(mongoRepo, sheetsRepo, cfg.Sheets.SummaryRange, analyzer, lines, baseLogger.Named("svc.summary"))
	}

	sched := scheduler.NewScheduler(scheduler.Options{
		RetentionSchedule: cfg.Maintenance.RetentionCron,
		RetentionDays:     cfg.Maintenance.RetentionDays,
		SummarySchedule:   cfg.Reporting.DailySummaryCron,
		Location:          loc,
	}, maintenanceSvc, summaries, baseLogger.Named("scheduler"))
	if err := sched.Register(); err != nil {
		baseLogger.Fatal("failed to schedule jobs", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	site := handlers.Site{Lines: lines, Shifts: calendar.Shifts(), Location: loc}
	engine := router.New(router.Handlers{
		Session:     handlers.NewSessionHandler(sessions, baseLogger.Named("handlers.session")),
		Overview:    handlers.NewOverviewHandler(mongoRepo, views, site, baseLogger.Named("handlers.overview")),
		Line:        handlers.NewLineHandler(mongoRepo, analyzer, exporter, site, baseLogger.Named("handlers.line")),
		Maintenance: handlers.NewMaintenanceHandler(maintenanceSvc, baseLogger.Named("handlers.maintenance")),
	}, cfg.Server.AllowedOrigins, baseLogger.Named("router"))

	// WriteTimeout stays unset so the overview stream is not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Int("lines", len(lines)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
