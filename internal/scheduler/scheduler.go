package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/maintenance"
)

// Retainer removes records past the retention window.
type Retainer interface {
	Retain(ctx context.Context, now time.Time, days int) (maintenance.Result, error)
}

// SummaryPublisher appends the daily summary of one day.
type SummaryPublisher interface {
	PublishDay(ctx context.Context, day models.CalendarDate) (int, error)
}

// Options selects which jobs run. An empty schedule disables its job.
type Options struct {
	RetentionSchedule string
	RetentionDays     int
	SummarySchedule   string
	Location          *time.Location
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	retainer  Retainer
	publisher SummaryPublisher
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a scheduler evaluating schedules in opts.Location. Either collaborator
// may be nil, disabling its job.
func NewScheduler(opts Options, retainer Retainer, publisher SummaryPublisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(opts.Location)),
		retainer:  retainer,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// Register adds the enabled jobs. It fails on an invalid cron expression.
func (s *Scheduler) Register() error {
	if s.retainer != nil && s.opts.RetentionSchedule != "" && s.opts.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(s.opts.RetentionSchedule, s.runRetention); err != nil {
			return fmt.Errorf("schedule retention job: %w", err)
		}
		s.logger.Info("retention job scheduled", zap.String("schedule", s.opts.RetentionSchedule), zap.Int("days", s.opts.RetentionDays))
	}
	if s.publisher != nil && s.opts.SummarySchedule != "" {
		if _, err := s.cron.AddFunc(s.opts.SummarySchedule, s.runDailySummary); err != nil {
			return fmt.Errorf("schedule daily summary job: %w", err)
		}
		s.logger.Info("daily summary job scheduled", zap.String("schedule", s.opts.SummarySchedule))
	}
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := s.retainer.Retain(ctx, s.now(), s.opts.RetentionDays)
	if err != nil {
		s.logger.Error("retention job failed", zap.Int("removed", res.Removed), zap.Error(err))
		return
	}
	s.logger.Info("retention job completed", zap.Int("removed", res.Removed))
}

// runDailySummary publishes the previous site day, which is complete once the late shift ends.
func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	day := models.DateOf(s.now().In(s.opts.Location).AddDate(0, 0, -1))
	n, err := s.publisher.PublishDay(ctx, day)
	if err != nil {
		s.logger.Error("daily summary job failed", zap.String("day", day.String()), zap.Int("rows", n), zap.Error(err))
		return
	}
	s.logger.Info("daily summary job completed", zap.String("day", day.String()), zap.Int("rows", n))
}
