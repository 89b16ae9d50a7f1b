package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/events"
)

var (
	// ErrConfirmationMismatch is returned when the typed confirmation does not equal the
	// configured phrase. Nothing is deleted.
	ErrConfirmationMismatch = errors.New("confirmation does not match")
	// ErrInvalidMode is returned for unknown cleanup modes or a day mode without a day.
	ErrInvalidMode = errors.New("invalid cleanup request")
)

// Mode selects which records a cleanup removes.
type Mode string

const (
	ModeAll   Mode = "all"
	ModeOlder Mode = "older"
	ModeDay   Mode = "day"
)

// Deleter is the store surface maintenance needs.
type Deleter interface {
	DeleteAll(ctx context.Context) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	DeleteOnDay(ctx context.Context, day models.CalendarDate) (int, error)
}

// Request describes one cleanup. Day is required for ModeDay and is the cutoff for ModeOlder
// (records on days strictly before it are removed).
type Request struct {
	Mode         Mode                `json:"mode"`
	Day          models.CalendarDate `json:"-"`
	Confirmation string              `json:"confirmation"`
	Actor        string              `json:"-"`
}

// Result reports how many records were removed, also on partial failure.
type Result struct {
	Removed int `json:"removed"`
}

// Service runs confirmation-gated bulk deletes.
type Service struct {
	store     Deleter
	secret    string
	location  *time.Location
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService wires a maintenance service. loc is used to turn calendar days into cutoffs.
func NewService(store Deleter, secret string, loc *time.Location, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, secret: secret, location: loc, publisher: publisher, logger: logger}
}

// Cleanup checks the confirmation phrase and runs the selected delete once. There is no retry;
// a partial failure returns the removed count together with the error.
func (s *Service) Cleanup(ctx context.Context, req Request) (Result, error) {
	if s.secret == "" || req.Confirmation != s.secret {
		s.logger.Warn("cleanup confirmation mismatch", zap.String("mode", string(req.Mode)), zap.String("actor", req.Actor))
		return Result{}, ErrConfirmationMismatch
	}

	var (
		removed int
		err     error
	)
	switch req.Mode {
	case ModeAll:
		removed, err = s.store.DeleteAll(ctx)
	case ModeOlder:
		if req.Day.IsZero() {
			return Result{}, fmt.Errorf("%w: older mode needs a cutoff day", ErrInvalidMode)
		}
		removed, err = s.store.DeleteOlderThan(ctx, req.Day.Start(s.location))
	case ModeDay:
		if req.Day.IsZero() {
			return Result{}, fmt.Errorf("%w: day mode needs a day", ErrInvalidMode)
		}
		removed, err = s.store.DeleteOnDay(ctx, req.Day)
	default:
		return Result{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, req.Mode)
	}

	s.audit(ctx, req, removed, err)
	return Result{Removed: removed}, err
}

// Retain removes records older than days full days before now. It bypasses the confirmation
// phrase and is meant for the scheduled retention job.
func (s *Service) Retain(ctx context.Context, now time.Time, days int) (Result, error) {
	cutoff := models.DateOf(now.In(s.location).AddDate(0, 0, -days))
	req := Request{Mode: ModeOlder, Day: cutoff, Actor: "retention"}

	removed, err := s.store.DeleteOlderThan(ctx, cutoff.Start(s.location))
	s.audit(ctx, req, removed, err)
	return Result{Removed: removed}, err
}

func (s *Service) audit(ctx context.Context, req Request, removed int, err error) {
	event := events.MaintenanceEvent{
		Mode:      string(req.Mode),
		Actor:     req.Actor,
		Removed:   removed,
		Completed: err == nil,
		At:        time.Now(),
	}
	if !req.Day.IsZero() {
		event.Day = req.Day.String()
	}
	if err != nil {
		event.Error = err.Error()
	}

	fields := []zap.Field{zap.String("mode", event.Mode), zap.String("actor", event.Actor), zap.Int("removed", removed)}
	if err != nil {
		s.logger.Error("cleanup failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("cleanup completed", fields...)
	}

	if pubErr := s.publisher.PublishMaintenance(ctx, event); pubErr != nil {
		s.logger.Warn("failed to publish maintenance event", zap.Error(pubErr))
	}
}
