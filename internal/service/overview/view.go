package overview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/aggregation"
)

// ErrClosed is returned when a closed view is asked to select a shift.
var ErrClosed = errors.New("overview view closed")

// Source opens live record subscriptions.
type Source interface {
	Subscribe(ctx context.Context, filter models.RecordFilter) (models.SnapshotStream, error)
}

// State is the derived overview for one shift selection.
type State struct {
	Shift models.ShiftCode       `json:"shift,omitempty"`
	Lines []models.LineAggregate `json:"lines"`
	At    time.Time              `json:"at"`
}

// View holds one viewer's overview. It owns at most one subscription at a time and replaces its
// state wholesale on every snapshot.
type View struct {
	source Source
	lines  []models.LineCode
	logger *zap.Logger

	selectMu sync.Mutex
	stream   models.SnapshotStream
	pumpDone chan struct{}
	closed   bool

	stateMu sync.RWMutex
	current State

	errMu    sync.Mutex
	err      error
	failures chan error

	updates   chan State
	closeOnce sync.Once
}

// NewView creates a view over the given known lines. Call Select to start receiving updates.
func NewView(source Source, lines []models.LineCode, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{
		source:  source,
		lines:   lines,
		logger:  logger,
		current: State{Lines: aggregation.Aggregate(nil, lines)},
		updates:  make(chan State, 1),
		failures: make(chan error, 1),
	}
}

// Select switches the view to shift ("" means all shifts). The previous subscription is fully
// released before the new one is opened.
func (v *View) Select(ctx context.Context, shift models.ShiftCode) error {
	v.selectMu.Lock()
	defer v.selectMu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.teardown()
	v.resetErr()

	stream, err := v.source.Subscribe(ctx, models.RecordFilter{Shift: shift})
	if err != nil {
		return err
	}

	v.stream = stream
	v.pumpDone = make(chan struct{})
	go v.pump(stream, shift, v.pumpDone)
	return nil
}

// Current returns the latest derived state.
func (v *View) Current() State {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.current
}

// Updates delivers each new state. Only the latest undelivered state is kept. The channel is
// closed by Close.
func (v *View) Updates() <-chan State { return v.updates }

// Failures delivers the error that ended the current subscription early. After a failure no
// further updates arrive until Select is called again.
func (v *View) Failures() <-chan error { return v.failures }

// Err reports why the current subscription ended, or nil while it is live.
func (v *View) Err() error {
	v.errMu.Lock()
	defer v.errMu.Unlock()
	return v.err
}

func (v *View) resetErr() {
	v.errMu.Lock()
	v.err = nil
	v.errMu.Unlock()
	select {
	case <-v.failures:
	default:
	}
}

// Close releases the subscription. It is safe to call more than once.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.selectMu.Lock()
		defer v.selectMu.Unlock()
		v.closed = true
		v.teardown()
		close(v.updates)
	})
}

// teardown must be called with selectMu held.
func (v *View) teardown() {
	if v.stream == nil {
		return
	}
	v.stream.Close()
	<-v.pumpDone
	v.stream = nil
	v.pumpDone = nil
}

func (v *View) pump(stream models.SnapshotStream, shift models.ShiftCode, done chan struct{}) {
	defer close(done)

	for snap := range stream.Snapshots() {
		report := aggregation.AggregateWithReport(snap.Records, v.lines)
		for line, n := range report.Dropped {
			v.logger.Debug("records of unknown line ignored", zap.String("line", string(line)), zap.Int("count", n))
		}

		state := State{Shift: shift, Lines: report.Lines, At: snap.At}
		v.stateMu.Lock()
		v.current = state
		v.stateMu.Unlock()
		v.publish(state)
	}

	err := stream.Err()
	if err == nil {
		return
	}
	v.logger.Warn("overview subscription ended", zap.String("shift", string(shift)), zap.Error(err))

	v.errMu.Lock()
	v.err = err
	v.errMu.Unlock()
	select {
	case v.failures <- err:
	default:
	}
}

func (v *View) publish(state State) {
	for {
		select {
		case v.updates <- state:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}
