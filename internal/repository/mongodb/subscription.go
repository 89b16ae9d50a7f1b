package mongodb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// Subscription delivers a fresh snapshot every time the collection changes. Only the latest
// undelivered snapshot is kept; a slow consumer skips intermediate ones.
type Subscription struct {
	updates chan models.Snapshot
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// Snapshots returns the delivery channel. It is closed once the subscription ends.
func (s *Subscription) Snapshots() <-chan models.Snapshot { return s.updates }

// Err reports the error that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// publish replaces any pending snapshot with snap.
func (s *Subscription) publish(snap models.Snapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// Subscribe starts a live subscription for filter. The first snapshot is loaded before
// returning so an unreachable store is reported to the caller immediately.
func (r *MongoDBRepository) Subscribe(ctx context.Context, filter models.RecordFilter) (models.SnapshotStream, error) {
	initial, err := r.Snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		updates: make(chan models.Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	sub.publish(models.Snapshot{Filter: filter, Records: initial, At: time.Now()})

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		r.follow(subCtx, filter, sub)
	}()

	return sub, nil
}

func (r *MongoDBRepository) follow(ctx context.Context, filter models.RecordFilter, sub *Subscription) {
	log := r.logger.With(zap.String("line", string(filter.Line)), zap.String("shift", string(filter.Shift)))

	stream, err := r.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		log.Info("change stream unavailable, polling instead", zap.Error(err), zap.Duration("interval", r.pollInterval))
		r.poll(ctx, filter, sub)
		return
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		// Drain whatever else is already buffered so a burst of writes costs one reload.
		for stream.TryNext(ctx) {
		}
		if !r.refresh(ctx, filter, sub, log) {
			return
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Warn("change stream ended", zap.Error(err))
		sub.fail(err)
	}
}

func (r *MongoDBRepository) poll(ctx context.Context, filter models.RecordFilter, sub *Subscription) {
	interval := r.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := r.logger.With(zap.String("line", string(filter.Line)), zap.String("shift", string(filter.Shift)))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.refresh(ctx, filter, sub, log) {
				return
			}
		}
	}
}

// refresh reloads the snapshot and reports whether the subscription should continue.
func (r *MongoDBRepository) refresh(ctx context.Context, filter models.RecordFilter, sub *Subscription, log *zap.Logger) bool {
	records, err := r.Snapshot(ctx, filter)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Error("snapshot reload failed", zap.Error(err))
		sub.fail(err)
		return false
	}
	sub.publish(models.Snapshot{Filter: filter, Records: records, At: time.Now()})
	return true
}
