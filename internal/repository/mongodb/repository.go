package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/config"
	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// ErrPartialDelete marks a bulk delete that stopped before removing every selected record.
// The accompanying count tells how many were removed.
var ErrPartialDelete = errors.New("bulk delete interrupted")

// Repository defines the record operations the dashboard needs from the store.
type Repository interface {
	Snapshot(ctx context.Context, filter models.RecordFilter) ([]models.HourlyRecord, error)
	Subscribe(ctx context.Context, filter models.RecordFilter) (models.SnapshotStream, error)
	DeleteAll(ctx context.Context) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	DeleteOnDay(ctx context.Context, day models.CalendarDate) (int, error)
	ListDistinctDays(ctx context.Context) ([]models.MonthDays, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client       *mongo.Client
	collection   *mongo.Collection
	location     *time.Location
	pollInterval time.Duration
	deleteBatch  int
	logger       *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, loc *time.Location, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:       client,
		collection:   client.Database(cfg.DBName).Collection(cfg.Collection),
		location:     loc,
		pollInterval: cfg.PollInterval,
		deleteBatch:  cfg.DeleteBatch,
		logger:       logger,
	}, nil
}

// Snapshot loads the full record set matching filter, most recent first.
func (r *MongoDBRepository) Snapshot(ctx context.Context, filter models.RecordFilter) ([]models.HourlyRecord, error) {
	query := bson.D{}
	if filter.Line != "" {
		query = append(query, bson.E{Key: fieldLine, Value: string(filter.Line)})
	}
	if filter.Shift != "" {
		query = append(query, bson.E{Key: fieldShift, Value: string(filter.Shift)})
	}

	// Equality filters are not combined with a sort so no composite index is required.
	opts := options.Find()
	if len(query) == 0 {
		opts.SetSort(bson.D{{Key: fieldTimestamp, Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.HourlyRecord, 0)
	for cursor.Next(ctx) {
		var doc recordDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Warn("skip undecodable record", zap.Error(err))
			continue
		}
		records = append(records, doc.toRecord(r.location))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if len(query) > 0 {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp.After(records[j].Timestamp)
		})
	}

	return records, nil
}

// DeleteAll removes every record.
func (r *MongoDBRepository) DeleteAll(ctx context.Context) (int, error) {
	return r.deleteMatching(ctx, func(models.HourlyRecord) bool { return true })
}

// DeleteOlderThan removes records whose local calendar day is before the cutoff's local day.
// Records without a usable date are kept.
func (r *MongoDBRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return r.deleteMatching(ctx, olderThan(models.DateOf(cutoff.In(r.location))))
}

// DeleteOnDay removes records whose local calendar day equals day.
func (r *MongoDBRepository) DeleteOnDay(ctx context.Context, day models.CalendarDate) (int, error) {
	return r.deleteMatching(ctx, onDay(day))
}

// ListDistinctDays returns the days that have records, grouped by month, most recent first.
func (r *MongoDBRepository) ListDistinctDays(ctx context.Context) ([]models.MonthDays, error) {
	var days []models.CalendarDate
	err := r.scanDates(ctx, func(record models.HourlyRecord, _ bson.RawValue) {
		if record.HasTimestamp() {
			days = append(days, models.DateOf(record.Timestamp))
		}
	})
	if err != nil {
		return nil, err
	}
	return groupByMonth(days), nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) deleteMatching(ctx context.Context, match func(models.HourlyRecord) bool) (int, error) {
	var ids []interface{}
	err := r.scanDates(ctx, func(record models.HourlyRecord, id bson.RawValue) {
		if match(record) {
			ids = append(ids, id)
		}
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for start := 0; start < len(ids); start += r.deleteBatch {
		end := start + r.deleteBatch
		if end > len(ids) {
			end = len(ids)
		}

		res, err := r.collection.DeleteMany(ctx, bson.D{{Key: fieldID, Value: bson.D{{Key: "$in", Value: ids[start:end]}}}})
		if err != nil {
			r.logger.Warn("bulk delete interrupted",
				zap.Int("removed", removed),
				zap.Int("selected", len(ids)),
				zap.Error(err))
			return removed, fmt.Errorf("%w after %d of %d records: %w", ErrPartialDelete, removed, len(ids), err)
		}
		removed += int(res.DeletedCount)
	}

	r.logger.Info("bulk delete completed", zap.Int("removed", removed))
	return removed, nil
}

// scanDates visits every record with only its id and date loaded. The raw _id is passed along so
// deletes match the stored value whatever its type.
func (r *MongoDBRepository) scanDates(ctx context.Context, visit func(models.HourlyRecord, bson.RawValue)) error {
	opts := options.Find().SetProjection(bson.D{{Key: fieldID, Value: 1}, {Key: fieldTimestamp, Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("scan record dates: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc recordDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		visit(doc.toRecord(r.location), doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate record dates: %w", err)
	}
	return nil
}
