package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// ErrSessionNotFound is returned by stores for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when saving a session whose expiry has already passed.
var ErrSessionExpired = errors.New("session already expired")

// Record is a persisted session.
type Record struct {
	ID        string      `json:"id"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Store persists live sessions.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	sessions map[string]Record
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Record),
		now:      time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, record Record) error {
	if !record.ExpiresAt.IsZero() && !s.now().Before(record.ExpiresAt) {
		return ErrSessionExpired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = record
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	record, exists := s.sessions[id]
	s.mu.RUnlock()
	if !exists {
		return Record{}, ErrSessionNotFound
	}
	if !record.ExpiresAt.IsZero() && !s.now().Before(record.ExpiresAt) {
		_ = s.Delete(context.Background(), id)
		return Record{}, ErrSessionNotFound
	}
	return record, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RedisStore keeps sessions in redis with a TTL matching their expiry, so every replica sees
// the same sign-ins.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps a redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client, prefix: "shiftboard:session:", now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	// A zero expiry keeps the key until Delete.
	var ttl time.Duration
	if !record.ExpiresAt.IsZero() {
		if ttl = record.ExpiresAt.Sub(s.now()); ttl <= 0 {
			return ErrSessionExpired
		}
	}
	if err := s.redis.Set(ctx, s.prefix+record.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.redis.Get(ctx, s.prefix+id).Result()
	if err == redis.Nil {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load session: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, s.prefix+id).Err()
}
