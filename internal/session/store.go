package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farebridge/agency-booking/internal/models"
)

// ErrNotFound is returned when no session exists for the booking ID.
var ErrNotFound = errors.New("booking session not found")

// Store holds at most one BookingSession per booking attempt. Writes
// overwrite wholesale; callers read-modify-write. There is exactly one
// logical writer at a time, so the last write wins by design.
type Store interface {
	Save(ctx context.Context, s *models.BookingSession) error
	Get(ctx context.Context, bookingID string) (*models.BookingSession, error)
	Delete(ctx context.Context, bookingID string) error
}

const (
	keyPrefix  = "booking:session:"
	sessionTTL = 2 * time.Hour
)

// RedisStore is the durable store; sessions survive a frontend reload and
// are cleared on cancellation, payment success or upstream session expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.BookingSession) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.client.Set(ctx, keyPrefix+s.ID, data, sessionTTL).Err()
}

func (r *RedisStore) Get(ctx context.Context, bookingID string) (*models.BookingSession, error) {
	data, err := r.client.Get(ctx, keyPrefix+bookingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s models.BookingSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, bookingID string) error {
	return r.client.Del(ctx, keyPrefix+bookingID).Err()
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
