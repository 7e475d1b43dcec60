package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vkazmir/flightdesk/config"
	"github.com/vkazmir/flightdesk/internal/domain"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL: searchTTL,
	}
}

func (c *RedisCache) GetSearch(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error) {
	data, err := c.client.Get(ctx, searchKey(q)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var results []domain.FlightAvailability
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, q domain.SearchQuery, results []domain.FlightAvailability) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(q), payload, c.searchTTL).Err()
}

// AcquireSeatHold places a short-lived advisory hold on a seat so that two
// callers racing for the same seat fail fast instead of queueing on the
// flight lock. Correctness never depends on it: the booking engine re-checks
// the seat inside its exclusive scope.
func (c *RedisCache) AcquireSeatHold(ctx context.Context, flightID int64, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatHoldKey(flightID, seat), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSeatHold(ctx context.Context, flightID int64, seat string) error {
	return c.client.Del(ctx, seatHoldKey(flightID, seat)).Err()
}

func searchKey(q domain.SearchQuery) string {
	return fmt.Sprintf("cache:search:%s:%s:%s", q.DepartureCity, q.ArrivalCity, q.Date.UTC().Format("2006-01-02"))
}

func seatHoldKey(flightID int64, seat string) string {
	return fmt.Sprintf("hold:flight:%d:seat:%s", flightID, seat)
}
