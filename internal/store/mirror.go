package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"skywatch/internal/models"
)

// Mirror publishes the latest snapshot to Redis so sibling services can read
// it without calling this service.
type Mirror struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMirror(rdb *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{rdb: rdb, ttl: ttl}
}

func key(location string) string { return "astro:forecast:" + location }

// Set writes the snapshot under the location key with the cache TTL.
func (m *Mirror) Set(ctx context.Context, f *models.AstronomyForecastData) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, key(f.Location.Name), payload, m.ttl).Err()
}

// Latest reads back the mirrored snapshot, returning nil when the key is
// missing or expired.
func (m *Mirror) Latest(ctx context.Context, location string) (*models.AstronomyForecastData, error) {
	b, err := m.rdb.Get(ctx, key(location)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f models.AstronomyForecastData
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
