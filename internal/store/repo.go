package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"skywatch/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func New(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&ForecastRecord{}); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// InsertForecast persists a snapshot as a new record.
func (r *Repo) InsertForecast(ctx context.Context, f *models.AstronomyForecastData) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding forecast: %w", err)
	}

	rec := ForecastRecord{
		ID:        uuid.New(),
		Location:  f.Location.Name,
		FetchedAt: f.LastUpdated,
		Days:      len(f.Days),
		Events:    f.EventCount(),
		Payload:   payload,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// ListRecent returns the newest records first, capped at limit.
func (r *Repo) ListRecent(ctx context.Context, location string, limit int) ([]ForecastRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var records []ForecastRecord
	q := r.db.WithContext(ctx).Order("fetched_at DESC").Limit(limit)
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// PruneOlderThan deletes records whose snapshot predates the cutoff.
func (r *Repo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("fetched_at < ?", cutoff).Delete(&ForecastRecord{})
	return res.RowsAffected, res.Error
}
