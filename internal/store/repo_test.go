package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"skywatch/internal/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	repo, err := New(db)
	if err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return repo
}

func snapshot(location string, fetchedAt time.Time) *models.AstronomyForecastData {
	return &models.AstronomyForecastData{
		Location:    models.Location{Name: location, Latitude: 52.52, Longitude: 13.405},
		Days:        []models.AstronomyData{{Date: fetchedAt.Truncate(24 * time.Hour)}},
		LastUpdated: fetchedAt,
	}
}

func TestInsertAndListRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := repo.InsertForecast(ctx, snapshot("Berlin", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	records, err := repo.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].FetchedAt.After(records[i-1].FetchedAt) {
			t.Fatalf("records not newest-first at index %d", i)
		}
	}

	var f models.AstronomyForecastData
	if err := json.Unmarshal(records[0].Payload, &f); err != nil {
		t.Fatalf("payload not a valid snapshot: %v", err)
	}
	if f.Location.Name != "Berlin" {
		t.Fatalf("unexpected payload location %q", f.Location.Name)
	}
}

func TestListRecent_FiltersByLocation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.InsertForecast(ctx, snapshot("Berlin", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertForecast(ctx, snapshot("Oslo", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	records, err := repo.ListRecent(ctx, "Oslo", 10)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(records) != 1 || records[0].Location != "Oslo" {
		t.Fatalf("expected only the Oslo record, got %+v", records)
	}
}

func TestListRecent_ClampsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 15; i++ {
		if err := repo.InsertForecast(ctx, snapshot("Berlin", now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	records, err := repo.ListRecent(ctx, "", 0)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected default limit of 10, got %d", len(records))
	}
}

func TestPruneOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.InsertForecast(ctx, snapshot("Berlin", now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertForecast(ctx, snapshot("Berlin", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := repo.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("pruning: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned record, got %d", n)
	}

	records, err := repo.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the recent record to survive, got %d records", len(records))
	}
}
