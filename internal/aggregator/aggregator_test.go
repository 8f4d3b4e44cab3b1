package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"skywatch/internal/models"
	"skywatch/internal/moonphase"
	"skywatch/internal/providers"
)

type stubProvider struct {
	name     string
	events   []models.AstronomyEvent
	err      error
	disabled bool
	calls    int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Enabled() bool { return !s.disabled }

func (s *stubProvider) FetchEvents(_ context.Context, _ models.Location, _, _ time.Time) ([]models.AstronomyEvent, error) {
	s.calls++
	return s.events, s.err
}

func testLocation() models.Location {
	return models.Location{Name: "Berlin", Latitude: 52.52, Longitude: 13.405}
}

// localMoon returns an estimator whose remote endpoint is unreachable, so
// every lookup uses the deterministic local calculation.
func localMoon() *moonphase.Estimator {
	return moonphase.NewEstimator("http://127.0.0.1:1")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dayEvent(title string, day time.Time, hour, priority int) models.AstronomyEvent {
	return models.AstronomyEvent{
		Type:      models.EventAPOD,
		Title:     title,
		StartTime: day.Add(time.Duration(hour) * time.Hour),
		Priority:  priority,
	}
}

func TestForecast_MergesProvidersByDate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	day0 := start.Truncate(24 * time.Hour)
	day1 := day0.AddDate(0, 0, 1)

	a := New([]providers.Provider{
		&stubProvider{name: "one", events: []models.AstronomyEvent{
			dayEvent("a", day0, 10, 5),
			dayEvent("b", day1, 8, 5),
		}},
		&stubProvider{name: "two", events: []models.AstronomyEvent{
			dayEvent("c", day0, 4, 8),
		}},
	}, localMoon(), quietLogger())

	f, err := a.Forecast(context.Background(), testLocation(), start, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(f.Days))
	}
	if len(f.Days[0].Events) != 2 {
		t.Fatalf("expected 2 events on day 0, got %d", len(f.Days[0].Events))
	}
	if len(f.Days[1].Events) != 1 {
		t.Fatalf("expected 1 event on day 1, got %d", len(f.Days[1].Events))
	}
	if len(f.Days[2].Events) != 0 {
		t.Fatalf("expected no events on day 2, got %d", len(f.Days[2].Events))
	}
	if f.Days[0].PrimaryEvent == nil || f.Days[0].PrimaryEvent.Title != "c" {
		t.Fatalf("expected highest-priority event as primary on day 0")
	}
}

func TestForecast_DaysAscendAndCarryMoonPhase(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a := New(nil, localMoon(), quietLogger())

	f, err := a.Forecast(context.Background(), testLocation(), start, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, day := range f.Days {
		if i > 0 && !f.Days[i-1].Date.Before(day.Date) {
			t.Fatalf("days not ascending at index %d", i)
		}
		if day.MoonPhase == "" {
			t.Fatalf("day %d missing moon phase", i)
		}
		if day.MoonIllumination == nil || *day.MoonIllumination < 0 || *day.MoonIllumination > 1 {
			t.Fatalf("day %d has invalid illumination", i)
		}
	}
}

func TestForecast_ToleratesProviderFailure(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	day0 := start.Truncate(24 * time.Hour)

	a := New([]providers.Provider{
		&stubProvider{name: "broken", err: errors.New("connection refused")},
		&stubProvider{name: "working", events: []models.AstronomyEvent{
			dayEvent("survivor", day0, 12, 5),
		}},
	}, localMoon(), quietLogger())

	f, err := a.Forecast(context.Background(), testLocation(), start, 2)
	if err != nil {
		t.Fatalf("a single provider failure must not fail the forecast: %v", err)
	}
	if f.EventCount() != 1 {
		t.Fatalf("expected only the surviving provider's event, got %d events", f.EventCount())
	}
	if f.Days[0].Events[0].Title != "survivor" {
		t.Fatalf("unexpected surviving event %q", f.Days[0].Events[0].Title)
	}
}

func TestForecast_AllProvidersFailingStillYieldsForecast(t *testing.T) {
	a := New([]providers.Provider{
		&stubProvider{name: "one", err: errors.New("down")},
		&stubProvider{name: "two", err: errors.New("down")},
	}, localMoon(), quietLogger())

	f, err := a.Forecast(context.Background(), testLocation(), time.Now(), 2)
	if err != nil {
		t.Fatalf("zero-event forecast is valid, got error: %v", err)
	}
	if f.EventCount() != 0 {
		t.Fatalf("expected zero events, got %d", f.EventCount())
	}
}

func TestForecast_SkipsDisabledProviders(t *testing.T) {
	disabled := &stubProvider{name: "disabled", disabled: true}
	a := New([]providers.Provider{disabled}, localMoon(), quietLogger())

	if _, err := a.Forecast(context.Background(), testLocation(), time.Now(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disabled.calls != 0 {
		t.Fatalf("disabled provider was called %d times", disabled.calls)
	}
}

func TestForecast_InvalidAssemblyErrors(t *testing.T) {
	a := New([]providers.Provider{
		&stubProvider{name: "bad", events: []models.AstronomyEvent{
			{Type: models.EventAPOD, Title: "", StartTime: time.Now(), Priority: 5},
		}},
	}, localMoon(), quietLogger())

	if _, err := a.Forecast(context.Background(), testLocation(), time.Now(), 1); err == nil {
		t.Fatalf("expected error for structurally invalid forecast")
	}
}
