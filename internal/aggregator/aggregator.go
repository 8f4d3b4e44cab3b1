package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"skywatch/internal/metrics"
	"skywatch/internal/models"
	"skywatch/internal/moonphase"
	"skywatch/internal/providers"
)

// Aggregator fans a fetch out to every enabled provider, buckets the results
// by calendar day, and assembles an immutable forecast snapshot. Individual
// provider failures are logged and counted; they never fail the forecast.
type Aggregator struct {
	providers []providers.Provider
	moon      *moonphase.Estimator
	logger    *slog.Logger
}

func New(provs []providers.Provider, moon *moonphase.Estimator, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{providers: provs, moon: moon, logger: logger}
}

type fetchResult struct {
	provider string
	events   []models.AstronomyEvent
	err      error
}

// Forecast builds a snapshot covering days calendar days starting at the UTC
// day containing start.
func (a *Aggregator) Forecast(ctx context.Context, loc models.Location, start time.Time, days int) (*models.AstronomyForecastData, error) {
	if days <= 0 {
		days = 7
	}
	firstDay := start.UTC().Truncate(24 * time.Hour)
	lastInstant := firstDay.AddDate(0, 0, days).Add(-time.Second)

	results := a.fetchAll(ctx, loc, firstDay, lastInstant)

	byDate := make(map[time.Time][]models.AstronomyEvent)
	for _, res := range results {
		if res.err != nil {
			a.logger.Warn("provider fetch failed",
				"provider", res.provider,
				"reason", providers.Reason(res.err),
				"error", res.err)
			metrics.IncProviderError(res.provider, providers.Reason(res.err))
			continue
		}
		metrics.ObserveProviderEvents(res.provider, len(res.events))
		for _, ev := range res.events {
			d := ev.Date()
			byDate[d] = append(byDate[d], ev)
		}
	}

	forecast := &models.AstronomyForecastData{
		Location:    loc,
		Days:        make([]models.AstronomyData, 0, days),
		LastUpdated: time.Now().UTC(),
	}

	for i := 0; i < days; i++ {
		date := firstDay.AddDate(0, 0, i)
		day := models.AstronomyData{
			Date:   date,
			Events: byDate[date],
		}
		day.SortEvents()

		phase, illum := a.moon.PhaseFor(ctx, date)
		day.MoonPhase = phase
		day.MoonIllumination = &illum

		if sunrise, sunset, ok := sunTimes(date, loc.Latitude, loc.Longitude); ok {
			day.Sunrise = &sunrise
			day.Sunset = &sunset
		}

		forecast.Days = append(forecast.Days, day)
	}

	if err := forecast.Validate(); err != nil {
		return nil, fmt.Errorf("assembled forecast is invalid: %w", err)
	}
	return forecast, nil
}

// fetchAll runs every enabled provider in its own goroutine and joins them.
// Results land in a pre-sized slice so no locking is needed.
func (a *Aggregator) fetchAll(ctx context.Context, loc models.Location, start, end time.Time) []fetchResult {
	enabled := make([]providers.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if p.Enabled() {
			enabled = append(enabled, p)
		}
	}

	results := make([]fetchResult, len(enabled))
	var wg sync.WaitGroup

	for i, p := range enabled {
		wg.Add(1)
		go func(idx int, prov providers.Provider) {
			defer wg.Done()
			events, err := prov.FetchEvents(ctx, loc, start, end)
			results[idx] = fetchResult{provider: prov.Name(), events: events, err: err}
		}(i, p)
	}

	wg.Wait()
	return results
}
