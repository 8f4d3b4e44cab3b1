package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"skywatch/internal/models"
	"skywatch/internal/tle"
)

const defaultPassesBaseURL = "https://api.open-notify.org"

const (
	passScanStep    = 60 * time.Second
	minPassDuration = 30 * time.Second
	maxTLEAge       = 7 * 24 * time.Hour
)

// ISSProvider predicts visible ISS passes over the observer location.
//
// The primary source is the remote pass-prediction API. When it is
// unreachable the provider propagates the orbit locally with SGP4 from a
// disk-cached TLE, mirroring the hybrid primary/fallback shape of the moon
// phase estimator.
type ISSProvider struct {
	baseURL         string
	enabled         bool
	minElevationDeg float64
	httpClient      *http.Client
	fetcher         *tle.Fetcher
	cache           *tle.Cache
}

func NewISSProvider(baseURL string, enabled bool, fetcher *tle.Fetcher, cache *tle.Cache) *ISSProvider {
	if baseURL == "" {
		baseURL = defaultPassesBaseURL
	}
	return &ISSProvider{
		baseURL:         baseURL,
		enabled:         enabled,
		minElevationDeg: 10,
		httpClient:      newHTTPClient(),
		fetcher:         fetcher,
		cache:           cache,
	}
}

func (p *ISSProvider) Name() string  { return "iss_passes" }
func (p *ISSProvider) Enabled() bool { return p.enabled }

func (p *ISSProvider) FetchEvents(ctx context.Context, loc models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	events, remoteErr := p.fetchRemote(ctx, loc, start, end)
	if remoteErr == nil {
		return events, nil
	}

	events, localErr := p.predictLocal(ctx, loc, start, end)
	if localErr != nil {
		return nil, fmt.Errorf("pass API failed (%v) and local prediction failed: %w", remoteErr, localErr)
	}
	return events, nil
}

func (p *ISSProvider) fetchRemote(ctx context.Context, loc models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	u := fmt.Sprintf("%s/iss-pass.json?lat=%.4f&lon=%.4f&n=50", p.baseURL, loc.Latitude, loc.Longitude)

	var payload struct {
		Response []struct {
			Risetime int64 `json:"risetime"`
			Duration int   `json:"duration"`
		} `json:"response"`
	}
	if err := fetchJSON(ctx, p.httpClient, u, &payload); err != nil {
		return nil, fmt.Errorf("fetching ISS passes: %w", err)
	}

	events := make([]models.AstronomyEvent, 0, len(payload.Response))
	for _, pass := range payload.Response {
		rise := time.Unix(pass.Risetime, 0).UTC()
		set := rise.Add(time.Duration(pass.Duration) * time.Second)
		events = append(events, p.passEvent(rise, set, 0))
	}
	return clampToRange(events, start, end), nil
}

func (p *ISSProvider) passEvent(rise, set time.Time, maxElevationDeg float64) models.AstronomyEvent {
	visibility := fmt.Sprintf("Visible for about %d minutes", int(set.Sub(rise).Minutes()))
	meta := map[string]string{"satellite": "ISS"}
	if maxElevationDeg > 0 {
		visibility = fmt.Sprintf("%s, max elevation %.0f°", visibility, maxElevationDeg)
		meta["max_elevation_deg"] = fmt.Sprintf("%.1f", maxElevationDeg)
		meta["source"] = "sgp4"
	}
	return models.AstronomyEvent{
		Type:       models.EventISSPass,
		Title:      "ISS pass",
		StartTime:  rise,
		EndTime:    &set,
		Visibility: visibility,
		Priority:   PriorityISSPass,
		Metadata:   meta,
	}
}

// loadTLE returns a usable element set, refreshing the disk cache when the
// cached set is older than maxTLEAge. A stale cached set still beats no set.
func (p *ISSProvider) loadTLE(ctx context.Context) (tle.TLE, error) {
	cached, cachedAt, cacheErr := p.cache.LoadLatest()
	if cacheErr == nil && time.Since(cachedAt) <= maxTLEAge {
		return cached, nil
	}

	fetched, fetchErr := p.fetcher.Fetch(ctx)
	if fetchErr == nil {
		if err := p.cache.Write(fetched, time.Now()); err != nil {
			// Prediction can proceed with an unpersisted set.
			return fetched, nil
		}
		return fetched, nil
	}

	if cacheErr == nil {
		return cached, nil
	}
	return tle.TLE{}, fmt.Errorf("no TLE available: %w", fetchErr)
}

func (p *ISSProvider) predictLocal(ctx context.Context, loc models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	set, err := p.loadTLE(ctx)
	if err != nil {
		return nil, err
	}

	sat := satellite.TLEToSat(set.Line1, set.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}

	obs := satellite.LatLong{
		Latitude:  loc.Latitude * math.Pi / 180,
		Longitude: loc.Longitude * math.Pi / 180,
	}

	var events []models.AstronomyEvent
	var rise time.Time
	var maxEl float64
	inPass := false

	for t := start.UTC(); !t.After(end); t = t.Add(passScanStep) {
		if ctx.Err() != nil {
			return events, nil
		}

		el, ok := elevationAt(sat, obs, t)
		if !ok {
			continue
		}

		switch {
		case el >= p.minElevationDeg && !inPass:
			inPass = true
			rise = t
			maxEl = el
		case el >= p.minElevationDeg && inPass:
			if el > maxEl {
				maxEl = el
			}
		case el < p.minElevationDeg && inPass:
			inPass = false
			if t.Sub(rise) >= minPassDuration {
				events = append(events, p.passEvent(rise, t, maxEl))
			}
		}
	}

	return clampToRange(events, start, end), nil
}

// elevationAt computes the satellite's elevation above the observer's
// horizon in degrees. Propagation failures show up as NaN output and are
// reported via ok=false.
func elevationAt(sat satellite.Satellite, obs satellite.LatLong, t time.Time) (float64, bool) {
	t = t.UTC()
	year, month, day := t.Date()
	pos, _ := satellite.Propagate(sat, year, int(month), day, t.Hour(), t.Minute(), t.Second())
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) {
		return 0, false
	}

	jday := satellite.JDay(year, int(month), day, t.Hour(), t.Minute(), t.Second())
	angles := satellite.ECIToLookAngles(pos, obs, 0, jday)
	return angles.El * 180 / math.Pi, true
}
