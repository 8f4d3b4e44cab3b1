package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"skywatch/internal/models"
)

const defaultNeoWsBaseURL = "https://api.nasa.gov/neo/rest/v1/feed"

// NeoWsProvider fetches near-earth-object close approaches from NASA NeoWs.
// The feed endpoint caps the range at 7 days, which matches the default
// forecast horizon.
type NeoWsProvider struct {
	apiKey     string
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewNeoWsProvider(apiKey, baseURL string, enabled bool) *NeoWsProvider {
	if baseURL == "" {
		baseURL = defaultNeoWsBaseURL
	}
	return &NeoWsProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		enabled:    enabled,
		httpClient: newHTTPClient(),
	}
}

func (p *NeoWsProvider) Name() string  { return "neows" }
func (p *NeoWsProvider) Enabled() bool { return p.enabled }

type neoObject struct {
	Name              string `json:"name"`
	JPLURL            string `json:"nasa_jpl_url"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []struct {
		EpochMillis  int64 `json:"epoch_date_close_approach"`
		MissDistance struct {
			Kilometers string `json:"kilometers"`
		} `json:"miss_distance"`
		RelativeVelocity struct {
			KilometersPerHour string `json:"kilometers_per_hour"`
		} `json:"relative_velocity"`
	} `json:"close_approach_data"`
}

func (p *NeoWsProvider) FetchEvents(ctx context.Context, _ models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format("2006-01-02"))
	q.Set("end_date", end.UTC().Format("2006-01-02"))
	q.Set("api_key", p.key())

	var feed struct {
		NearEarthObjects map[string][]neoObject `json:"near_earth_objects"`
	}
	if err := fetchJSON(ctx, p.httpClient, p.baseURL+"?"+q.Encode(), &feed); err != nil {
		return nil, fmt.Errorf("fetching NeoWs feed: %w", err)
	}

	var events []models.AstronomyEvent
	for _, objects := range feed.NearEarthObjects {
		for _, obj := range objects {
			if len(obj.CloseApproachData) == 0 {
				continue
			}
			approach := obj.CloseApproachData[0]
			if approach.EpochMillis <= 0 {
				continue
			}

			priority := PriorityNEO
			visibility := "Telescope required"
			if obj.Hazardous {
				priority = PriorityHazardousNEO
				visibility = "Telescope required (flagged potentially hazardous)"
			}

			meta := map[string]string{
				"hazardous": strconv.FormatBool(obj.Hazardous),
			}
			if approach.MissDistance.Kilometers != "" {
				meta["miss_distance_km"] = approach.MissDistance.Kilometers
			}
			if approach.RelativeVelocity.KilometersPerHour != "" {
				meta["velocity_kmh"] = approach.RelativeVelocity.KilometersPerHour
			}

			var links []string
			if obj.JPLURL != "" {
				links = append(links, obj.JPLURL)
			}

			events = append(events, models.AstronomyEvent{
				Type:      models.EventNearEarthObject,
				Title:     "Close approach: " + obj.Name,
				Description: fmt.Sprintf(
					"Estimated diameter %.0f-%.0f m, miss distance %s km.",
					obj.EstimatedDiameter.Meters.Min,
					obj.EstimatedDiameter.Meters.Max,
					approach.MissDistance.Kilometers,
				),
				StartTime:  time.UnixMilli(approach.EpochMillis).UTC(),
				Visibility: visibility,
				Links:      links,
				Priority:   priority,
				Metadata:   meta,
			})
		}
	}

	return clampToRange(events, start, end), nil
}

func (p *NeoWsProvider) key() string {
	if p.apiKey == "" {
		return "DEMO_KEY"
	}
	return p.apiKey
}
