package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"skywatch/internal/models"
)

const defaultAPODBaseURL = "https://api.nasa.gov/planetary/apod"

// APODProvider fetches NASA's Astronomy Picture of the Day, one event per
// calendar day in the requested range.
type APODProvider struct {
	apiKey     string
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewAPODProvider(apiKey, baseURL string, enabled bool) *APODProvider {
	if baseURL == "" {
		baseURL = defaultAPODBaseURL
	}
	return &APODProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		enabled:    enabled,
		httpClient: newHTTPClient(),
	}
}

func (p *APODProvider) Name() string  { return "apod" }
func (p *APODProvider) Enabled() bool { return p.enabled }

func (p *APODProvider) FetchEvents(ctx context.Context, _ models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format("2006-01-02"))
	q.Set("end_date", end.UTC().Format("2006-01-02"))
	q.Set("api_key", p.key())

	var entries []struct {
		Date        string `json:"date"`
		Title       string `json:"title"`
		Explanation string `json:"explanation"`
		URL         string `json:"url"`
		HDURL       string `json:"hdurl"`
		MediaType   string `json:"media_type"`
		Copyright   string `json:"copyright"`
	}
	if err := fetchJSON(ctx, p.httpClient, p.baseURL+"?"+q.Encode(), &entries); err != nil {
		return nil, fmt.Errorf("fetching APOD feed: %w", err)
	}

	events := make([]models.AstronomyEvent, 0, len(entries))
	for _, e := range entries {
		date, err := time.ParseInLocation("2006-01-02", e.Date, time.UTC)
		if err != nil {
			continue
		}

		var links []string
		if e.URL != "" {
			links = append(links, e.URL)
		}
		if e.HDURL != "" {
			links = append(links, e.HDURL)
		}

		meta := map[string]string{"media_type": e.MediaType}
		if e.Copyright != "" {
			meta["copyright"] = e.Copyright
		}

		events = append(events, models.AstronomyEvent{
			Type:        models.EventAPOD,
			Title:       "Picture of the Day: " + e.Title,
			Description: e.Explanation,
			StartTime:   date,
			Priority:    PriorityAPOD,
			Links:       links,
			Metadata:    meta,
		})
	}

	return clampToRange(events, start, end), nil
}

func (p *APODProvider) key() string {
	if p.apiKey == "" {
		return "DEMO_KEY"
	}
	return p.apiKey
}
