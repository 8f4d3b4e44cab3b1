package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skywatch/internal/models"
)

const defaultEPICBaseURL = "https://api.nasa.gov/EPIC"

// EPICProvider fetches whole-earth imagery metadata from NASA EPIC. Each day
// in the range yields at most one satellite-image event summarizing the
// available captures; days with no imagery (EPIC lags a day or two behind)
// are skipped silently.
type EPICProvider struct {
	apiKey     string
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewEPICProvider(apiKey, baseURL string, enabled bool) *EPICProvider {
	if baseURL == "" {
		baseURL = defaultEPICBaseURL
	}
	return &EPICProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		enabled:    enabled,
		httpClient: newHTTPClient(),
	}
}

func (p *EPICProvider) Name() string  { return "epic" }
func (p *EPICProvider) Enabled() bool { return p.enabled }

func (p *EPICProvider) FetchEvents(ctx context.Context, _ models.Location, start, end time.Time) ([]models.AstronomyEvent, error) {
	var events []models.AstronomyEvent
	var lastErr error

	for day := start.UTC().Truncate(24 * time.Hour); !day.After(end); day = day.AddDate(0, 0, 1) {
		ev, err := p.fetchDay(ctx, day)
		if err != nil {
			lastErr = err
			continue
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}

	if len(events) == 0 && lastErr != nil {
		return nil, fmt.Errorf("fetching EPIC imagery: %w", lastErr)
	}
	return clampToRange(events, start, end), nil
}

func (p *EPICProvider) fetchDay(ctx context.Context, day time.Time) (*models.AstronomyEvent, error) {
	dateStr := day.Format("2006-01-02")
	u := fmt.Sprintf("%s/api/natural/date/%s?api_key=%s", p.baseURL, dateStr, p.key())

	var images []struct {
		Identifier string `json:"identifier"`
		Caption    string `json:"caption"`
		Image      string `json:"image"`
		Date       string `json:"date"`
	}
	if err := fetchJSON(ctx, p.httpClient, u, &images); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	first := images[0]
	captured, err := time.ParseInLocation("2006-01-02 15:04:05", first.Date, time.UTC)
	if err != nil {
		captured = day
	}

	archiveURL := fmt.Sprintf(
		"%s/archive/natural/%s/png/%s.png?api_key=%s",
		p.baseURL, day.Format("2006/01/02"), first.Image, p.key(),
	)

	return &models.AstronomyEvent{
		Type:        models.EventSatelliteImage,
		Title:       fmt.Sprintf("Earth imagery (%d captures)", len(images)),
		Description: first.Caption,
		StartTime:   captured,
		Links:       []string{archiveURL},
		Priority:    PrioritySatelliteImage,
		Metadata: map[string]string{
			"identifier": first.Identifier,
			"captures":   fmt.Sprintf("%d", len(images)),
		},
	}, nil
}

func (p *EPICProvider) key() string {
	if p.apiKey == "" {
		return "DEMO_KEY"
	}
	return p.apiKey
}
