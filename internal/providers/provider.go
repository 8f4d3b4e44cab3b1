package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"skywatch/internal/models"
)

// Provider is a single external astronomy data source. Implementations fail
// soft: the aggregator logs and counts an error, the other providers keep
// going.
type Provider interface {
	Name() string
	Enabled() bool
	FetchEvents(ctx context.Context, loc models.Location, start, end time.Time) ([]models.AstronomyEvent, error)
}

// Event priorities used when bucketing a day. Higher wins the primary slot.
const (
	PrioritySatelliteImage = 3
	PriorityAPOD           = 5
	PriorityNEO            = 6
	PriorityISSPass        = 8
	PriorityHazardousNEO   = 9
)

// StatusError is returned for non-200 provider responses so callers can
// classify auth and rate-limit failures.
type StatusError struct {
	Status int
	Body   string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.Status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Body)
}

// IsAuthFailure reports whether err is a 401/403 provider response.
func IsAuthFailure(err error) bool {
	var se StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
}

// IsRateLimited reports whether err is a 429 provider response.
func IsRateLimited(err error) bool {
	var se StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusTooManyRequests
}

// parseError marks payloads that arrived but could not be decoded.
type parseError struct{ err error }

func (e parseError) Error() string { return "parsing provider response: " + e.err.Error() }
func (e parseError) Unwrap() error { return e.err }

// Reason maps a provider error onto the failure taxonomy used for metrics:
// auth, rate_limit, parse, or network.
func Reason(err error) string {
	switch {
	case IsAuthFailure(err):
		return "auth"
	case IsRateLimited(err):
		return "rate_limit"
	}
	var pe parseError
	if errors.As(err, &pe) {
		return "parse"
	}
	var se StatusError
	if errors.As(err, &se) {
		return "status"
	}
	return "network"
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
	}
}

// fetchJSON performs a GET and decodes the body into v. Non-200 responses
// become a StatusError carrying a truncated body for logging.
func fetchJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return parseError{err: err}
	}
	return nil
}

// clampToRange drops events outside [start, end] and events that fail
// validation. Providers share it so a single bad record never poisons a
// whole response.
func clampToRange(events []models.AstronomyEvent, start, end time.Time) []models.AstronomyEvent {
	kept := events[:0]
	for _, ev := range events {
		if ev.StartTime.Before(start) || ev.StartTime.After(end) {
			continue
		}
		if err := ev.Validate(); err != nil {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}
