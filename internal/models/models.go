package models

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

// EventType identifies which kind of astronomy event a record describes.
type EventType string

const (
	EventAPOD            EventType = "apod"
	EventISSPass         EventType = "iss_pass"
	EventNearEarthObject EventType = "near_earth_object"
	EventMoonPhase       EventType = "moon_phase"
	EventPlanetary       EventType = "planetary"
	EventMeteorShower    EventType = "meteor_shower"
	EventSolar           EventType = "solar"
	EventSatelliteImage  EventType = "satellite_image"
)

// MoonPhase is one of the eight principal lunar phases.
type MoonPhase string

const (
	MoonNew            MoonPhase = "new_moon"
	MoonWaxingCrescent MoonPhase = "waxing_crescent"
	MoonFirstQuarter   MoonPhase = "first_quarter"
	MoonWaxingGibbous  MoonPhase = "waxing_gibbous"
	MoonFull           MoonPhase = "full_moon"
	MoonWaningGibbous  MoonPhase = "waning_gibbous"
	MoonLastQuarter    MoonPhase = "last_quarter"
	MoonWaningCrescent MoonPhase = "waning_crescent"
)

// Location is an observer position, built once from configuration.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

func (l Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("location name is required")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", l.Longitude)
	}
	return nil
}

// AstronomyEvent is a single dated event from one of the data providers.
type AstronomyEvent struct {
	Type        EventType         `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Visibility  string            `json:"visibility,omitempty"`
	Links       []string          `json:"links,omitempty"`
	Priority    int               `json:"priority"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (e AstronomyEvent) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("event title is required")
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("event %q has no start time", e.Title)
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("event %q ends before it starts", e.Title)
	}
	for _, link := range e.Links {
		u, err := url.ParseRequestURI(link)
		if err != nil {
			return fmt.Errorf("event %q has malformed link %q: %w", e.Title, link, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("event %q has link with unsupported scheme %q", e.Title, u.Scheme)
		}
	}
	return nil
}

// Date returns the UTC calendar day the event belongs to.
func (e AstronomyEvent) Date() time.Time {
	t := e.StartTime.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AstronomyData is one calendar day's bucket of events plus derived fields.
type AstronomyData struct {
	Date             time.Time        `json:"date"`
	Events           []AstronomyEvent `json:"events"`
	PrimaryEvent     *AstronomyEvent  `json:"primary_event,omitempty"`
	MoonPhase        MoonPhase        `json:"moon_phase,omitempty"`
	MoonIllumination *float64         `json:"moon_illumination,omitempty"`
	Sunrise          *time.Time       `json:"sunrise,omitempty"`
	Sunset           *time.Time       `json:"sunset,omitempty"`
}

// SortEvents orders the day's events by priority descending, then start time
// descending, and recomputes the primary event. The primary is the maximum
// by (priority, start time), so after sorting it is the first element.
func (d *AstronomyData) SortEvents() {
	sort.SliceStable(d.Events, func(i, j int) bool {
		if d.Events[i].Priority != d.Events[j].Priority {
			return d.Events[i].Priority > d.Events[j].Priority
		}
		return d.Events[i].StartTime.After(d.Events[j].StartTime)
	})
	if len(d.Events) > 0 {
		d.PrimaryEvent = &d.Events[0]
	} else {
		d.PrimaryEvent = nil
	}
}

// AstronomyForecastData is an immutable multi-day snapshot. It is replaced
// wholesale on each successful refresh and never mutated in place.
type AstronomyForecastData struct {
	Location    Location        `json:"location"`
	Days        []AstronomyData `json:"days"`
	LastUpdated time.Time       `json:"last_updated"`
}

// IsStale reports whether the snapshot is older than ttl. A snapshot aged
// exactly ttl is still considered fresh.
func (f *AstronomyForecastData) IsStale(ttl time.Duration) bool {
	return time.Since(f.LastUpdated) > ttl
}

// EventCount returns the total number of events across all days.
func (f *AstronomyForecastData) EventCount() int {
	n := 0
	for _, d := range f.Days {
		n += len(d.Events)
	}
	return n
}

// Validate checks the assembled snapshot. A forecast with zero events is
// valid; only structural corruption is an error.
func (f *AstronomyForecastData) Validate() error {
	if err := f.Location.Validate(); err != nil {
		return fmt.Errorf("invalid forecast location: %w", err)
	}
	if f.LastUpdated.IsZero() {
		return fmt.Errorf("forecast has no last-updated timestamp")
	}
	for i, day := range f.Days {
		if i > 0 && !f.Days[i-1].Date.Before(day.Date) {
			return fmt.Errorf("forecast days out of order at index %d", i)
		}
		for _, ev := range day.Events {
			if err := ev.Validate(); err != nil {
				return fmt.Errorf("invalid event on %s: %w", day.Date.Format("2006-01-02"), err)
			}
		}
	}
	return nil
}
