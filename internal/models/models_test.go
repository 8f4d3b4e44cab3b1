package models

import (
	"testing"
	"time"
)

func TestEventValidate_RequiresTitle(t *testing.T) {
	ev := AstronomyEvent{Type: EventAPOD, StartTime: time.Now()}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected error for empty title")
	}
}

func TestEventValidate_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	ev := AstronomyEvent{Type: EventISSPass, Title: "ISS pass", StartTime: start, EndTime: &end}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected error when end precedes start")
	}
}

func TestEventValidate_Links(t *testing.T) {
	cases := []struct {
		link string
		ok   bool
	}{
		{"https://example.com/image.png", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
	}
	for _, c := range cases {
		ev := AstronomyEvent{
			Type:      EventAPOD,
			Title:     "Picture",
			StartTime: time.Now(),
			Links:     []string{c.link},
		}
		err := ev.Validate()
		if c.ok && err != nil {
			t.Fatalf("link %q: unexpected error %v", c.link, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("link %q: expected validation error", c.link)
		}
	}
}

func TestLocationValidate(t *testing.T) {
	good := Location{Name: "Berlin", Latitude: 52.52, Longitude: 13.405}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Location{
		{Name: "", Latitude: 0, Longitude: 0},
		{Name: "x", Latitude: 91, Longitude: 0},
		{Name: "x", Latitude: 0, Longitude: -181},
	}
	for _, loc := range bad {
		if err := loc.Validate(); err == nil {
			t.Fatalf("expected error for %+v", loc)
		}
	}
}

func TestSortEvents_PrimaryIsMaxByPriorityThenStart(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := AstronomyData{
		Date: base,
		Events: []AstronomyEvent{
			{Type: EventAPOD, Title: "picture", StartTime: base.Add(1 * time.Hour), Priority: 5},
			{Type: EventISSPass, Title: "early pass", StartTime: base.Add(2 * time.Hour), Priority: 8},
			{Type: EventISSPass, Title: "late pass", StartTime: base.Add(20 * time.Hour), Priority: 8},
			{Type: EventSatelliteImage, Title: "imagery", StartTime: base.Add(3 * time.Hour), Priority: 3},
		},
	}
	day.SortEvents()

	if day.PrimaryEvent == nil || day.PrimaryEvent.Title != "late pass" {
		t.Fatalf("expected primary to be the later of the highest-priority events, got %+v", day.PrimaryEvent)
	}
	for i := 1; i < len(day.Events); i++ {
		prev, cur := day.Events[i-1], day.Events[i]
		if prev.Priority < cur.Priority {
			t.Fatalf("events not sorted by priority at index %d", i)
		}
		if prev.Priority == cur.Priority && prev.StartTime.Before(cur.StartTime) {
			t.Fatalf("ties not broken by descending start time at index %d", i)
		}
	}
}

func TestSortEvents_EmptyDayHasNoPrimary(t *testing.T) {
	day := AstronomyData{Date: time.Now()}
	day.SortEvents()
	if day.PrimaryEvent != nil {
		t.Fatalf("expected no primary event for an empty day")
	}
}

func TestForecastIsStale(t *testing.T) {
	ttl := 6 * time.Hour

	fresh := &AstronomyForecastData{LastUpdated: time.Now().Add(-ttl + time.Minute)}
	if fresh.IsStale(ttl) {
		t.Fatalf("forecast within TTL reported stale")
	}

	stale := &AstronomyForecastData{LastUpdated: time.Now().Add(-ttl - time.Minute)}
	if !stale.IsStale(ttl) {
		t.Fatalf("forecast past TTL reported fresh")
	}
}

func TestForecastValidate_DayOrder(t *testing.T) {
	loc := Location{Name: "Berlin", Latitude: 52.52, Longitude: 13.405}
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	f := &AstronomyForecastData{
		Location:    loc,
		LastUpdated: time.Now(),
		Days:        []AstronomyData{{Date: d2}, {Date: d1}},
	}
	if err := f.Validate(); err == nil {
		t.Fatalf("expected error for out-of-order days")
	}

	f.Days = []AstronomyData{{Date: d1}, {Date: d2}}
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForecastValidate_ZeroEventsIsValid(t *testing.T) {
	f := &AstronomyForecastData{
		Location:    Location{Name: "Berlin", Latitude: 52.52, Longitude: 13.405},
		LastUpdated: time.Now(),
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("empty forecast should be valid, got %v", err)
	}
}
