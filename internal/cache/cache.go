package cache

import (
	"sync"
	"time"

	"skywatch/internal/models"
)

// ForecastSlot holds the single most recent forecast snapshot together with
// the time it was fetched. The manager owns exactly one slot; a Get within
// the TTL window returns the identical snapshot pointer.
type ForecastSlot struct {
	mu        sync.RWMutex
	forecast  *models.AstronomyForecastData
	fetchedAt time.Time
	ttl       time.Duration
}

func New(ttl time.Duration) *ForecastSlot {
	return &ForecastSlot{ttl: ttl}
}

// Get returns the cached snapshot if one exists and it is still within the
// TTL window. A snapshot aged exactly ttl is still served.
func (s *ForecastSlot) Get() (*models.AstronomyForecastData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.forecast == nil || time.Since(s.fetchedAt) > s.ttl {
		return nil, false
	}
	return s.forecast, true
}

// Peek returns the cached snapshot regardless of age, for callers that
// prefer a stale snapshot over none.
func (s *ForecastSlot) Peek() (*models.AstronomyForecastData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forecast, s.forecast != nil
}

// Set replaces the slot contents and stamps the fetch time.
func (s *ForecastSlot) Set(f *models.AstronomyForecastData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecast = f
	s.fetchedAt = time.Now()
}

// FetchedAt returns when the current snapshot was stored.
func (s *ForecastSlot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// TTL returns the configured validity window.
func (s *ForecastSlot) TTL() time.Duration {
	return s.ttl
}
