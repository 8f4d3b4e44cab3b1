package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"skywatch/internal/cache"
	"skywatch/internal/metrics"
	"skywatch/internal/models"
)

// State is the manager's refresh lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Subscriber receives each successfully refreshed snapshot.
type Subscriber func(*models.AstronomyForecastData)

// Manager owns the single forecast cache slot and drives the
// idle → loading → ready/error lifecycle. Refresh calls within the TTL
// window return the identical snapshot; concurrent refreshes share one
// in-flight fetch.
type Manager struct {
	agg    *Aggregator
	loc    models.Location
	slot   *cache.ForecastSlot
	days   int
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	lastErr  error
	inflight chan struct{}
	subs     []Subscriber
}

func NewManager(agg *Aggregator, loc models.Location, ttl time.Duration, days int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 7
	}
	m := &Manager{
		agg:    agg,
		loc:    loc,
		slot:   cache.New(ttl),
		days:   days,
		logger: logger,
		state:  StateIdle,
	}
	metrics.SetManagerState(m.state.String())
	return m
}

// Subscribe registers a callback invoked after every successful refresh.
// Callbacks run synchronously on the refreshing goroutine.
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Refresh returns the current snapshot, fetching a new one when the cache
// slot is past its TTL or force is set. Concurrent callers during a fetch
// wait for the in-flight result instead of starting their own.
func (m *Manager) Refresh(ctx context.Context, force bool) (*models.AstronomyForecastData, error) {
	for {
		m.mu.Lock()
		if !force {
			if f, ok := m.slot.Get(); ok {
				m.mu.Unlock()
				metrics.IncCacheHit()
				return f, nil
			}
		}

		if m.inflight != nil {
			done := m.inflight
			m.mu.Unlock()
			select {
			case <-done:
				m.mu.Lock()
				err := m.lastErr
				m.mu.Unlock()
				if err != nil {
					return nil, err
				}
				if f, ok := m.slot.Peek(); ok {
					return f, nil
				}
				// Slot emptied between the fetch and this read; start over.
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		m.inflight = done
		m.setStateLocked(StateLoading)
		m.mu.Unlock()

		f, err := m.fetch(ctx)

		m.mu.Lock()
		m.inflight = nil
		if err != nil {
			m.lastErr = err
			m.setStateLocked(StateError)
			close(done)
			m.mu.Unlock()
			return nil, err
		}
		m.lastErr = nil
		m.slot.Set(f)
		m.setStateLocked(StateReady)
		subs := make([]Subscriber, len(m.subs))
		copy(subs, m.subs)
		close(done)
		m.mu.Unlock()

		for _, fn := range subs {
			fn(f)
		}
		return f, nil
	}
}

func (m *Manager) fetch(ctx context.Context) (*models.AstronomyForecastData, error) {
	metrics.IncCacheMiss()
	started := time.Now()
	f, err := m.agg.Forecast(ctx, m.loc, time.Now(), m.days)
	metrics.ObserveRefreshDuration(time.Since(started))
	if err != nil {
		m.logger.Error("forecast refresh failed", "location", m.loc.Name, "error", err)
		return nil, err
	}
	m.logger.Info("forecast refreshed",
		"location", m.loc.Name,
		"days", len(f.Days),
		"events", f.EventCount())
	return f, nil
}

func (m *Manager) setStateLocked(s State) {
	m.state = s
	metrics.SetManagerState(s.String())
}

// Current returns the latest snapshot regardless of age.
func (m *Manager) Current() (*models.AstronomyForecastData, bool) {
	return m.slot.Peek()
}

// Status describes the manager for the status endpoint.
type Status struct {
	State       string     `json:"state"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Stale       bool       `json:"stale"`
	Error       string     `json:"error,omitempty"`
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	state := m.state
	lastErr := m.lastErr
	m.mu.Unlock()

	st := Status{State: state.String()}
	if lastErr != nil {
		st.Error = lastErr.Error()
	}
	if f, ok := m.slot.Peek(); ok {
		t := f.LastUpdated
		st.LastUpdated = &t
		st.Stale = f.IsStale(m.slot.TTL())
	}
	return st
}

// Run refreshes immediately and then on every interval tick until ctx is
// cancelled. Errors are logged and retried on the next tick.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if _, err := m.Refresh(ctx, false); err != nil {
		m.logger.Warn("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Refresh(ctx, false); err != nil {
				m.logger.Warn("scheduled refresh failed", "error", err)
			}
		}
	}
}
