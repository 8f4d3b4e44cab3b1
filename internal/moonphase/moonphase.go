package moonphase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"skywatch/internal/models"
)

// SynodicMonth is the mean length of a lunar cycle in days.
const SynodicMonth = 29.530588853

// Reference new moon: 2000-01-06 18:14 UTC.
var referenceNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

const defaultBaseURL = "https://api.farmsense.net/v1/moonphases/"

// Estimator resolves the lunar phase for a date. It tries the remote phase
// API first and falls back to the local synodic-cycle calculation whenever
// the remote call fails or returns an invalid payload.
type Estimator struct {
	baseURL    string
	localOnly  bool
	httpClient *http.Client
}

func NewEstimator(baseURL string) *Estimator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Estimator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewLocalEstimator skips the remote API entirely and always computes the
// phase from the synodic cycle.
func NewLocalEstimator() *Estimator {
	return &Estimator{localOnly: true}
}

// PhaseFor returns the phase and illumination fraction for a date. It never
// fails: any remote error degrades to the local calculation.
func (e *Estimator) PhaseFor(ctx context.Context, date time.Time) (models.MoonPhase, float64) {
	if !e.localOnly {
		if phase, illum, err := e.fetchRemote(ctx, date); err == nil {
			return phase, illum
		}
	}
	return Compute(date)
}

func (e *Estimator) fetchRemote(ctx context.Context, date time.Time) (models.MoonPhase, float64, error) {
	u := fmt.Sprintf("%s?d=%d", e.baseURL, date.Unix())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetching moon phase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("moon phase API returned status %d", resp.StatusCode)
	}

	var results []struct {
		Phase        string  `json:"Phase"`
		Illumination float64 `json:"Illumination"`
		Error        int     `json:"Error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", 0, fmt.Errorf("decoding moon phase response: %w", err)
	}
	if len(results) == 0 || results[0].Error != 0 {
		return "", 0, fmt.Errorf("moon phase API returned no usable result")
	}

	phase, ok := parsePhaseName(results[0].Phase)
	if !ok {
		return "", 0, fmt.Errorf("unknown moon phase name %q", results[0].Phase)
	}
	illum := results[0].Illumination
	if illum < 0 || illum > 1 {
		return "", 0, fmt.Errorf("illumination %.3f out of range", illum)
	}
	return phase, illum, nil
}

func parsePhaseName(name string) (models.MoonPhase, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "new moon", "dark moon":
		return models.MoonNew, true
	case "waxing crescent":
		return models.MoonWaxingCrescent, true
	case "first quarter":
		return models.MoonFirstQuarter, true
	case "waxing gibbous":
		return models.MoonWaxingGibbous, true
	case "full moon":
		return models.MoonFull, true
	case "waning gibbous":
		return models.MoonWaningGibbous, true
	case "last quarter", "3rd quarter", "third quarter":
		return models.MoonLastQuarter, true
	case "waning crescent":
		return models.MoonWaningCrescent, true
	}
	return "", false
}

// Compute derives the phase from the days elapsed since a reference new
// moon, modulo the synodic month. Pure and deterministic for a given date.
func Compute(date time.Time) (models.MoonPhase, float64) {
	days := date.Sub(referenceNewMoon).Hours() / 24
	age := math.Mod(days, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	frac := age / SynodicMonth

	// Illumination follows the phase angle: 0 at new, 1 at full.
	illum := (1 - math.Cos(2*math.Pi*frac)) / 2

	// Eight equal buckets centered on the principal phases.
	idx := int(math.Floor(frac*8+0.5)) % 8
	phases := [8]models.MoonPhase{
		models.MoonNew,
		models.MoonWaxingCrescent,
		models.MoonFirstQuarter,
		models.MoonWaxingGibbous,
		models.MoonFull,
		models.MoonWaningGibbous,
		models.MoonLastQuarter,
		models.MoonWaningCrescent,
	}
	return phases[idx], illum
}
