package moonphase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skywatch/internal/models"
)

func TestCompute_ReferenceNewMoon(t *testing.T) {
	phase, illum := Compute(referenceNewMoon)
	if phase != models.MoonNew {
		t.Fatalf("expected new moon at reference date, got %s", phase)
	}
	if illum > 0.001 {
		t.Fatalf("expected near-zero illumination, got %f", illum)
	}
}

func TestCompute_FullMoonAtHalfCycle(t *testing.T) {
	halfCycle := time.Duration(SynodicMonth / 2 * 24 * float64(time.Hour))
	phase, illum := Compute(referenceNewMoon.Add(halfCycle))
	if phase != models.MoonFull {
		t.Fatalf("expected full moon half a cycle after new moon, got %s", phase)
	}
	if illum < 0.999 {
		t.Fatalf("expected near-full illumination, got %f", illum)
	}
}

func TestCompute_PeriodicOverSynodicMonth(t *testing.T) {
	base := time.Date(2026, 4, 10, 6, 0, 0, 0, time.UTC)
	basePhase, baseIllum := Compute(base)

	for k := 1; k <= 5; k++ {
		offset := time.Duration(float64(k) * SynodicMonth * 24 * float64(time.Hour))
		phase, illum := Compute(base.Add(offset))
		if phase != basePhase {
			t.Fatalf("k=%d: phase %s differs from base %s", k, phase, basePhase)
		}
		if math.Abs(illum-baseIllum) > 1e-6 {
			t.Fatalf("k=%d: illumination %f differs from base %f", k, illum, baseIllum)
		}
	}
}

func TestCompute_DatesBeforeReference(t *testing.T) {
	phase, illum := Compute(time.Date(1999, 7, 1, 0, 0, 0, 0, time.UTC))
	if phase == "" {
		t.Fatalf("expected a phase for pre-reference dates")
	}
	if illum < 0 || illum > 1 {
		t.Fatalf("illumination %f out of range", illum)
	}
}

func TestPhaseFor_UsesRemoteWhenAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"Phase":"Waxing Gibbous","Illumination":0.72,"Error":0}]`)
	}))
	defer ts.Close()

	e := NewEstimator(ts.URL)
	phase, illum := e.PhaseFor(context.Background(), time.Now())
	if phase != models.MoonWaxingGibbous {
		t.Fatalf("expected remote phase, got %s", phase)
	}
	if illum != 0.72 {
		t.Fatalf("expected remote illumination 0.72, got %f", illum)
	}
}

func TestPhaseFor_FallsBackOnServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	date := referenceNewMoon.Add(3 * 24 * time.Hour)
	wantPhase, wantIllum := Compute(date)

	e := NewEstimator(ts.URL)
	phase, illum := e.PhaseFor(context.Background(), date)
	if phase != wantPhase || math.Abs(illum-wantIllum) > 1e-9 {
		t.Fatalf("fallback mismatch: got (%s, %f), want (%s, %f)", phase, illum, wantPhase, wantIllum)
	}
}

func TestPhaseFor_FallsBackOnInvalidPayload(t *testing.T) {
	cases := []string{
		`[{"Phase":"Blood Moon","Illumination":0.5,"Error":0}]`,
		`[{"Phase":"Full Moon","Illumination":1.4,"Error":0}]`,
		`[{"Phase":"Full Moon","Illumination":0.5,"Error":1}]`,
		`[]`,
		`{not json`,
	}
	date := referenceNewMoon.Add(10 * 24 * time.Hour)
	wantPhase, _ := Compute(date)

	for _, body := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		e := NewEstimator(ts.URL)
		phase, _ := e.PhaseFor(context.Background(), date)
		ts.Close()
		if phase != wantPhase {
			t.Fatalf("payload %q: expected fallback phase %s, got %s", body, wantPhase, phase)
		}
	}
}

func TestPhaseFor_FallsBackWhenUnreachable(t *testing.T) {
	e := NewEstimator("http://127.0.0.1:1")
	date := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	wantPhase, wantIllum := Compute(date)

	phase, illum := e.PhaseFor(context.Background(), date)
	if phase != wantPhase || illum != wantIllum {
		t.Fatalf("expected local computation when remote unreachable")
	}
}
