package aggregator

import (
	"math"
	"time"
)

// sunTimes computes sunrise and sunset for a UTC calendar day using the
// standard sunrise equation (NOAA simplification). ok is false during polar
// day or polar night, when the sun never crosses the horizon.
func sunTimes(date time.Time, latDeg, lonDeg float64) (sunrise, sunset time.Time, ok bool) {
	const zenith = 90.833 // official sunrise/sunset, includes refraction

	// Whole days since the J2000 epoch, adjusted for the observer's longitude.
	jd := julianDay(date)
	n := math.Ceil(jd - 2451545.0 + 0.0008)
	jStar := n - lonDeg/360.0

	// Solar mean anomaly and equation of center.
	m := math.Mod(357.5291+0.98560028*jStar, 360)
	mRad := m * math.Pi / 180
	c := 1.9148*math.Sin(mRad) + 0.0200*math.Sin(2*mRad) + 0.0003*math.Sin(3*mRad)

	// Ecliptic longitude and solar transit.
	lambda := math.Mod(m+c+180+102.9372, 360)
	lambdaRad := lambda * math.Pi / 180
	jTransit := 2451545.0 + jStar + 0.0053*math.Sin(mRad) - 0.0069*math.Sin(2*lambdaRad)

	// Declination of the sun.
	sinDecl := math.Sin(lambdaRad) * math.Sin(23.4397*math.Pi/180)
	decl := math.Asin(sinDecl)

	latRad := latDeg * math.Pi / 180
	cosHourAngle := (math.Cos(zenith*math.Pi/180) - math.Sin(latRad)*sinDecl) /
		(math.Cos(latRad) * math.Cos(decl))
	if cosHourAngle < -1 || cosHourAngle > 1 {
		return time.Time{}, time.Time{}, false
	}

	hourAngle := math.Acos(cosHourAngle) * 180 / math.Pi
	jRise := jTransit - hourAngle/360
	jSet := jTransit + hourAngle/360

	return fromJulian(jRise), fromJulian(jSet), true
}

func julianDay(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Unix())/86400.0 + 2440587.5
}

func fromJulian(jd float64) time.Time {
	secs := (jd - 2440587.5) * 86400.0
	return time.Unix(int64(secs), 0).UTC()
}
