package domain

import (
	"time"

	"servio/internal/geo"
)

// LocationSample is one provider position ping. Samples are immutable: a new
// ping supersedes the previous one, it never rewrites it.
type LocationSample struct {
	ID             string
	ProviderID     string
	Position       geo.Position
	AccuracyMeters float64
	HeadingDegrees float64
	SpeedKmh       float64
	Online         bool
	BatteryPercent int
	CapturedAt     time.Time
}

// Stale reports whether the sample is older than maxAge at the given instant.
// A zero maxAge disables the staleness check.
func (s *LocationSample) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.CapturedAt) > maxAge
}
