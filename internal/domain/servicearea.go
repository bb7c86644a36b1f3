package domain

import (
	"time"

	"servio/internal/geo"
)

// MaxServiceAreaRadiusKm bounds declared coverage circles.
const MaxServiceAreaRadiusKm = 100.0

// ServiceArea is a provider-declared coverage circle, distinct from the
// provider's real-time position. A provider may own many; at most one is
// primary at a time.
type ServiceArea struct {
	ID                string
	ProviderID        string
	Label             string
	Center            geo.Position
	RadiusKm          float64
	IsPrimary         bool
	TravelTimeMinutes int
	CreatedAt         time.Time
}

// ValidRadius reports whether the radius is in (0, MaxServiceAreaRadiusKm].
func (a *ServiceArea) ValidRadius() bool {
	return a.RadiusKm > 0 && a.RadiusKm <= MaxServiceAreaRadiusKm
}

// Contains reports whether the point lies within the area's circle.
func (a *ServiceArea) Contains(p geo.Position) bool {
	return geo.DistanceKm(a.Center, p) <= a.RadiusKm
}
