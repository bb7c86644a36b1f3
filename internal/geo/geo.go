// Package geo contains pure geographic computation helpers.
package geo

import "math"

const earthRadiusKm = 6371.0

// Position is a point on the earth in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinates are within the global ranges.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// BoundingBox is a rectangular operating region.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the position lies inside the box.
func (b BoundingBox) Contains(p Position) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// DistanceKm returns the great-circle (haversine) distance in kilometres
// between two positions. Symmetric, non-negative, zero for equal points.
func DistanceKm(a, b Position) float64 {
	if a == b {
		return 0
	}

	dLat := degreesToRadians(b.Lat - a.Lat)
	dLon := degreesToRadians(b.Lon - a.Lon)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// TravelPolicy holds the tunables for travel-time estimation. The buffer is a
// policy choice for traffic and preparation time, not a physical constant.
type TravelPolicy struct {
	AvgSpeedKmh    float64
	BufferPerKmMin float64
	MaxBufferMin   float64
}

// DefaultTravelPolicy returns the urban defaults: 30 km/h average speed with
// 2 buffer minutes per km capped at 15.
func DefaultTravelPolicy() TravelPolicy {
	return TravelPolicy{
		AvgSpeedKmh:    30,
		BufferPerKmMin: 2,
		MaxBufferMin:   15,
	}
}

// EstimatedTravelMinutes returns the estimated door-to-door travel time for
// the given distance. Non-positive distances estimate to zero.
func EstimatedTravelMinutes(distanceKm float64, policy TravelPolicy) int {
	if distanceKm <= 0 {
		return 0
	}

	driving := math.Ceil(distanceKm / policy.AvgSpeedKmh * 60)
	buffer := math.Min(policy.MaxBufferMin, distanceKm*policy.BufferPerKmMin)

	return int(driving + buffer)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
