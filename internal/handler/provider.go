package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/middleware"
	"servio/internal/service"
)

// ProviderHandler handles HTTP requests for provider location and coverage
// areas.
type ProviderHandler struct {
	locationService *service.LocationService
	areaService     *service.AreaService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(locationService *service.LocationService, areaService *service.AreaService) *ProviderHandler {
	return &ProviderHandler{
		locationService: locationService,
		areaService:     areaService,
	}
}

// LocationPingRequest is the HTTP request body for a position ping.
type LocationPingRequest struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
	HeadingDegrees float64 `json:"heading_degrees,omitempty"`
	SpeedKmh       float64 `json:"speed_kmh,omitempty"`
	Online         *bool   `json:"online,omitempty"` // defaults to true
	BatteryPercent int     `json:"battery_percent,omitempty"`
}

// LocationResponse is the HTTP representation of a location sample.
type LocationResponse struct {
	ProviderID     string    `json:"provider_id"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	SpeedKmh       float64   `json:"speed_kmh,omitempty"`
	Online         bool      `json:"online"`
	BatteryPercent int       `json:"battery_percent,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// AddAreaRequest is the HTTP request body for declaring a coverage area.
type AddAreaRequest struct {
	Label             string  `json:"label,omitempty"`
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	RadiusKm          float64 `json:"radius_km"`
	IsPrimary         bool    `json:"is_primary,omitempty"`
	TravelTimeMinutes int     `json:"travel_time_minutes,omitempty"`
}

// AreaResponse is the HTTP representation of a coverage area.
type AreaResponse struct {
	ID                string  `json:"id"`
	ProviderID        string  `json:"provider_id"`
	Label             string  `json:"label,omitempty"`
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	RadiusKm          float64 `json:"radius_km"`
	IsPrimary         bool    `json:"is_primary"`
	TravelTimeMinutes int     `json:"travel_time_minutes,omitempty"`
}

// UpdateLocation handles POST /v1/providers/location
func (h *ProviderHandler) UpdateLocation(c *gin.Context) {
	identity, ok := requireRole(c, domain.RoleProvider)
	if !ok {
		return
	}

	var req LocationPingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	online := true
	if req.Online != nil {
		online = *req.Online
	}

	sample, err := h.locationService.Record(c.Request.Context(), service.RecordRequest{
		ProviderID:     identity.UserID,
		Position:       geo.Position{Lat: req.Lat, Lon: req.Lon},
		AccuracyMeters: req.AccuracyMeters,
		HeadingDegrees: req.HeadingDegrees,
		SpeedKmh:       req.SpeedKmh,
		Online:         online,
		BatteryPercent: req.BatteryPercent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toLocationResponse(sample))
}

// GoOffline handles POST /v1/providers/offline
func (h *ProviderHandler) GoOffline(c *gin.Context) {
	identity, ok := requireRole(c, domain.RoleProvider)
	if !ok {
		return
	}

	if err := h.locationService.SetOffline(c.Request.Context(), identity.UserID); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "offline"})
}

// GetLocation handles GET /v1/providers/:id/location
func (h *ProviderHandler) GetLocation(c *gin.Context) {
	if _, ok := middleware.IdentityFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	sample, err := h.locationService.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if sample == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no location recorded"})
		return
	}
	respondJSON(c, http.StatusOK, toLocationResponse(sample))
}

// AddArea handles POST /v1/providers/areas
func (h *ProviderHandler) AddArea(c *gin.Context) {
	identity, ok := requireRole(c, domain.RoleProvider)
	if !ok {
		return
	}

	var req AddAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	area, err := h.areaService.Add(c.Request.Context(), service.AddAreaRequest{
		ProviderID:        identity.UserID,
		Label:             req.Label,
		Center:            geo.Position{Lat: req.Lat, Lon: req.Lon},
		RadiusKm:          req.RadiusKm,
		IsPrimary:         req.IsPrimary,
		TravelTimeMinutes: req.TravelTimeMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toAreaResponse(area))
}

// ListAreas handles GET /v1/providers/:id/areas
func (h *ProviderHandler) ListAreas(c *gin.Context) {
	if _, ok := middleware.IdentityFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	areas, err := h.areaService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]AreaResponse, len(areas))
	for i, a := range areas {
		out[i] = toAreaResponse(a)
	}
	respondJSON(c, http.StatusOK, gin.H{"areas": out, "count": len(out)})
}

// RemoveArea handles DELETE /v1/providers/areas/:areaID
func (h *ProviderHandler) RemoveArea(c *gin.Context) {
	identity, ok := requireRole(c, domain.RoleProvider)
	if !ok {
		return
	}

	if err := h.areaService.Remove(c.Request.Context(), c.Param("areaID"), identity.UserID); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "deleted"})
}

// requireRole fetches the caller identity and rejects other roles. Admins
// pass through.
func requireRole(c *gin.Context, role domain.Role) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return domain.Identity{}, false
	}
	if identity.Role != role && identity.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return domain.Identity{}, false
	}
	return identity, true
}

func toLocationResponse(s *domain.LocationSample) LocationResponse {
	return LocationResponse{
		ProviderID:     s.ProviderID,
		Lat:            s.Position.Lat,
		Lon:            s.Position.Lon,
		AccuracyMeters: s.AccuracyMeters,
		HeadingDegrees: s.HeadingDegrees,
		SpeedKmh:       s.SpeedKmh,
		Online:         s.Online,
		BatteryPercent: s.BatteryPercent,
		CapturedAt:     s.CapturedAt,
	}
}

func toAreaResponse(a *domain.ServiceArea) AreaResponse {
	return AreaResponse{
		ID:                a.ID,
		ProviderID:        a.ProviderID,
		Label:             a.Label,
		Lat:               a.Center.Lat,
		Lon:               a.Center.Lon,
		RadiusKm:          a.RadiusKm,
		IsPrimary:         a.IsPrimary,
		TravelTimeMinutes: a.TravelTimeMinutes,
	}
}
