package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"servio/internal/geo"
	"servio/internal/service"
)

// SearchHandler handles HTTP requests for provider search.
type SearchHandler struct {
	matchingService *service.MatchingService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(matchingService *service.MatchingService) *SearchHandler {
	return &SearchHandler{matchingService: matchingService}
}

// SearchRequest is the HTTP request body for a provider search.
type SearchRequest struct {
	ServiceID   string  `json:"service_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	RadiusKm    float64 `json:"radius_km,omitempty"`
	IsEmergency bool    `json:"is_emergency,omitempty"`
}

// SearchCandidate is one ranked provider in the search response.
type SearchCandidate struct {
	ProviderID             string  `json:"provider_id"`
	ProviderName           string  `json:"provider_name"`
	Rating                 float64 `json:"rating"`
	RatingCount            int64   `json:"rating_count"`
	DistanceKm             float64 `json:"distance_km"`
	EstimatedTravelMinutes int     `json:"estimated_travel_minutes"`
	Price                  float64 `json:"price"`
	EmergencyApplied       bool    `json:"emergency_applied"`
	Currency               string  `json:"currency"`
}

// SearchResponse is the HTTP response for a provider search.
type SearchResponse struct {
	Candidates []SearchCandidate `json:"candidates"`
	Count      int               `json:"count"`
}

// Search handles POST /v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ServiceID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "service_id is required"})
		return
	}

	candidates, err := h.matchingService.Search(c.Request.Context(), service.SearchRequest{
		ServiceID:   req.ServiceID,
		Position:    geo.Position{Lat: req.Lat, Lon: req.Lon},
		RadiusKm:    req.RadiusKm,
		IsEmergency: req.IsEmergency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]SearchCandidate, len(candidates))
	for i, cand := range candidates {
		out[i] = SearchCandidate{
			ProviderID:             cand.ProviderID,
			ProviderName:           cand.ProviderName,
			Rating:                 cand.Rating,
			RatingCount:            cand.RatingCount,
			DistanceKm:             cand.DistanceKm,
			EstimatedTravelMinutes: cand.EstimatedTravelMinutes,
			Price:                  cand.Price.Float64(),
			EmergencyApplied:       cand.EmergencyApplied,
			Currency:               cand.Currency,
		}
	}

	respondJSON(c, http.StatusOK, SearchResponse{Candidates: out, Count: len(out)})
}
