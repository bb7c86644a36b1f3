package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/middleware"
	"servio/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// AddressPayload is the service address in request/response bodies.
type AddressPayload struct {
	Street string  `json:"street"`
	City   string  `json:"city"`
	Region string  `json:"region,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	ServiceID           string         `json:"service_id"`
	ProviderID          string         `json:"provider_id,omitempty"`
	ScheduledAt         time.Time      `json:"scheduled_at"`
	Address             AddressPayload `json:"address"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	IsEmergency         bool           `json:"is_emergency,omitempty"`
}

// UpdateStatusRequest is the HTTP request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// SubmitReviewRequest is the HTTP request body for reviewing a booking.
type SubmitReviewRequest struct {
	Rating    int      `json:"rating"`
	Text      string   `json:"text,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID                   string         `json:"id"`
	CustomerID           string         `json:"customer_id"`
	ProviderID           string         `json:"provider_id,omitempty"`
	ServiceID            string         `json:"service_id"`
	Status               string         `json:"status"`
	ScheduledAt          time.Time      `json:"scheduled_at"`
	ActualStart          *time.Time     `json:"actual_start,omitempty"`
	ActualEnd            *time.Time     `json:"actual_end,omitempty"`
	ActualDurationMin    int            `json:"actual_duration_min,omitempty"`
	Address              AddressPayload `json:"address"`
	SpecialInstructions  string         `json:"special_instructions,omitempty"`
	EstimatedDurationMin int            `json:"estimated_duration_min,omitempty"`
	TotalAmount          float64        `json:"total_amount"`
	PlatformCommission   float64        `json:"platform_commission"`
	ProviderEarnings     float64        `json:"provider_earnings"`
	PaymentStatus        string         `json:"payment_status"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// HistoryEntryResponse is one audit record in the history response.
type HistoryEntryResponse struct {
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	ChangedBy      string    `json:"changed_by"`
	Reason         string    `json:"reason,omitempty"`
	At             time.Time `json:"at"`
}

// ReviewResponse is the HTTP representation of a review.
type ReviewResponse struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ProviderID string    `json:"provider_id"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text,omitempty"`
	PhotoURLs  []string  `json:"photo_urls,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create handles POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ServiceID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "service_id is required"})
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:          identity.UserID,
		ServiceID:           req.ServiceID,
		ProviderID:          req.ProviderID,
		ScheduledAt:         req.ScheduledAt,
		Address:             toAddress(req.Address),
		SpecialInstructions: req.SpecialInstructions,
		IsEmergency:         req.IsEmergency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// List handles GET /v1/bookings
func (h *BookingHandler) List(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	bookings, err := h.bookingService.List(c.Request.Context(), identity, domain.BookingStatus(c.Query("status")), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = toBookingResponse(b)
	}
	respondJSON(c, http.StatusOK, gin.H{"bookings": out, "count": len(out)})
}

// UpdateStatus handles POST /v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.Transition(c.Request.Context(), service.TransitionRequest{
		BookingID: c.Param("id"),
		Requester: identity,
		NewStatus: domain.BookingStatus(req.Status),
		Reason:    req.Reason,
	})
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		if booking != nil {
			resp.CurrentStatus = string(booking.Status)
		}
		c.JSON(mapErrorToHTTPStatus(err), resp)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// History handles GET /v1/bookings/:id/history
func (h *BookingHandler) History(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	entries, err := h.bookingService.History(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			ChangedBy:      e.ChangedBy,
			Reason:         e.Reason,
			At:             e.At,
		}
	}
	respondJSON(c, http.StatusOK, gin.H{"history": out, "count": len(out)})
}

// SubmitReview handles POST /v1/bookings/:id/review
func (h *BookingHandler) SubmitReview(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	review, err := h.bookingService.SubmitReview(c.Request.Context(), service.SubmitReviewRequest{
		BookingID: c.Param("id"),
		Requester: identity,
		Rating:    req.Rating,
		Text:      req.Text,
		PhotoURLs: req.PhotoURLs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ReviewResponse{
		ID:         review.ID,
		BookingID:  review.BookingID,
		ProviderID: review.ProviderID,
		Rating:     review.Rating,
		Text:       review.Text,
		PhotoURLs:  review.PhotoURLs,
		CreatedAt:  review.CreatedAt,
	})
}

func toAddress(p AddressPayload) domain.Address {
	return domain.Address{
		Street:   p.Street,
		City:     p.City,
		Region:   p.Region,
		Position: geo.Position{Lat: p.Lat, Lon: p.Lon},
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID,
		CustomerID:           b.CustomerID,
		ProviderID:           b.ProviderID,
		ServiceID:            b.ServiceID,
		Status:               string(b.Status),
		ScheduledAt:          b.ScheduledAt,
		ActualDurationMin:    b.ActualDurationMin,
		Address:              toAddressPayload(b.Address),
		SpecialInstructions:  b.SpecialInstructions,
		EstimatedDurationMin: b.EstimatedDurationMin,
		TotalAmount:          b.TotalAmount.Float64(),
		PlatformCommission:   b.PlatformCommission.Float64(),
		ProviderEarnings:     b.ProviderEarnings.Float64(),
		PaymentStatus:        string(b.PaymentStatus),
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if !b.ActualStart.IsZero() {
		t := b.ActualStart
		resp.ActualStart = &t
	}
	if !b.ActualEnd.IsZero() {
		t := b.ActualEnd
		resp.ActualEnd = &t
	}
	return resp
}

func toAddressPayload(a domain.Address) AddressPayload {
	return AddressPayload{
		Street: a.Street,
		City:   a.City,
		Region: a.Region,
		Lat:    a.Position.Lat,
		Lon:    a.Position.Lon,
	}
}
