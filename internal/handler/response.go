package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"servio/internal/repository"
	"servio/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// CurrentStatus is set on rejected booking transitions so clients can
	// see who won a race.
	CurrentStatus string `json:"current_status,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrServiceNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrReviewAlreadyExists),
		errors.Is(err, service.ErrBookingNotCompleted):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrProviderNotEligible):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrMatchingUnavailable),
		errors.Is(err, service.ErrPricingUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
