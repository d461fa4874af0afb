package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response. SeatsLeft is populated only
// for capacity rejections so clients can tell riders how many seats remain.
type ErrorResponse struct {
	Error     string `json:"error"`
	SeatsLeft *int   `json:"seats_left,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)

	resp := ErrorResponse{Error: err.Error()}
	var capErr *service.CapacityExceededError
	if errors.As(err, &capErr) {
		resp.SeatsLeft = &capErr.SeatsLeft
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var capErr *service.CapacityExceededError
	if errors.As(err, &capErr) {
		return http.StatusConflict
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidRequestID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrDepartureNotInFuture):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrTripNotBookable),
		errors.Is(err, service.ErrDuplicateActiveRequest),
		errors.Is(err, service.ErrConcurrentModification):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
