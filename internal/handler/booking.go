package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for booking requests.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateRequestBody is the HTTP request body for requesting seats.
type CreateRequestBody struct {
	RiderID        string `json:"rider_id" binding:"required"`
	RiderName      string `json:"rider_name"`
	RequestedSeats int    `json:"requested_seats" binding:"required"`
	PickupWaypoint string `json:"pickup_waypoint"`
}

// RequestResponse is the HTTP response for booking request operations.
type RequestResponse struct {
	RequestID      string `json:"request_id"`
	TripID         string `json:"trip_id"`
	RiderID        string `json:"rider_id"`
	RiderName      string `json:"rider_name,omitempty"`
	RequestedSeats int    `json:"requested_seats"`
	Status         string `json:"status"`
	PickupWaypoint string `json:"pickup_waypoint,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// CreateRequest handles POST /v1/trips/:id/requests
func (h *BookingHandler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	req, err := h.bookingService.CreateRequest(c.Request.Context(), service.CreateBookingRequest{
		TripID:         c.Param("id"),
		RiderID:        body.RiderID,
		RiderName:      body.RiderName,
		RequestedSeats: body.RequestedSeats,
		PickupWaypoint: body.PickupWaypoint,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRequestResponse(req))
}

// GetRequest handles GET /v1/requests/:id
func (h *BookingHandler) GetRequest(c *gin.Context) {
	req, err := h.bookingService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

// ListTripRequests handles GET /v1/trips/:id/requests?status=WAITING
func (h *BookingHandler) ListTripRequests(c *gin.Context) {
	var statuses []domain.RequestStatus
	if raw, ok := c.GetQueryArray("status"); ok {
		for _, s := range raw {
			statuses = append(statuses, domain.RequestStatus(s))
		}
	}

	requests, err := h.bookingService.ListTripRequests(c.Request.Context(), c.Param("id"), statuses)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}

	c.JSON(http.StatusOK, out)
}

// AcceptRequest handles POST /v1/requests/:id/accept
func (h *BookingHandler) AcceptRequest(c *gin.Context) {
	h.transition(c, h.bookingService.AcceptRequest)
}

// RejectRequest handles POST /v1/requests/:id/reject
func (h *BookingHandler) RejectRequest(c *gin.Context) {
	h.transition(c, h.bookingService.RejectRequest)
}

// CancelBooking handles POST /v1/requests/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, h.bookingService.DriverCancelBooking)
}

// WithdrawRequest handles POST /v1/requests/:id/withdraw
func (h *BookingHandler) WithdrawRequest(c *gin.Context) {
	h.transition(c, h.bookingService.WithdrawRequest)
}

// CheckIn handles POST /v1/requests/:id/checkin
func (h *BookingHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.bookingService.CheckIn)
}

// CheckOut handles POST /v1/requests/:id/checkout
func (h *BookingHandler) CheckOut(c *gin.Context) {
	h.transition(c, h.bookingService.CheckOut)
}

func (h *BookingHandler) transition(c *gin.Context, op func(ctx context.Context, id string) (*domain.BookingRequest, error)) {
	req, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

func toRequestResponse(req *domain.BookingRequest) RequestResponse {
	return RequestResponse{
		RequestID:      req.ID,
		TripID:         req.TripID,
		RiderID:        req.RiderID,
		RiderName:      req.RiderName,
		RequestedSeats: req.RequestedSeats,
		Status:         string(req.Status),
		PickupWaypoint: req.PickupWaypoint,
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      req.UpdatedAt.Format(time.RFC3339),
	}
}
