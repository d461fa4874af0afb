package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// PublishTripRequest is the HTTP request body for publishing a trip.
type PublishTripRequest struct {
	DriverID           string  `json:"driver_id" binding:"required"`
	OriginAddress      string  `json:"origin_address" binding:"required"`
	DestinationAddress string  `json:"destination_address" binding:"required"`
	OriginLat          float64 `json:"origin_lat"`
	OriginLng          float64 `json:"origin_lng"`
	DestinationLat     float64 `json:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng"`
	DepartsAt          string  `json:"departs_at" binding:"required"`
	TotalSeats         int     `json:"total_seats" binding:"required"`
	Recurring          bool    `json:"recurring"`
	RecurringDays      []int   `json:"recurring_days"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID             string  `json:"trip_id"`
	DriverID           string  `json:"driver_id"`
	OriginAddress      string  `json:"origin_address"`
	DestinationAddress string  `json:"destination_address"`
	OriginLat          float64 `json:"origin_lat"`
	OriginLng          float64 `json:"origin_lng"`
	DestinationLat     float64 `json:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng"`
	DepartsAt          string  `json:"departs_at"`
	TotalSeats         int     `json:"total_seats"`
	AvailableSeats     int     `json:"available_seats"`
	Status             string  `json:"status"`
	Recurring          bool    `json:"recurring"`
	RecurringDays      []int   `json:"recurring_days,omitempty"`
}

// PublishTrip handles POST /v1/trips
func (h *TripHandler) PublishTrip(c *gin.Context) {
	var req PublishTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	departsAt, err := time.Parse(time.RFC3339, req.DepartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "departs_at must be RFC3339"})
		return
	}

	days := make([]time.Weekday, 0, len(req.RecurringDays))
	for _, d := range req.RecurringDays {
		days = append(days, time.Weekday(d))
	}

	trip, err := h.tripService.PublishTrip(c.Request.Context(), service.PublishTripRequest{
		DriverID:           req.DriverID,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		Origin:             domain.Coordinates{Lat: req.OriginLat, Lng: req.OriginLng},
		Destination:        domain.Coordinates{Lat: req.DestinationLat, Lng: req.DestinationLng},
		DepartsAt:          departsAt,
		TotalSeats:         req.TotalSeats,
		Recurring:          req.Recurring,
		RecurringDays:      days,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTripResponses(trips))
}

// GetUpcoming handles GET /v1/trips/upcoming
func (h *TripHandler) GetUpcoming(c *gin.Context) {
	trips, err := h.tripService.ListUpcomingTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTripResponses(trips))
}

func toTripResponse(trip *domain.Trip) TripResponse {
	var days []int
	for _, d := range trip.RecurringDays {
		days = append(days, int(d))
	}

	return TripResponse{
		TripID:             trip.ID,
		DriverID:           trip.DriverID,
		OriginAddress:      trip.OriginAddress,
		DestinationAddress: trip.DestinationAddress,
		OriginLat:          trip.Origin.Lat,
		OriginLng:          trip.Origin.Lng,
		DestinationLat:     trip.Destination.Lat,
		DestinationLng:     trip.Destination.Lng,
		DepartsAt:          trip.DepartsAt.Format(time.RFC3339),
		TotalSeats:         trip.TotalSeats,
		AvailableSeats:     trip.AvailableSeats,
		Status:             string(trip.Status),
		Recurring:          trip.Recurring,
		RecurringDays:      days,
	}
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		out = append(out, toTripResponse(trip))
	}
	return out
}
