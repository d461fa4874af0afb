package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	redisstore "carpool/internal/redis"
)

// RiderHandler handles HTTP requests for rider-side state.
type RiderHandler struct {
	locationStore redisstore.LocationStoreInterface
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(locationStore redisstore.LocationStoreInterface) *RiderHandler {
	return &RiderHandler{locationStore: locationStore}
}

// UpdateLocationRequest is the HTTP request body for a location report.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// UpdateLocation handles POST /v1/riders/:id/location
//
// Riders report their position opportunistically; the ranker reads the last
// known value best-effort, so a stale or missing report is never an error
// on the suggestion path.
func (h *RiderHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "coordinates out of range"})
		return
	}

	if err := h.locationStore.UpdateLocation(c.Request.Context(), c.Param("id"), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
