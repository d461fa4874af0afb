package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// SuggestionHandler handles HTTP requests for trip suggestions.
type SuggestionHandler struct {
	ranker *service.TripRanker
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(ranker *service.TripRanker) *SuggestionHandler {
	return &SuggestionHandler{ranker: ranker}
}

// SuggestionItem is one ranked trip in the suggestion response.
type SuggestionItem struct {
	Trip       TripResponse `json:"trip"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
	Priority   float64      `json:"priority"`
}

// SuggestionsResponse is the HTTP response for the suggestion list.
// NoUpcomingTrips lets clients render an empty state instead of retrying.
type SuggestionsResponse struct {
	Suggestions     []SuggestionItem `json:"suggestions"`
	NoUpcomingTrips bool             `json:"no_upcoming_trips"`
}

// GetSuggestions handles GET /v1/riders/:id/suggestions
func (h *SuggestionHandler) GetSuggestions(c *gin.Context) {
	result, err := h.ranker.Suggest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := SuggestionsResponse{
		Suggestions:     make([]SuggestionItem, 0, len(result.Candidates)),
		NoUpcomingTrips: result.NoUpcomingTrips,
	}
	for _, candidate := range result.Candidates {
		response.Suggestions = append(response.Suggestions, SuggestionItem{
			Trip:       toTripResponse(candidate.Trip),
			DistanceKm: candidate.DistanceKm,
			Priority:   candidate.Priority,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
