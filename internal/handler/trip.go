package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for creating a trip.
type CreateTripRequest struct {
	DepartureAt   time.Time `json:"departure_at"`
	ArrivalAt     time.Time `json:"arrival_at"`
	OriginID      string    `json:"origin_id"`
	DestinationID string    `json:"destination_id"`
	PricePerSeat  float64   `json:"price_per_seat"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID        string  `json:"trip_id"`
	VehicleID     string  `json:"vehicle_id"`
	OriginID      string  `json:"origin_id"`
	DestinationID string  `json:"destination_id"`
	DepartureAt   string  `json:"departure_at"`
	ArrivalAt     string  `json:"arrival_at"`
	Status        string  `json:"status"`
	TotalSeats    int     `json:"total_seats"`
	SeatsFree     int     `json:"seats_free"`
	PricePerSeat  float64 `json:"price_per_seat"`
}

func tripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		TripID:        trip.ID,
		VehicleID:     trip.VehicleID,
		OriginID:      trip.OriginID,
		DestinationID: trip.DestinationID,
		DepartureAt:   trip.DepartureAt.Format(time.RFC3339),
		ArrivalAt:     trip.ArrivalAt.Format(time.RFC3339),
		Status:        string(trip.Status),
		TotalSeats:    trip.TotalSeats,
		SeatsFree:     trip.SeatsFree,
		PricePerSeat:  trip.PricePerSeat,
	}
}

// Create handles POST /v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		DepartureAt:   req.DepartureAt,
		ArrivalAt:     req.ArrivalAt,
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		PricePerSeat:  req.PricePerSeat,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(trip))
}

// Get handles GET /v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, tripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// Finalize handles POST /v1/trips/:id/finalize
func (h *TripHandler) Finalize(c *gin.Context) {
	trip, err := h.tripService.FinalizeTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}
