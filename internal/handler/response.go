package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/repository"
	"fleet/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// ConflictingTripIDs lists the trips blocking a downtime window, when
	// that is what went wrong.
	ConflictingTripIDs []string `json:"conflicting_trip_ids,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	var conflict *service.DowntimeConflictError
	if errors.As(err, &conflict) {
		ids := make([]string, len(conflict.Trips))
		for i, trip := range conflict.Trips {
			ids[i] = trip.ID
		}
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), ConflictingTripIDs: ids})
		return
	}

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
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTimeWindow),
		errors.Is(err, service.ErrSameOriginDestination),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidTicketID),
		errors.Is(err, service.ErrInvalidHolderID),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidRegistration),
		errors.Is(err, service.ErrInvalidDowntimeTarget),
		errors.Is(err, service.ErrInvalidSeat):
		return http.StatusBadRequest

	// Conflict and illegal-state errors
	case errors.Is(err, service.ErrRegistrationTaken),
		errors.Is(err, service.ErrVehicleAssigned),
		errors.Is(err, service.ErrSeatTaken),
		errors.Is(err, service.ErrTripNotBookable),
		errors.Is(err, service.ErrTicketNotHeld),
		errors.Is(err, service.ErrTicketExpired),
		errors.Is(err, service.ErrTicketAlreadySold),
		errors.Is(err, service.ErrTicketCancelled),
		errors.Is(err, service.ErrTripCancelled),
		errors.Is(err, service.ErrTripNotCancellable):
		return http.StatusConflict

	// Payment declined
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired

	// Allocation exhausted
	case errors.Is(err, service.ErrNoOperativeVehicles),
		errors.Is(err, service.ErrNoCompatibleVehicle):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
