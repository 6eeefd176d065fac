package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// VehicleHandler handles HTTP requests for vehicles.
type VehicleHandler struct {
	fleetService *service.FleetService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(fleetService *service.FleetService) *VehicleHandler {
	return &VehicleHandler{fleetService: fleetService}
}

// RegisterVehicleRequest is the HTTP request body for vehicle registration.
type RegisterVehicleRequest struct {
	Registration string `json:"registration"`
	Capacity     int    `json:"capacity"`
	LocalityID   string `json:"locality_id"`
}

// ScheduleDowntimeRequest is the HTTP request body for scheduling downtime.
type ScheduleDowntimeRequest struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Target string    `json:"target"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID             string `json:"id"`
	Registration   string `json:"registration"`
	Capacity       int    `json:"capacity"`
	Status         string `json:"status"`
	LocalityID     string `json:"locality_id"`
	Disabled       bool   `json:"disabled,omitempty"`
	DowntimeStart  string `json:"downtime_start,omitempty"`
	DowntimeEnd    string `json:"downtime_end,omitempty"`
	DowntimeTarget string `json:"downtime_target,omitempty"`
}

func vehicleResponse(vehicle *domain.Vehicle) VehicleResponse {
	response := VehicleResponse{
		ID:           vehicle.ID,
		Registration: vehicle.Registration,
		Capacity:     vehicle.Capacity,
		Status:       string(vehicle.Status),
		LocalityID:   vehicle.LocalityID,
		Disabled:     vehicle.Disabled,
	}
	if vehicle.HasDowntime() {
		response.DowntimeStart = vehicle.DowntimeStart.Format(time.RFC3339)
		response.DowntimeEnd = vehicle.DowntimeEnd.Format(time.RFC3339)
		response.DowntimeTarget = string(vehicle.DowntimeTarget)
	}
	return response
}

// Register handles POST /v1/vehicles
func (h *VehicleHandler) Register(c *gin.Context) {
	var req RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.fleetService.RegisterVehicle(c.Request.Context(), service.RegisterVehicleRequest{
		Registration: req.Registration,
		Capacity:     req.Capacity,
		LocalityID:   req.LocalityID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, vehicleResponse(vehicle))
}

// Get handles GET /v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.fleetService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicleResponse(vehicle))
}

// GetAll handles GET /v1/vehicles
func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.fleetService.GetAllVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, vehicle := range vehicles {
		response = append(response, vehicleResponse(vehicle))
	}

	respondJSON(c, http.StatusOK, response)
}

// ScheduleDowntime handles POST /v1/vehicles/:id/downtime
func (h *VehicleHandler) ScheduleDowntime(c *gin.Context) {
	var req ScheduleDowntimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.fleetService.ScheduleDowntime(c.Request.Context(), service.ScheduleDowntimeRequest{
		VehicleID: c.Param("id"),
		Start:     req.Start,
		End:       req.End,
		Target:    domain.VehicleStatus(req.Target),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicleResponse(vehicle))
}

// MarkOperative handles POST /v1/vehicles/:id/operative
func (h *VehicleHandler) MarkOperative(c *gin.Context) {
	vehicle, err := h.fleetService.MarkOperative(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicleResponse(vehicle))
}

// Disable handles POST /v1/vehicles/:id/disable
func (h *VehicleHandler) Disable(c *gin.Context) {
	if err := h.fleetService.DisableVehicle(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
