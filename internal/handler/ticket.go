package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// TicketHandler handles HTTP requests for seat holds and sales.
type TicketHandler struct {
	ticketService *service.TicketService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// HoldRequest is the HTTP request body for holding a seat.
type HoldRequest struct {
	TripID     string `json:"trip_id"`
	SeatNumber int    `json:"seat_number"`
	HolderID   string `json:"holder_id"`
}

// TicketResponse is the HTTP response for ticket operations.
type TicketResponse struct {
	TicketID   string  `json:"ticket_id"`
	TripID     string  `json:"trip_id"`
	SeatNumber int     `json:"seat_number"`
	HolderID   string  `json:"holder_id"`
	Status     string  `json:"status"`
	Price      float64 `json:"price"`
	ExpiresAt  string  `json:"expires_at,omitempty"`
	PaymentRef string  `json:"payment_ref,omitempty"`
}

func ticketResponse(ticket *domain.Ticket) TicketResponse {
	response := TicketResponse{
		TicketID:   ticket.ID,
		TripID:     ticket.TripID,
		SeatNumber: ticket.SeatNumber,
		HolderID:   ticket.HolderID,
		Status:     string(ticket.Status),
		Price:      ticket.Price,
		PaymentRef: ticket.PaymentRef,
	}
	if !ticket.ExpiresAt.IsZero() {
		response.ExpiresAt = ticket.ExpiresAt.Format(time.RFC3339)
	}
	return response
}

// Hold handles POST /v1/tickets/hold
func (h *TicketHandler) Hold(c *gin.Context) {
	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ticket, err := h.ticketService.Hold(c.Request.Context(), service.HoldRequest{
		TripID:     req.TripID,
		SeatNumber: req.SeatNumber,
		HolderID:   req.HolderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ticketResponse(ticket))
}

// Confirm handles POST /v1/tickets/:id/confirm
func (h *TicketHandler) Confirm(c *gin.Context) {
	ticket, err := h.ticketService.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}

// Cancel handles POST /v1/tickets/:id/cancel
func (h *TicketHandler) Cancel(c *gin.Context) {
	ticket, err := h.ticketService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}

// Get handles GET /v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.ticketService.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}
