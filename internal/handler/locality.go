package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// LocalityHandler handles HTTP requests for localities.
type LocalityHandler struct {
	localityRepo repository.LocalityRepository
}

// NewLocalityHandler creates a new LocalityHandler.
func NewLocalityHandler(localityRepo repository.LocalityRepository) *LocalityHandler {
	return &LocalityHandler{localityRepo: localityRepo}
}

// CreateLocalityRequest is the HTTP request body for creating a locality.
type CreateLocalityRequest struct {
	Name string `json:"name"`
}

// LocalityResponse is the HTTP response for locality data.
type LocalityResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Create handles POST /v1/localities
func (h *LocalityHandler) Create(c *gin.Context) {
	var req CreateLocalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	locality := &domain.Locality{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	if err := h.localityRepo.Create(c.Request.Context(), locality); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, LocalityResponse{ID: locality.ID, Name: locality.Name})
}

// GetAll handles GET /v1/localities
func (h *LocalityHandler) GetAll(c *gin.Context) {
	localities, err := h.localityRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]LocalityResponse, 0, len(localities))
	for _, locality := range localities {
		response = append(response, LocalityResponse{ID: locality.ID, Name: locality.Name})
	}

	respondJSON(c, http.StatusOK, response)
}
