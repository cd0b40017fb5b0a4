package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
	"github.com/noah-isme/petcal-api/pkg/response"
)

type petService interface {
	List(ctx context.Context) ([]models.Pet, error)
	Create(ctx context.Context, req dto.CreatePetRequest) (*models.Pet, error)
}

// PetHandler manages pets.
type PetHandler struct {
	service petService
}

// NewPetHandler constructs the handler.
func NewPetHandler(service petService) *PetHandler {
	return &PetHandler{service: service}
}

// List godoc
// @Summary List pets
// @Tags Pets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pets [get]
func (h *PetHandler) List(c *gin.Context) {
	pets, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pets)
}

// Create godoc
// @Summary Create a pet
// @Tags Pets
// @Accept json
// @Produce json
// @Param payload body dto.CreatePetRequest true "Pet payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pets [post]
func (h *PetHandler) Create(c *gin.Context) {
	var req dto.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	pet, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pet)
}
