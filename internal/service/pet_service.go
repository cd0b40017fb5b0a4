package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

type petRepository interface {
	List(ctx context.Context) ([]models.Pet, error)
	Create(ctx context.Context, pet *models.Pet) error
}

// PetService manages the pets events can reference.
type PetService struct {
	repo      petRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPetService constructs the service.
func NewPetService(repo petRepository, validate *validator.Validate, logger *zap.Logger) *PetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PetService{repo: repo, validator: validate, logger: logger}
}

// List returns every pet.
func (s *PetService) List(ctx context.Context) ([]models.Pet, error) {
	pets, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pets")
	}
	if pets == nil {
		pets = []models.Pet{}
	}
	return pets, nil
}

// Create stores a new pet.
func (s *PetService) Create(ctx context.Context, req dto.CreatePetRequest) (*models.Pet, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Species = strings.TrimSpace(req.Species)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	pet := &models.Pet{Name: req.Name, Species: strings.ToLower(req.Species)}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pet")
	}
	s.logger.Info("pet created", zap.String("pet_id", pet.ID))
	return pet, nil
}
