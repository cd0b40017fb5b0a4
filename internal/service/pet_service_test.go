package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

type petRepoStub struct {
	pets      []models.Pet
	listErr   error
	createErr error
	created   []models.Pet
}

func (s *petRepoStub) List(ctx context.Context) ([]models.Pet, error) {
	return s.pets, s.listErr
}

func (s *petRepoStub) Create(ctx context.Context, pet *models.Pet) error {
	if s.createErr != nil {
		return s.createErr
	}
	pet.ID = "pet-1"
	s.created = append(s.created, *pet)
	return nil
}

func TestPetServiceList(t *testing.T) {
	svc := NewPetService(&petRepoStub{}, nil, nil)
	pets, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pets)
	assert.Empty(t, pets)

	svc = NewPetService(&petRepoStub{listErr: errors.New("boom")}, nil, nil)
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestPetServiceCreate(t *testing.T) {
	repo := &petRepoStub{}
	svc := NewPetService(repo, nil, nil)

	pet, err := svc.Create(context.Background(), dto.CreatePetRequest{Name: "  Rex ", Species: "Dog"})
	require.NoError(t, err)
	assert.Equal(t, "pet-1", pet.ID)
	assert.Equal(t, "Rex", pet.Name)
	assert.Equal(t, "dog", pet.Species)

	_, err = svc.Create(context.Background(), dto.CreatePetRequest{Name: "   "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, repo.created, 1)
}
