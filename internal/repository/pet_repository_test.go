package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/models"
)

func TestPetRepositoryList(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewPetRepository(db)
	mock.ExpectQuery("SELECT id, name, species, created_at FROM pets ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "species", "created_at"}).AddRow("p1", "Rex", "dog", time.Now()))

	pets, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Rex", pets[0].Name)
}

func TestPetRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewPetRepository(db)
	mock.ExpectExec("INSERT INTO pets").
		WithArgs(sqlmock.AnyArg(), "Tom", "cat", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pet := &models.Pet{Name: "Tom", Species: "cat"}
	require.NoError(t, repo.Create(context.Background(), pet))
	assert.NotEmpty(t, pet.ID)
	assert.False(t, pet.CreatedAt.IsZero())
}

func TestPetRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	pets, err := NewPetRepository(db).FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, pets)
	require.NoError(t, mock.ExpectationsWereMet())
}
