package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/petcal-api/internal/models"
)

// PetRepository persists pets.
type PetRepository struct {
	db *sqlx.DB
}

// NewPetRepository constructs a pet repository.
func NewPetRepository(db *sqlx.DB) *PetRepository {
	return &PetRepository{db: db}
}

// List returns every pet ordered by name.
func (r *PetRepository) List(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := r.db.SelectContext(ctx, &pets, "SELECT id, name, species, created_at FROM pets ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

// FindByIDs returns the pets matching ids, in no particular order.
func (r *PetRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Pet, error) {
	if len(ids) == 0 {
		return []models.Pet{}, nil
	}
	var pets []models.Pet
	if err := r.db.SelectContext(ctx, &pets, "SELECT id, name, species, created_at FROM pets WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find pets: %w", err)
	}
	return pets, nil
}

// Create inserts a pet.
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	if pet.ID == "" {
		pet.ID = uuid.NewString()
	}
	if pet.CreatedAt.IsZero() {
		pet.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO pets (id, name, species, created_at) VALUES (:id, :name, :species, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pet); err != nil {
		return fmt.Errorf("create pet: %w", err)
	}
	return nil
}
