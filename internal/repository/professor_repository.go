package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
)

// ProfessorRepository persists professor documents.
type ProfessorRepository struct {
	store docstore.Store
}

// NewProfessorRepository constructs the repository.
func NewProfessorRepository(store docstore.Store) *ProfessorRepository {
	return &ProfessorRepository{store: store}
}

// FindByID returns the professor or docstore.ErrNotFound.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	var professor models.Professor
	if err := r.store.Get(ctx, CollectionProfessors, id, &professor); err != nil {
		return nil, err
	}
	if professor.ID == "" {
		professor.ID = id
	}
	return &professor, nil
}

// Upsert writes the whole professor document.
func (r *ProfessorRepository) Upsert(ctx context.Context, professor *models.Professor) error {
	if professor.Availability == nil {
		professor.Availability = []models.AvailabilitySlot{}
	}
	if err := r.store.Set(ctx, CollectionProfessors, professor.ID, professor); err != nil {
		return fmt.Errorf("upsert professor %s: %w", professor.ID, err)
	}
	return nil
}

// ReplaceAvailability overwrites the availability list; other fields are kept.
func (r *ProfessorRepository) ReplaceAvailability(ctx context.Context, id string, slots []models.AvailabilitySlot) error {
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	data := map[string]interface{}{"id": id, "availability": slots}
	if err := r.store.Set(ctx, CollectionProfessors, id, data, docstore.Merge()); err != nil {
		return fmt.Errorf("replace availability of %s: %w", id, err)
	}
	return nil
}

// UpdateRules stores the rescheduling rules; other fields are kept.
func (r *ProfessorRepository) UpdateRules(ctx context.Context, id string, rules models.ReschedulingRules) error {
	data := map[string]interface{}{"id": id, "rescheduling_rules": rules}
	if err := r.store.Set(ctx, CollectionProfessors, id, data, docstore.Merge()); err != nil {
		return fmt.Errorf("update rules of %s: %w", id, err)
	}
	return nil
}
