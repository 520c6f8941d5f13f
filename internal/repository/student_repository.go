package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
)

// StudentRepository persists student documents, including their class ledger.
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// FindByID returns the student or docstore.ErrNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.store.Get(ctx, CollectionStudents, id, &student); err != nil {
		return nil, err
	}
	if student.ID == "" {
		student.ID = id
	}
	return &student, nil
}

// ListByProfessor returns every student with fixed classes assigned to professorID.
func (r *StudentRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Student, error) {
	var students []models.Student
	if err := r.store.Query(ctx, CollectionStudents, &students, docstore.Where("professor_id", docstore.OpEqual, professorID)); err != nil {
		return nil, fmt.Errorf("list students of %s: %w", professorID, err)
	}
	return students, nil
}

// Upsert writes the whole student document.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	if err := r.store.Set(ctx, CollectionStudents, student.ID, student); err != nil {
		return fmt.Errorf("upsert student %s: %w", student.ID, err)
	}
	return nil
}
