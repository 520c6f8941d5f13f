package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
)

// RescheduleRepository persists reschedule records and commits them together
// with the student's ledger entry.
type RescheduleRepository struct {
	store docstore.Store
}

// NewRescheduleRepository constructs the repository.
func NewRescheduleRepository(store docstore.Store) *RescheduleRepository {
	return &RescheduleRepository{store: store}
}

// FindByID returns the record or docstore.ErrNotFound.
func (r *RescheduleRepository) FindByID(ctx context.Context, id string) (*models.RescheduleRecord, error) {
	var record models.RescheduleRecord
	if err := r.store.Get(ctx, CollectionReschedules, id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudentProfessor returns the pair's history, any status, oldest first.
func (r *RescheduleRepository) ListByStudentProfessor(ctx context.Context, studentID, professorID string) ([]models.RescheduleRecord, error) {
	return r.list(ctx,
		docstore.Where("student_id", docstore.OpEqual, studentID),
		docstore.Where("professor_id", docstore.OpEqual, professorID),
	)
}

// ListByProfessor returns every record for the professor, oldest first.
func (r *RescheduleRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.RescheduleRecord, error) {
	return r.list(ctx, docstore.Where("professor_id", docstore.OpEqual, professorID))
}

// ListByStudent returns every record for the student, oldest first.
func (r *RescheduleRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RescheduleRecord, error) {
	return r.list(ctx, docstore.Where("student_id", docstore.OpEqual, studentID))
}

func (r *RescheduleRepository) list(ctx context.Context, filters ...docstore.Filter) ([]models.RescheduleRecord, error) {
	var records []models.RescheduleRecord
	if err := r.store.Query(ctx, CollectionReschedules, &records, filters...); err != nil {
		return nil, fmt.Errorf("list reschedules: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// Commit marks originalDate as cancelled in the student's ledger and inserts
// record in one atomic batch: both become visible or neither does.
func (r *RescheduleRepository) Commit(ctx context.Context, record *models.RescheduleRecord, originalDate time.Time) error {
	writes := []docstore.Write{
		{
			Collection: CollectionStudents,
			ID:         record.StudentID,
			Data:       map[string]interface{}{"classes": models.LedgerEntry(originalDate, models.LedgerCancelled)},
			Merge:      true,
		},
		{
			Collection: CollectionReschedules,
			ID:         record.ID,
			Data:       record,
		},
	}
	if err := r.store.Batch(ctx, writes); err != nil {
		return fmt.Errorf("commit reschedule %s: %w", record.ID, err)
	}
	return nil
}

// UpdateStatus moves a record to status, stamping cancelledAt when given.
func (r *RescheduleRepository) UpdateStatus(ctx context.Context, id string, status models.RescheduleStatus, cancelledAt *time.Time) error {
	data := map[string]interface{}{"status": status}
	if cancelledAt != nil {
		data["cancelled_at"] = cancelledAt.UTC()
	}
	if err := r.store.Set(ctx, CollectionReschedules, id, data, docstore.Merge()); err != nil {
		return fmt.Errorf("update reschedule %s: %w", id, err)
	}
	return nil
}
