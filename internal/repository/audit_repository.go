package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
)

// AuditRepository appends audit entries to the document store.
type AuditRepository struct {
	store docstore.Store
	now   func() time.Time
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(store docstore.Store) *AuditRepository {
	return &AuditRepository{store: store, now: time.Now}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now().UTC()
	}
	if err := r.store.Set(ctx, CollectionAuditLogs, log.ID, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByResource returns the entries recorded for one resource id, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.store.Query(ctx, CollectionAuditLogs, &logs,
		docstore.Where("resource", docstore.OpEqual, resource),
		docstore.Where("resource_id", docstore.OpEqual, resourceID),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}
