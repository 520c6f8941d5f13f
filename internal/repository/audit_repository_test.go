package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
)

func TestAuditRepositoryCreateAndList(t *testing.T) {
	repo := NewAuditRepository(docstore.NewMemoryStore())
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	prof := "prof-1"
	other := "prof-2"
	first := &models.AuditLog{Action: "availability.replace", Resource: "professor", ResourceID: &prof}
	second := &models.AuditLog{Action: "rules.update", Resource: "professor", ResourceID: &prof}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, &models.AuditLog{Action: "rules.update", Resource: "professor", ResourceID: &other}))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, base.Add(time.Minute), first.CreatedAt)

	logs, err := repo.ListByResource(ctx, "professor", "prof-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "availability.replace", logs[0].Action)
	assert.Equal(t, "rules.update", logs[1].Action)
}
