package service

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

type professorReader interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.Student, error)
}

type rescheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.RescheduleRecord, error)
	ListByStudentProfessor(ctx context.Context, studentID, professorID string) ([]models.RescheduleRecord, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.RescheduleRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RescheduleRecord, error)
}

// SchedulingOptions are the engine-wide settings shared by the scheduling services.
type SchedulingOptions struct {
	DefaultRules models.ReschedulingRules
	WindowDays   int
	HorizonWeeks int
	ClassMinutes int
	WeekStart    time.Weekday
	Location     *time.Location
	CacheTTL     time.Duration
}

func (o SchedulingOptions) withDefaults() SchedulingOptions {
	if o.DefaultRules == (models.ReschedulingRules{}) {
		o.DefaultRules = models.DefaultReschedulingRules()
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.HorizonWeeks <= 0 {
		o.HorizonWeeks = DefaultHorizonWeeks
	}
	if o.ClassMinutes <= 0 {
		o.ClassMinutes = DefaultClassMinutes
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// isNotFound reports a missing document in any store backend.
func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

// loadError maps a store read failure: missing documents become notFound,
// anything else is a retryable persistence failure.
func loadError(err error, notFound *appErrors.Error, message string) error {
	if isNotFound(err) {
		return appErrors.Clone(notFound, message)
	}
	return appErrors.Transient(err, "")
}
