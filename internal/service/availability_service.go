package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

type availabilityStore interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	ReplaceAvailability(ctx context.Context, id string, slots []models.AvailabilitySlot) error
	UpdateRules(ctx context.Context, id string, rules models.ReschedulingRules) error
}

type professorCommitments interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.RescheduleRecord, error)
}

type studentLister interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.Student, error)
}

// SlotProblem describes why one submitted slot was rejected.
type SlotProblem struct {
	Index   int    `json:"index"`
	Problem string `json:"problem"`
}

// AvailabilityService manages professor availability, rules and bookable slots.
type AvailabilityService struct {
	professors  availabilityStore
	students    studentLister
	reschedules professorCommitments
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	opts        SchedulingOptions
	projector   SlotProjector
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Professors  availabilityStore
	Students    studentLister
	Reschedules professorCommitments
	Cache       *CacheService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Options     SchedulingOptions
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	opts := params.Options.withDefaults()
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		professors:  params.Professors,
		students:    params.Students,
		reschedules: params.Reschedules,
		cache:       params.Cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		opts:        opts,
		projector:   NewSlotProjector(opts.WindowDays, opts.Location),
	}
}

// GetAvailability returns the professor's stored slots.
func (s *AvailabilityService) GetAvailability(ctx context.Context, professorID string) ([]models.AvailabilitySlot, error) {
	professor, err := s.loadProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	if professor.Availability == nil {
		return []models.AvailabilitySlot{}, nil
	}
	return professor.Availability, nil
}

// SaveAvailability validates the submitted slots, rejects the whole batch when
// any slot collides with a fixed class or a confirmed reschedule, and
// otherwise replaces the professor's availability.
func (s *AvailabilityService) SaveAvailability(ctx context.Context, professorID string, req dto.SaveAvailabilityRequest) ([]models.AvailabilitySlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSlotDefinition.Code, appErrors.ErrInvalidSlotDefinition.Status, "invalid availability payload")
	}

	slots := make([]models.AvailabilitySlot, 0, len(req.Slots))
	var problems []SlotProblem
	for i, input := range req.Slots {
		slot, problem := normaliseSlot(input)
		if problem != "" {
			problems = append(problems, SlotProblem{Index: i, Problem: problem})
			continue
		}
		slots = append(slots, slot)
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSlotDefinition, "invalid availability slot", problems)
	}

	if _, err := s.loadProfessor(ctx, professorID); err != nil {
		return nil, err
	}

	detector, err := s.detector(ctx, professorID)
	if err != nil {
		return nil, err
	}
	if conflicts := detector.DetectAll(slots); len(conflicts) > 0 {
		s.logger.Info("availability rejected", zap.String("professor_id", professorID), zap.Int("conflicts", len(conflicts)))
		return nil, appErrors.WithDetails(appErrors.ErrConflictDetected, "availability conflicts with existing classes", conflicts)
	}

	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
	}
	if err := s.professors.ReplaceAvailability(ctx, professorID, slots); err != nil {
		return nil, appErrors.Transient(err, "failed to save availability")
	}
	_ = s.cache.Invalidate(ctx, OwnerCachePattern(professorID))

	s.logger.Info("availability saved", zap.String("professor_id", professorID), zap.Int("slots", len(slots)))
	return slots, nil
}

// GetRules returns the professor's rules, or the configured defaults.
func (s *AvailabilityService) GetRules(ctx context.Context, professorID string) (models.ReschedulingRules, error) {
	professor, err := s.loadProfessor(ctx, professorID)
	if err != nil {
		return models.ReschedulingRules{}, err
	}
	return professor.EffectiveRules(s.opts.DefaultRules), nil
}

// UpdateRules stores new rescheduling rules for the professor.
func (s *AvailabilityService) UpdateRules(ctx context.Context, professorID string, req dto.UpdateRulesRequest) (models.ReschedulingRules, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ReschedulingRules{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rescheduling rules")
	}
	if _, err := s.loadProfessor(ctx, professorID); err != nil {
		return models.ReschedulingRules{}, err
	}

	rules := models.ReschedulingRules{
		MinAdvanceHours:        *req.MinAdvanceHours,
		MaxReschedulesPerWeek:  *req.MaxReschedulesPerWeek,
		MaxReschedulesPerMonth: *req.MaxReschedulesPerMonth,
	}
	if err := s.professors.UpdateRules(ctx, professorID, rules); err != nil {
		return models.ReschedulingRules{}, appErrors.Transient(err, "failed to save rescheduling rules")
	}
	_ = s.cache.Invalidate(ctx, OwnerCachePattern(professorID))
	return rules, nil
}

// BookableSlots projects the professor's availability over the booking window
// and reports whether the projection was served from cache.
func (s *AvailabilityService) BookableSlots(ctx context.Context, professorID string) ([]models.ProjectedDay, bool, error) {
	now := s.now().In(s.opts.Location)
	var days []models.ProjectedDay
	hit, err := s.cache.Remember(ctx, SlotsCacheKey(professorID, now.Format("2006-01-02T15")), &days, func() error {
		professor, err := s.loadProfessor(ctx, professorID)
		if err != nil {
			return err
		}
		rules := professor.EffectiveRules(s.opts.DefaultRules)
		days = s.projector.Project(professor.Availability, rules.MinAdvanceHours, now)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return days, hit, nil
}

func (s *AvailabilityService) loadProfessor(ctx context.Context, professorID string) (*models.Professor, error) {
	professor, err := s.professors.FindByID(ctx, professorID)
	if err != nil {
		return nil, loadError(err, appErrors.ErrNotFound, "professor not found")
	}
	return professor, nil
}

// detector gathers the professor's fixed classes and confirmed reschedules.
func (s *AvailabilityService) detector(ctx context.Context, professorID string) (*ConflictDetector, error) {
	students, err := s.students.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Transient(err, "")
	}
	records, err := s.reschedules.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Transient(err, "")
	}
	var classes []models.FixedClass
	for _, student := range students {
		classes = append(classes, student.FixedClasses()...)
	}
	return NewConflictDetector(classes, records, s.opts.ClassMinutes, s.opts.Location), nil
}

// normaliseSlot checks one submitted slot and returns it in stored form, or a
// description of what is wrong with it.
func normaliseSlot(input dto.AvailabilitySlotInput) (models.AvailabilitySlot, string) {
	start, okStart := ParseClock(input.StartTime)
	end, okEnd := ParseClock(input.EndTime)
	switch {
	case !okStart:
		return models.AvailabilitySlot{}, fmt.Sprintf("malformed start time %q", input.StartTime)
	case !okEnd:
		return models.AvailabilitySlot{}, fmt.Sprintf("malformed end time %q", input.EndTime)
	case start >= end:
		return models.AvailabilitySlot{}, "start time must be before end time"
	}

	slot := models.AvailabilitySlot{
		ID:          input.ID,
		StartTime:   FormatClock(start),
		EndTime:     FormatClock(end),
		IsRecurring: input.IsRecurring,
	}
	if input.IsRecurring {
		if input.DayOfWeek == nil {
			return models.AvailabilitySlot{}, "recurring slot requires dayOfWeek"
		}
		if input.Date != "" {
			return models.AvailabilitySlot{}, "recurring slot must not carry a date"
		}
		day := *input.DayOfWeek
		slot.DayOfWeek = &day
		slot.RecurrenceEndDate = input.RecurrenceEndDate
		return slot, ""
	}

	if input.Date == "" {
		return models.AvailabilitySlot{}, "one-off slot requires date"
	}
	if input.RecurrenceEndDate != "" {
		return models.AvailabilitySlot{}, "one-off slot must not carry recurrenceEndDate"
	}
	if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
		return models.AvailabilitySlot{}, fmt.Sprintf("malformed date %q", input.Date)
	}
	slot.Date = input.Date
	return slot, ""
}
