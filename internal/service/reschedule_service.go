package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/events"
)

type rescheduleStore interface {
	rescheduleReader
	Commit(ctx context.Context, record *models.RescheduleRecord, originalDate time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.RescheduleStatus, cancelledAt *time.Time) error
}

type confirmationSender interface {
	SendConfirmationEmail(ctx context.Context, email ConfirmationEmail) error
}

// RescheduleService moves a student's fixed-class occurrence to a bookable slot
// and manages the resulting records.
type RescheduleService struct {
	professors  professorReader
	students    studentReader
	reschedules rescheduleStore
	notifier    confirmationSender
	publisher   events.Publisher
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	opts        SchedulingOptions
	limiter     RescheduleLimiter
}

// RescheduleServiceParams groups constructor dependencies.
type RescheduleServiceParams struct {
	Professors  professorReader
	Students    studentReader
	Reschedules rescheduleStore
	Notifier    confirmationSender
	Publisher   events.Publisher
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Options     SchedulingOptions
}

// NewRescheduleService constructs a RescheduleService.
func NewRescheduleService(params RescheduleServiceParams) *RescheduleService {
	opts := params.Options.withDefaults()
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RescheduleService{
		professors:  params.Professors,
		students:    params.Students,
		reschedules: params.Reschedules,
		notifier:    params.Notifier,
		publisher:   publisher,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		opts:        opts,
		limiter:     NewRescheduleLimiter(opts.WeekStart, opts.Location),
	}
}

// rescheduleRequest is a validated request with its dates resolved.
type rescheduleRequest struct {
	studentID    string
	professorID  string
	originalDate time.Time
	newDate      time.Time
	newTime      string
}

// Reschedule validates the request against the professor's availability,
// the student's quota and every existing commitment, then commits the ledger
// cancellation and the new record as one atomic batch.
//
// Quota is checked before the commit and not re-checked inside it, so two
// concurrent requests from the same student may both pass.
func (s *RescheduleService) Reschedule(ctx context.Context, studentID string, req dto.RescheduleRequest) (*dto.RescheduleResult, error) {
	parsed, err := s.parseRequest(studentID, req)
	if err != nil {
		return nil, s.reject(err)
	}

	student, err := s.students.FindByID(ctx, parsed.studentID)
	if err != nil {
		return nil, s.reject(loadError(err, appErrors.ErrStaleReference, "student not found"))
	}
	professor, err := s.professors.FindByID(ctx, parsed.professorID)
	if err != nil {
		return nil, s.reject(loadError(err, appErrors.ErrStaleReference, "professor not found"))
	}
	if err := s.checkOriginal(student, parsed); err != nil {
		return nil, s.reject(err)
	}

	now := s.now().In(s.opts.Location)
	rules := professor.EffectiveRules(s.opts.DefaultRules)
	if err := s.checkSelection(professor, rules, parsed, now); err != nil {
		return nil, s.reject(err)
	}

	history, err := s.reschedules.ListByStudentProfessor(ctx, parsed.studentID, parsed.professorID)
	if err != nil {
		return nil, s.reject(appErrors.Transient(err, ""))
	}
	if _, err := s.limiter.Check(history, rules, now); err != nil {
		s.logger.Info("reschedule quota exceeded",
			zap.String("student_id", parsed.studentID),
			zap.String("professor_id", parsed.professorID),
		)
		return nil, s.reject(err)
	}

	if err := s.checkConflicts(ctx, parsed); err != nil {
		return nil, s.reject(err)
	}

	record := &models.RescheduleRecord{
		ID:           uuid.NewString(),
		StudentID:    parsed.studentID,
		ProfessorID:  parsed.professorID,
		OriginalDate: parsed.originalDate.Format(models.DateLayout),
		NewDate:      parsed.newDate.Format(models.DateLayout),
		NewTime:      parsed.newTime,
		Status:       models.RescheduleStatusConfirmed,
		CreatedAt:    now.UTC(),
	}
	if err := s.reschedules.Commit(ctx, record, parsed.originalDate); err != nil {
		s.logger.Error("reschedule commit failed",
			zap.String("student_id", parsed.studentID),
			zap.String("professor_id", parsed.professorID),
			zap.Error(err),
		)
		return nil, s.reject(appErrors.Transient(err, ""))
	}

	s.metrics.RescheduleCommitted()
	s.logger.Info("reschedule committed",
		zap.String("reschedule_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("professor_id", record.ProfessorID),
		zap.String("original_date", record.OriginalDate),
		zap.String("new_date", record.NewDate),
		zap.String("new_time", record.NewTime),
	)

	s.invalidate(ctx, record)
	s.publish(ctx, events.TypeRescheduleConfirmed, record)
	queued := s.notify(ctx, TemplateRescheduleConfirmation, record, student, professor)

	return &dto.RescheduleResult{
		Record:             *record,
		Usage:              s.limiter.Usage(append(history, *record), rules, now),
		NotificationQueued: queued,
	}, nil
}

// Cancel moves a confirmed record to the terminal status matching the actor's
// role. Repeating the same cancellation is a no-op. The ledger entry of the
// original date is left as is.
func (s *RescheduleService) Cancel(ctx context.Context, recordID string, actor *models.JWTClaims) (*models.RescheduleRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.reschedules.FindByID(ctx, recordID)
	if err != nil {
		return nil, loadError(err, appErrors.ErrNotFound, "reschedule not found")
	}

	var target models.RescheduleStatus
	var by string
	switch {
	case actor.Role == models.RoleStudent && actor.UserID == record.StudentID:
		target, by = models.RescheduleStatusCancelledByStudent, "student"
	case actor.Role == models.RoleProfessor && actor.UserID == record.ProfessorID,
		actor.Role == models.RoleAdmin:
		target, by = models.RescheduleStatusCancelledByTeacher, "teacher"
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a party to this reschedule")
	}

	if record.Status == target {
		return record, nil
	}
	if !record.Status.CanTransitionTo(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "reschedule is already "+string(record.Status))
	}

	cancelledAt := s.now().UTC()
	if err := s.reschedules.UpdateStatus(ctx, record.ID, target, &cancelledAt); err != nil {
		return nil, appErrors.Transient(err, "")
	}
	record.Status = target
	record.CancelledAt = &cancelledAt

	s.metrics.RescheduleCancelled(by)
	s.logger.Info("reschedule cancelled",
		zap.String("reschedule_id", record.ID),
		zap.String("status", string(target)),
		zap.String("actor_id", actor.UserID),
	)

	s.invalidate(ctx, record)
	s.publish(ctx, events.TypeRescheduleCancelled, record)
	if student, err := s.students.FindByID(ctx, record.StudentID); err == nil {
		if professor, err := s.professors.FindByID(ctx, record.ProfessorID); err == nil {
			s.notify(ctx, TemplateRescheduleCancellation, record, student, professor)
		}
	}
	return record, nil
}

// History lists a student's reschedules with one professor, oldest first.
func (s *RescheduleService) History(ctx context.Context, studentID, professorID string) ([]models.RescheduleRecord, error) {
	records, err := s.reschedules.ListByStudentProfessor(ctx, studentID, professorID)
	if err != nil {
		return nil, appErrors.Transient(err, "")
	}
	return nonNilRecords(records), nil
}

// ProfessorReschedules lists every reschedule made with a professor.
func (s *RescheduleService) ProfessorReschedules(ctx context.Context, professorID string) ([]models.RescheduleRecord, error) {
	records, err := s.reschedules.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Transient(err, "")
	}
	return nonNilRecords(records), nil
}

// Usage reports the student's quota consumption with a professor.
func (s *RescheduleService) Usage(ctx context.Context, studentID, professorID string) (models.RescheduleUsage, error) {
	professor, err := s.professors.FindByID(ctx, professorID)
	if err != nil {
		return models.RescheduleUsage{}, loadError(err, appErrors.ErrNotFound, "professor not found")
	}
	history, err := s.reschedules.ListByStudentProfessor(ctx, studentID, professorID)
	if err != nil {
		return models.RescheduleUsage{}, appErrors.Transient(err, "")
	}
	return s.limiter.Usage(history, professor.EffectiveRules(s.opts.DefaultRules), s.now()), nil
}

func (s *RescheduleService) parseRequest(studentID string, req dto.RescheduleRequest) (rescheduleRequest, error) {
	if studentID == "" {
		return rescheduleRequest{}, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return rescheduleRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	original, err := ParseDate(req.OriginalDate, s.opts.Location)
	if err != nil {
		return rescheduleRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid originalDate")
	}
	newDate, err := ParseDate(req.NewDate, s.opts.Location)
	if err != nil {
		return rescheduleRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid newDate")
	}
	minutes, ok := ParseClock(req.NewTime)
	if !ok {
		return rescheduleRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid newTime")
	}
	return rescheduleRequest{
		studentID:    studentID,
		professorID:  req.ProfessorID,
		originalDate: original,
		newDate:      newDate,
		newTime:      FormatClock(minutes),
	}, nil
}

// checkOriginal requires the original date to be a live occurrence of one of
// the student's fixed classes with the professor.
func (s *RescheduleService) checkOriginal(student *models.Student, req rescheduleRequest) error {
	if student.ProfessorID != req.professorID {
		return appErrors.Clone(appErrors.ErrStaleReference, "student has no classes with this professor")
	}
	scheduled := false
	for _, class := range student.FixedClasses() {
		if class.DayOfWeek == req.originalDate.Weekday() {
			scheduled = true
			break
		}
	}
	if !scheduled {
		return appErrors.Clone(appErrors.ErrStaleReference, "no class scheduled on the original date")
	}
	if status := student.Classes.Status(req.originalDate); status != "" {
		return appErrors.Clone(appErrors.ErrStaleReference, "original class is already "+status)
	}
	return nil
}

// checkSelection requires the new date and time to be one of the bookable
// instances the professor currently offers.
func (s *RescheduleService) checkSelection(professor *models.Professor, rules models.ReschedulingRules, req rescheduleRequest, now time.Time) error {
	today := startOfDay(now)
	cutoff := startOfDay(now.Add(time.Duration(rules.MinAdvanceHours) * time.Hour))
	horizon := today.AddDate(0, 0, s.opts.WindowDays)
	if req.newDate.Before(cutoff) || !req.newDate.Before(horizon) {
		return appErrors.Clone(appErrors.ErrStaleReference, "selected date is outside the booking window")
	}
	if _, ok := FindSlot(professor.Availability, req.newDate, req.newTime); !ok {
		return appErrors.Clone(appErrors.ErrStaleReference, "selected slot is no longer available")
	}
	return nil
}

// checkConflicts tests the new occurrence against the professor's fixed
// classes and confirmed reschedules. Fixed-class occurrences already
// cancelled in their student's ledger do not count.
func (s *RescheduleService) checkConflicts(ctx context.Context, req rescheduleRequest) error {
	students, err := s.students.ListByProfessor(ctx, req.professorID)
	if err != nil {
		return appErrors.Transient(err, "")
	}
	records, err := s.reschedules.ListByProfessor(ctx, req.professorID)
	if err != nil {
		return appErrors.Transient(err, "")
	}

	ledgers := make(map[string]models.ClassLedger, len(students))
	var classes []models.FixedClass
	for _, student := range students {
		ledgers[student.ID] = student.Classes
		classes = append(classes, student.FixedClasses()...)
	}

	candidate := models.AvailabilitySlot{
		Date:      req.newDate.Format(models.DateLayout),
		StartTime: req.newTime,
		EndTime:   AddMinutes(req.newTime, s.opts.ClassMinutes),
	}
	detector := NewConflictDetector(classes, records, s.opts.ClassMinutes, s.opts.Location)
	var conflicts []Conflict
	for _, conflict := range detector.Detect(candidate) {
		if conflict.Kind == CommitmentFixedClass && ledgers[conflict.OwnerID].Status(req.newDate) != "" {
			continue
		}
		conflicts = append(conflicts, conflict)
	}
	if len(conflicts) > 0 {
		return appErrors.WithDetails(appErrors.ErrConflictDetected, "selected slot conflicts with another class", conflicts)
	}
	return nil
}

func (s *RescheduleService) reject(err error) error {
	reason := appErrors.FromError(err).Code
	s.metrics.RescheduleRejected(reason)
	return err
}

func (s *RescheduleService) invalidate(ctx context.Context, record *models.RescheduleRecord) {
	_ = s.cache.Invalidate(ctx, OwnerCachePattern(record.ProfessorID))
	_ = s.cache.Invalidate(ctx, OwnerCachePattern(record.StudentID))
}

func (s *RescheduleService) publish(ctx context.Context, eventType string, record *models.RescheduleRecord) {
	evt := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: record.ID,
		OccurredAt:  s.now().UTC(),
		Payload:     record,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish reschedule event failed", zap.String("reschedule_id", record.ID), zap.String("type", eventType), zap.Error(err))
	}
}

func (s *RescheduleService) notify(ctx context.Context, template string, record *models.RescheduleRecord, student *models.Student, professor *models.Professor) bool {
	if s.notifier == nil {
		return false
	}
	email := ConfirmationEmail{
		StudentName:      student.Name,
		ProfessorEmail:   professor.Email,
		StudentEmail:     student.Email,
		SelectedDate:     record.NewDate,
		SelectedTimeSlot: record.NewTime + "-" + AddMinutes(record.NewTime, s.opts.ClassMinutes),
		OriginalDate:     record.OriginalDate,
		TemplateType:     template,
	}
	if err := s.notifier.SendConfirmationEmail(ctx, email); err != nil {
		s.logger.Warn("queue confirmation email failed", zap.String("reschedule_id", record.ID), zap.Error(err))
		return false
	}
	return true
}

func nonNilRecords(records []models.RescheduleRecord) []models.RescheduleRecord {
	if records == nil {
		return []models.RescheduleRecord{}
	}
	return records
}
