package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/export"
)

// Calendar owner kinds used in cache keys.
const (
	calendarKindProfessor = "professor"
	calendarKindStudent   = "student"
)

var calendarExportHeaders = []string{"Date", "Start", "End", "Title", "Source", "Status"}

// CalendarService serves projected calendars for professors and students.
type CalendarService struct {
	professors  professorReader
	students    studentReader
	reschedules rescheduleReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	opts        SchedulingOptions
	projector   CalendarProjector
}

// CalendarServiceParams groups constructor dependencies.
type CalendarServiceParams struct {
	Professors  professorReader
	Students    studentReader
	Reschedules rescheduleReader
	Cache       *CacheService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Options     SchedulingOptions
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(params CalendarServiceParams) *CalendarService {
	opts := params.Options.withDefaults()
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		professors:  params.Professors,
		students:    params.Students,
		reschedules: params.Reschedules,
		cache:       params.Cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		opts:        opts,
		projector:   NewCalendarProjector(opts.HorizonWeeks, opts.ClassMinutes, opts.WeekStart, opts.Location),
	}
}

// ProfessorCalendar merges the professor's students' fixed classes, the
// professor's availability and confirmed reschedules. The flag reports a cache hit.
func (s *CalendarService) ProfessorCalendar(ctx context.Context, professorID string, query dto.CalendarQuery) ([]models.CalendarEvent, bool, error) {
	from, to, err := s.parseRange(query)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	var events []models.CalendarEvent
	key := CalendarCacheKey(calendarKindProfessor, professorID, now.In(s.opts.Location).Format(models.DateLayout))
	hit, err := s.cache.Remember(ctx, key, &events, func() error {
		professor, err := s.professors.FindByID(ctx, professorID)
		if err != nil {
			return loadError(err, appErrors.ErrNotFound, "professor not found")
		}
		students, err := s.students.ListByProfessor(ctx, professorID)
		if err != nil {
			return appErrors.Transient(err, "")
		}
		records, err := s.reschedules.ListByProfessor(ctx, professorID)
		if err != nil {
			return appErrors.Transient(err, "")
		}
		events = s.projector.Project(CalendarSources{
			Students:     students,
			Availability: professor.Availability,
			Reschedules:  records,
			OwnerID:      professor.ID,
		}, now)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return filterEvents(events, from, to), hit, nil
}

// StudentCalendar projects the student's own fixed classes and confirmed reschedules.
func (s *CalendarService) StudentCalendar(ctx context.Context, studentID string, query dto.CalendarQuery) ([]models.CalendarEvent, bool, error) {
	from, to, err := s.parseRange(query)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	var events []models.CalendarEvent
	key := CalendarCacheKey(calendarKindStudent, studentID, now.In(s.opts.Location).Format(models.DateLayout))
	hit, err := s.cache.Remember(ctx, key, &events, func() error {
		student, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			return loadError(err, appErrors.ErrNotFound, "student not found")
		}
		records, err := s.reschedules.ListByStudent(ctx, studentID)
		if err != nil {
			return appErrors.Transient(err, "")
		}
		events = s.projector.Project(CalendarSources{
			Students:    []models.Student{*student},
			Reschedules: records,
			OwnerID:     student.ID,
		}, now)
		s.retitleForStudent(ctx, student, events)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return filterEvents(events, from, to), hit, nil
}

// Export renders events as a table in format.
func (s *CalendarService) Export(events []models.CalendarEvent, title string, format export.Format) ([]byte, error) {
	rows := make([]map[string]string, 0, len(events))
	for _, evt := range events {
		start := evt.Start.In(s.opts.Location)
		rows = append(rows, map[string]string{
			"Date":   start.Format(models.DateLayout),
			"Start":  start.Format("15:04"),
			"End":    evt.End.In(s.opts.Location).Format("15:04"),
			"Title":  evt.Title,
			"Source": string(evt.SourceType),
			"Status": evt.Status,
		})
	}
	body, err := export.Render(format, export.Dataset{Title: title, Headers: calendarExportHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar export")
	}
	return body, nil
}

// retitleForStudent names the professor instead of the student in the student's own view.
func (s *CalendarService) retitleForStudent(ctx context.Context, student *models.Student, events []models.CalendarEvent) {
	counterpart := ""
	if professor, err := s.professors.FindByID(ctx, student.ProfessorID); err == nil && professor.Name != "" {
		counterpart = " with " + professor.Name
	} else if err != nil && !isNotFound(err) {
		s.logger.Warn("load professor for student calendar failed", zap.String("student_id", student.ID), zap.Error(err))
	}
	for i := range events {
		switch events[i].SourceType {
		case models.CalendarSourceFixedClass:
			events[i].Title = "Class" + counterpart
		case models.CalendarSourceReschedule:
			events[i].Title = "Rescheduled class" + counterpart
		}
	}
}

// parseRange resolves the optional [from, to] bounds; to is inclusive.
func (s *CalendarService) parseRange(query dto.CalendarQuery) (time.Time, time.Time, error) {
	if err := s.validator.Struct(query); err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar query")
	}
	var from, to time.Time
	if strings.TrimSpace(query.From) != "" {
		from, _ = ParseDate(query.From, s.opts.Location)
	}
	if strings.TrimSpace(query.To) != "" {
		parsed, _ := ParseDate(query.To, s.opts.Location)
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return from, to, nil
}

// filterEvents keeps events starting in [from, to); zero bounds are open.
func filterEvents(events []models.CalendarEvent, from, to time.Time) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, evt := range events {
		if !from.IsZero() && evt.Start.Before(from) {
			continue
		}
		if !to.IsZero() && !evt.Start.Before(to) {
			continue
		}
		out = append(out, evt)
	}
	return out
}
